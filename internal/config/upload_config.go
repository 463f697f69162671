package config

const (
	maxFileSizeVar       = "MAX_FILE_SIZE"
	tempDirVar           = "TEMP_DIR"
	maxArchiveEntriesVar = "MAX_ARCHIVE_ENTRIES"
	maxEntrySizeVar      = "MAX_ENTRY_SIZE"

	MB = 1024 * 1024
)

type UploadConfig interface {
	GetMaxFileSize() int64
	GetTempDir() string
	GetMaxArchiveEntries() int
	GetMaxEntrySize() int64
	GetMaxNameAttempts() int
}

type Upload struct{}

var _ UploadConfig = Upload{}

func (Upload) GetMaxFileSize() int64 {
	return GetEnvInt64(maxFileSizeVar, 100*MB)
}

func (Upload) GetTempDir() string {
	return GetEnv(tempDirVar, "./temp")
}

func (Upload) GetMaxArchiveEntries() int {
	return int(GetEnvInt64(maxArchiveEntriesVar, 10000))
}

func (Upload) GetMaxEntrySize() int64 {
	return GetEnvInt64(maxEntrySizeVar, 50*MB)
}

func (Upload) GetMaxNameAttempts() int {
	return 100
}
