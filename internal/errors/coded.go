package errors

// Code is a stable, user-facing error identifier
type Code string

const (
	CodeNoFile                  Code = "NO_FILE"
	CodeInvalidProjectName      Code = "INVALID_PROJECT_NAME"
	CodeInvalidFileType         Code = "INVALID_FILE_TYPE"
	CodeFileTooLarge            Code = "FILE_TOO_LARGE"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeNameCollisionExhausted  Code = "NAME_COLLISION_EXHAUSTED"
	CodeArchiveExtraction       Code = "ARCHIVE_EXTRACTION_FAILED"
	CodeRateLimitExceeded       Code = "RATE_LIMIT_EXCEEDED"
	CodeRepositoryCreation      Code = "REPOSITORY_CREATION_FAILED"
	CodeFileUpload              Code = "FILE_UPLOAD_FAILED"
	CodeUploadError             Code = "UPLOAD_ERROR"
	CodeInternal                Code = "INTERNAL_ERROR"
	CodeNotFound                Code = "NOT_FOUND"
	CodeAuthenticationFailed    Code = "AUTHENTICATION_FAILED"
	CodeUpstreamCredentialError Code = "GITHUB_AUTH_FAILED"
)

// Error carries a code and message meant for the client alongside the underlying cause
type Error struct {
	Code    Code
	Message string
	Err     error
}

// New creates a coded error
func New(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Code) + ": " + e.Message
	}
	return string(e.Code) + ": " + e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

var sentinelCodes = []struct {
	target error
	code   Code
}{
	{ErrNoFile, CodeNoFile},
	{ErrInvalidProjectName, CodeInvalidProjectName},
	{ErrInvalidFileType, CodeInvalidFileType},
	{ErrFileTooLarge, CodeFileTooLarge},
	{ErrNameCollisionExhausted, CodeNameCollisionExhausted},
	{ErrArchiveExtraction, CodeArchiveExtraction},
	{ErrUpstreamRateLimit, CodeRateLimitExceeded},
	{ErrRepositoryCreation, CodeRepositoryCreation},
	{ErrFileWrite, CodeFileUpload},
	{ErrUpstreamUnauthorized, CodeUpstreamCredentialError},
	{ErrSessionNotFound, CodeUnauthorized},
	{ErrSessionExpired, CodeUnauthorized},
	{ErrInvalidToken, CodeUnauthorized},
	{ErrNotFound, CodeNotFound},
}

// CodeOf returns the code of the first coded error in err's chain, falling back
// to the sentinel taxonomy and finally to CodeUploadError.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var coded *Error
	if As(err, &coded) {
		return coded.Code
	}
	for _, sc := range sentinelCodes {
		if Is(err, sc.target) {
			return sc.code
		}
	}
	return CodeUploadError
}
