package files

import (
	"path"
	"strings"
)

// SampleSize is the number of leading bytes inspected by IsBinary
const SampleSize = 1024

var binaryExtensions = map[string]struct{}{
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".bin": {}, ".dat": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {}, ".7z": {}, ".rar": {},
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".tiff": {}, ".webp": {}, ".ico": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".xls": {}, ".xlsx": {}, ".ppt": {}, ".pptx": {},
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {}, ".eot": {},
}

// HasBinaryExtension reports whether the extension alone marks p as binary
func HasBinaryExtension(p string) bool {
	_, ok := binaryExtensions[strings.ToLower(path.Ext(p))]
	return ok
}

// IsBinary classifies content by extension, then by the share of NUL bytes
// (over 1%) or other control bytes (over 5%, tab/LF/CR excluded) in the first
// SampleSize bytes of sample.
func IsBinary(p string, sample []byte) bool {
	if HasBinaryExtension(p) {
		return true
	}
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	if len(sample) == 0 {
		return false
	}

	var nulBytes, controlBytes int
	for _, b := range sample {
		switch {
		case b == 0:
			nulBytes++
		case b < 32 && b != '\t' && b != '\n' && b != '\r':
			controlBytes++
		}
	}
	n := float64(len(sample))
	return float64(nulBytes) > n*0.01 || float64(controlBytes) > n*0.05
}
