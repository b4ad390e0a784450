package imgtransfer

import (
	"mime"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxKeyLength is the longest key accepted, matching the S3 limit.
const MaxKeyLength = 1024

const defaultContentType = "application/octet-stream"

// IsValidKey validates that a key can name an object in the bucket.
// It checks that the key:
//   - is not empty, "." or ".."
//   - is at most MaxKeyLength bytes
//   - is a single segment (no "/" or "\")
//   - is valid UTF-8
//   - does not contain null bytes, control characters (< 0x20) or DEL (0x7f)
//
// Returns true if the key is valid, false otherwise.
func IsValidKey(key string) bool {
	if key == "" || key == "." || key == ".." {
		return false
	}

	if len(key) > MaxKeyLength {
		return false
	}

	if strings.ContainsAny(key, `/\`) {
		return false
	}

	if !utf8.ValidString(key) {
		return false
	}

	for _, r := range key {
		if r < 0x20 || r == 0x7f || (unicode.IsSpace(r) && r != ' ') {
			return false
		}
	}

	return true
}

// DetectContentType returns declared unless it is empty or the generic
// binary type, in which case the type is guessed from the key's extension.
func DetectContentType(key, declared string) string {
	if declared != "" && declared != defaultContentType {
		return declared
	}

	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}

	return defaultContentType
}
