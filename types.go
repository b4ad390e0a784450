package imgtransfer

import (
	"fmt"
	"io"
	"time"
)

// ObjectSummary describes a single object in a listing.
type ObjectSummary struct {
	Key          string    `json:"Key"`
	Size         int64     `json:"Size"`
	LastModified time.Time `json:"LastModified"`
	ETag         string    `json:"ETag,omitempty"`
	StorageClass string    `json:"StorageClass,omitempty"`
}

// ListResult is the first page of a bucket listing. Field names follow the
// backend's envelope so existing callers keep working.
type ListResult struct {
	Name        string          `json:"Name"`
	KeyCount    int             `json:"KeyCount"`
	IsTruncated bool            `json:"IsTruncated"`
	Contents    []ObjectSummary `json:"Contents"`
}

// Object is a retrieved object. Body must be closed by the caller.
type Object struct {
	Key           string
	ContentType   string
	ContentLength int64 // -1 when unknown
	ETag          string
	LastModified  time.Time
	Body          io.ReadCloser
}

type UploadObject struct {
	Key         string
	ContentType string
}

type UploadResult struct {
	Key         string
	ContentType string
	Size        int64
}

// StagedFile is an upload written to temporary storage.
type StagedFile interface {
	io.ReadSeeker
	Size() int64
	// Release closes and removes the temporary file. It is safe to call more than once.
	Release() error
}

// StorageBackend selects where objects live.
type StorageBackend string

const (
	BackendS3         StorageBackend = "s3"
	BackendFilesystem StorageBackend = "filesystem"
)

func (b StorageBackend) IsValid() bool {
	switch b {
	case BackendS3, BackendFilesystem:
		return true
	default:
		return false
	}
}

// ParseStorageBackend converts a config value to a StorageBackend.
// Matching is exact; "S3" is rejected.
func ParseStorageBackend(s string) (StorageBackend, error) {
	b := StorageBackend(s)
	if !b.IsValid() {
		return "", fmt.Errorf("invalid storage backend %q: must be one of %s, %s", s, BackendS3, BackendFilesystem)
	}
	return b, nil
}
