package clientcli

import "time"

// UploadOptions configures an upload operation.
type UploadOptions struct {
	LocalPath   string
	Name        string // remote image name, defaults to the base name of LocalPath
	ContentType string // optional, auto-detect if empty
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath   string `json:"local_path"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size_bytes"`
	Message     string `json:"message"`
	Err         error  `json:"-"` // nil on success
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Name      string
	LocalPath string // empty = derive from name, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Name         string    `json:"name"`
	LocalPath    string    `json:"local_path"`
	ETag         string    `json:"etag,omitempty"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size_bytes"`
	LastModified time.Time `json:"last_modified,omitzero"`
}

// DeleteOptions configures a delete operation.
type DeleteOptions struct {
	Names []string
}

// DeleteResult represents the result of deleting a single file.
type DeleteResult struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	Err     error  `json:"-"` // nil on success
}

// ListResult mirrors the server's listing envelope.
type ListResult struct {
	Name        string       `json:"Name"`
	KeyCount    int          `json:"KeyCount"`
	IsTruncated bool         `json:"IsTruncated"`
	Contents    []ObjectInfo `json:"Contents"`
}

// ObjectInfo represents metadata for a single object.
type ObjectInfo struct {
	Key          string    `json:"Key"`
	Size         int64     `json:"Size"`
	LastModified time.Time `json:"LastModified"`
	ETag         string    `json:"ETag,omitempty"`
	StorageClass string    `json:"StorageClass,omitempty"`
}

// TotalSize calculates the total size of all objects in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, item := range r.Contents {
		total += item.Size
	}
	return total
}
