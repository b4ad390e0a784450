// Package filesystem provides a local directory backend for imgtransfer.
// Objects are plain files in a single flat directory. Writes are atomic
// (temp file then rename) and content types are detected from extensions.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sagarc03/imgtransfer"
)

const tmpPrefix = ".t"

// Store provides file system storage operations.
type Store struct {
	root *os.Root
	name string
}

// NewFileStorage creates a new Store with the given root directory. name is
// reported as the bucket name in listings.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root, name string) *Store {
	return &Store{root: root, name: name}
}

// Get opens a file for reading. Returns imgtransfer.ErrNotFound if the file does not exist.
func (s *Store) Get(ctx context.Context, key string) (imgtransfer.Object, error) {
	if err := ctx.Err(); err != nil {
		return imgtransfer.Object{}, err
	}

	f, err := s.root.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return imgtransfer.Object{}, imgtransfer.ErrNotFound
		}
		return imgtransfer.Object{}, fmt.Errorf("failed to open file: %w: %w", imgtransfer.ErrInternal, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return imgtransfer.Object{}, fmt.Errorf("failed to stat file: %w: %w", imgtransfer.ErrInternal, err)
	}

	if info.IsDir() {
		_ = f.Close()
		return imgtransfer.Object{}, imgtransfer.ErrNotFound
	}

	return imgtransfer.Object{
		Key:           key,
		ContentType:   imgtransfer.DetectContentType(key, ""),
		ContentLength: info.Size(),
		ETag:          etag(info),
		LastModified:  info.ModTime(),
		Body:          f,
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes body to obj.Key using a temp file and rename.
// The declared size is not trusted; the full body is copied. The operation
// respects context cancellation.
func (s *Store) Put(ctx context.Context, obj imgtransfer.UploadObject, body io.ReadSeeker, _ int64) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w: %w", imgtransfer.ErrInternal, createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: body}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w: %w", imgtransfer.ErrInternal, err)
	}

	if err := s.root.Rename(tmpFile, obj.Key); err != nil {
		return fmt.Errorf("failed to rename file: %w: %w", imgtransfer.ErrInternal, err)
	}

	success = true
	return nil
}

// Delete removes a file. Returns imgtransfer.ErrNotFound if the file does not exist.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.root.Remove(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return imgtransfer.ErrNotFound
		}
		return fmt.Errorf("could not delete file: %w: %w", imgtransfer.ErrInternal, err)
	}
	return nil
}

// List reads the root directory and returns every regular file in key
// order. Subdirectories and in-flight temp files are skipped.
func (s *Store) List(ctx context.Context) (imgtransfer.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return imgtransfer.ListResult{}, err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return imgtransfer.ListResult{}, fmt.Errorf("failed to list files: %w: %w", imgtransfer.ErrInternal, err)
	}

	contents := make([]imgtransfer.ObjectSummary, 0, len(dirEntries))
	for _, entry := range dirEntries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tmpPrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// removed between ReadDir and Info
				continue
			}
			return imgtransfer.ListResult{}, fmt.Errorf("list files: %w: %w", imgtransfer.ErrInternal, err)
		}

		if !info.Mode().IsRegular() {
			continue
		}

		contents = append(contents, imgtransfer.ObjectSummary{
			Key:          entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
			ETag:         etag(info),
			StorageClass: "STANDARD",
		})
	}

	return imgtransfer.ListResult{
		Name:     s.name,
		KeyCount: len(contents),
		Contents: contents,
	}, nil
}

func etag(info fs.FileInfo) string {
	return `"` + strconv.FormatInt(info.ModTime().UnixNano(), 16) + "-" + strconv.FormatInt(info.Size(), 16) + `"`
}

func tmpFileName() string {
	return fmt.Sprintf("%s%s", tmpPrefix, uuid.New().String())
}
