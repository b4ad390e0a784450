// Package staging writes incoming uploads to uniquely named temporary files.
// Each staged file lives inside a sandboxed directory, is named by a random
// UUID rather than the client-supplied name, and is removed when released.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sagarc03/imgtransfer"
)

const filePrefix = ".u"

// Stager creates staged files inside a single directory.
type Stager struct {
	root *os.Root
}

// New creates dir if needed and opens it as the staging root.
func New(dir string) (*Stager, error) {
	if dir == "" {
		return nil, errors.New("new stager: directory cannot be empty")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("new stager: create directory: %w", err)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("new stager: open root: %w", err)
	}

	return &Stager{root: root}, nil
}

// Close closes the staging root. Files still staged are left in place.
func (s *Stager) Close() error {
	return s.root.Close()
}

// Sweep removes staged files last modified more than olderThan ago. Files
// are only left behind when the process dies mid-upload. It returns the
// number of files removed.
func (s *Stager) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	entries, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return 0, fmt.Errorf("sweep staging: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	var errs []error

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := s.root.Remove(entry.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	if len(errs) > 0 {
		return removed, fmt.Errorf("sweep staging: %w", errors.Join(errs...))
	}
	return removed, nil
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

// Stage copies content into a new temporary file and rewinds it. On any
// failure the partial file is removed before returning.
func (s *Stager) Stage(ctx context.Context, content io.Reader) (imgtransfer.StagedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := tmpFileName()
	f, err := s.root.Create(name)
	if err != nil {
		return nil, fmt.Errorf("could not create staging file: %w", err)
	}

	staged := &File{file: f, name: name, root: s.root}

	success := false
	defer func() {
		if !success {
			if relErr := staged.Release(); relErr != nil {
				slog.Warn("failed to remove staging file", "file", name, "err", relErr)
			}
		}
	}()

	size, err := io.Copy(f, &ctxReader{ctx: ctx, r: content})
	if err != nil {
		return nil, fmt.Errorf("could not copy upload contents: %w", err)
	}

	if err := f.Sync(); err != nil {
		return nil, fmt.Errorf("could not sync staging file: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("could not rewind staging file: %w", err)
	}

	staged.size = size
	success = true

	return staged, nil
}

// File is a staged upload. It reads from the underlying temporary file.
type File struct {
	file *os.File
	name string
	root *os.Root
	size int64

	once   sync.Once
	relErr error
}

func (f *File) Read(p []byte) (int, error) {
	return f.file.Read(p)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}

// Size returns the number of bytes staged.
func (f *File) Size() int64 {
	return f.size
}

// Name returns the file name relative to the staging directory.
func (f *File) Name() string {
	return f.name
}

// Release closes and removes the staged file. Subsequent calls return the
// result of the first one.
func (f *File) Release() error {
	f.once.Do(func() {
		closeErr := f.file.Close()
		rmErr := f.root.Remove(f.name)
		if rmErr != nil && errors.Is(rmErr, os.ErrNotExist) {
			rmErr = nil
		}
		f.relErr = errors.Join(closeErr, rmErr)
	})
	return f.relErr
}

func tmpFileName() string {
	return filePrefix + uuid.New().String()
}
