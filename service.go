package imgtransfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// ObjectStore defines the storage backend operations the gateway forwards to.
// Implementations can use S3, any S3-compatible service, or a local directory.
//
// All methods accept a context for cancellation and timeout control.
// Implementations must classify failures by wrapping one of the package
// sentinel errors (ErrNotFound, ErrPermissionDenied, ErrBackendUnavailable,
// ErrInternal) so callers can map them without knowing the backend.
type ObjectStore interface {
	// List returns the first page of objects in the bucket.
	//
	// Returns:
	//   - ListResult: objects as reported by the backend, Contents never nil
	//   - error: any backend error
	List(ctx context.Context) (ListResult, error)

	// Put stores body under obj.Key, overwriting any existing object.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - obj: key and content type of the object
	//   - body: seekable content, read from its current offset
	//   - size: number of bytes in body
	//
	// Returns:
	//   - error: any backend error
	Put(ctx context.Context, obj UploadObject, body io.ReadSeeker, size int64) error

	// Get opens an object for streaming.
	//
	// Returns:
	//   - Object: metadata and body; the caller must close Body
	//   - error: ErrNotFound if the key doesn't exist, or other backend errors
	Get(ctx context.Context, key string) (Object, error)

	// Delete removes an object.
	//
	// Returns:
	//   - error: ErrNotFound if the key doesn't exist, or other backend errors
	Delete(ctx context.Context, key string) error
}

// Stager writes an upload to temporary storage. Every call must produce a
// file that no other call can observe, whatever the uploaded name.
type Stager interface {
	Stage(ctx context.Context, content io.Reader) (StagedFile, error)
}

// GatewayService forwards gateway operations to an ObjectStore.
type GatewayService struct {
	store  ObjectStore
	stager Stager
}

func NewGatewayService(store ObjectStore, stager Stager) (*GatewayService, error) {
	if store == nil {
		return nil, errors.New("new gateway service: store cannot be nil")
	}
	if stager == nil {
		return nil, errors.New("new gateway service: stager cannot be nil")
	}
	return &GatewayService{
		store:  store,
		stager: stager,
	}, nil
}

// List returns the first page of objects in the bucket. An empty bucket
// yields a result with an empty, non-nil Contents slice.
func (s *GatewayService) List(ctx context.Context) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}

	result, err := s.store.List(ctx)
	if err != nil {
		return ListResult{}, fmt.Errorf("list objects: %w", err)
	}

	if result.Contents == nil {
		result.Contents = []ObjectSummary{}
	}
	result.KeyCount = len(result.Contents)

	return result, nil
}

// Upload stages content to a temporary file and forwards it to the store.
//
// The method performs the following steps:
//  1. Validates context is not cancelled
//  2. Validates the key using IsValidKey
//  3. Resolves the content type (declared, or detected from the extension)
//  4. Stages content to a uniquely named temporary file
//  5. Streams the staged file to the store
//
// The staged file is released on every return path. A release failure is
// logged and does not fail an otherwise successful upload.
//
// Error types returned:
//   - ErrInvalidInput: key fails validation
//   - context.Canceled or context.DeadlineExceeded: context was cancelled
//   - Wrapped staging errors (including *http.MaxBytesError from a capped body)
//   - Wrapped store errors
func (s *GatewayService) Upload(ctx context.Context, obj UploadObject, content io.Reader) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload object: %w", err)
	}

	if !IsValidKey(obj.Key) {
		return UploadResult{}, fmt.Errorf("upload object %q: %w: invalid key", obj.Key, ErrInvalidInput)
	}

	obj.ContentType = DetectContentType(obj.Key, obj.ContentType)

	staged, err := s.stager.Stage(ctx, content)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload object %s: stage: %w", obj.Key, err)
	}
	defer func() {
		if relErr := staged.Release(); relErr != nil {
			slog.Warn("failed to release staged upload", "key", obj.Key, "err", relErr)
		}
	}()

	if err := s.store.Put(ctx, obj, staged, staged.Size()); err != nil {
		return UploadResult{}, fmt.Errorf("upload object %s: %w", obj.Key, err)
	}

	return UploadResult{
		Key:         obj.Key,
		ContentType: obj.ContentType,
		Size:        staged.Size(),
	}, nil
}

// Download opens an object for streaming. The caller must close Body.
func (s *GatewayService) Download(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, fmt.Errorf("download object: %w", err)
	}

	if !IsValidKey(key) {
		return Object{}, fmt.Errorf("download object %q: %w: invalid key", key, ErrInvalidInput)
	}

	obj, err := s.store.Get(ctx, key)
	if err != nil {
		return Object{}, fmt.Errorf("download object %s: %w", key, err)
	}

	return obj, nil
}

func (s *GatewayService) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	if !IsValidKey(key) {
		return fmt.Errorf("delete object %q: %w: invalid key", key, ErrInvalidInput)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}

	return nil
}
