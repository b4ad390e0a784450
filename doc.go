// Package imgtransfer provides a thin HTTP gateway in front of a single
// object-storage bucket.
//
// The gateway exposes four operations (list, upload, download, delete) and
// forwards each one to a pluggable ObjectStore. Uploads are staged to a
// uniquely named temporary file before they are forwarded so that the
// backend always receives a seekable body of known length.
//
// # Key Components
//
//   - GatewayService: validates keys, stages uploads and calls the store
//   - ObjectStore: interface for the storage backend (S3, local filesystem)
//   - Stager: interface for temporary upload staging
//
// # Errors
//
// Every backend failure is classified into one of the sentinel errors
// (ErrNotFound, ErrInvalidInput, ErrPermissionDenied, ErrBackendUnavailable,
// ErrInternal) so that the HTTP layer can map them consistently.
//
// # Example Usage
//
//	stager, err := staging.New(os.TempDir())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	service, err := imgtransfer.NewGatewayService(store, stager)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Upload an object
//	result, err := service.Upload(ctx, imgtransfer.UploadObject{Key: "cat.png"}, reader)
//
//	// Download it again
//	obj, err := service.Download(ctx, "cat.png")
//	defer obj.Body.Close()
//
// See the http package for the REST API and the s3store and filesystem
// packages for backend implementations.
package imgtransfer
