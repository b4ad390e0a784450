// Package http provides the HTTP front end of the imgtransfer gateway.
//
// The router exposes four endpoints that each forward to a single storage
// backend call:
//
//	GET    /images              list the bucket (JSON)
//	POST   /images              upload the multipart field "image"
//	GET    /images/{imageName}  stream an object
//	DELETE /images/{imageName}  delete an object
//
// plus GET /healthz and, when configured, a Prometheus metrics endpoint.
//
// # Errors
//
// Every handler reports failures through HandleError, which maps the
// imgtransfer sentinel errors to a status code and a fixed plain text
// message:
//
//	*http.MaxBytesError                413
//	imgtransfer.ErrNotFound            404
//	imgtransfer.ErrInvalidInput        400
//	imgtransfer.ErrPermissionDenied    403
//	imgtransfer.ErrBackendUnavailable  503
//	context.DeadlineExceeded           504
//	anything else                      500
//
// # Usage
//
//	handlerCfg := http.HandlerConfig{
//	    MaxUploadSize:  32 << 20,
//	    RequestTimeout: time.Minute,
//	    CORS:           http.CORSConfig{Enabled: true, AllowedOrigins: []string{"*"}},
//	}
//	handler := http.NewHandler(&handlerCfg, service)
//	server := &http.Server{Addr: ":3030", Handler: handler.Router()}
//
// The service parameter must implement the Service interface with List,
// Upload, Download and Delete methods; imgtransfer.GatewayService does.
package http
