package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sagarc03/imgtransfer"
	"github.com/sagarc03/imgtransfer/metrics"
)

// UploadField is the multipart form field carrying the uploaded file.
const UploadField = "image"

type Service interface {
	List(ctx context.Context) (imgtransfer.ListResult, error)
	Upload(ctx context.Context, obj imgtransfer.UploadObject, content io.Reader) (imgtransfer.UploadResult, error)
	Download(ctx context.Context, key string) (imgtransfer.Object, error)
	Delete(ctx context.Context, key string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// MaxUploadSize caps the upload request body in bytes. Zero means no limit.
	MaxUploadSize int64
	// RequestTimeout bounds each /images request, backend calls included. Zero means no limit.
	RequestTimeout time.Duration
	CORS           CORSConfig
	// Metrics instruments every route when non-nil and is served on MetricsPath.
	Metrics     *metrics.Metrics
	MetricsPath string
}

// Handler provides HTTP handlers for the image gateway.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with the gateway routes mounted under /images.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.Metrics != nil {
		r.Use(h.config.Metrics.Middleware)
	}

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteText(w, http.StatusOK, "ok")
	})

	if h.config.Metrics != nil {
		path := h.config.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, h.config.Metrics.Handler())
	}

	r.Route("/images", func(r chi.Router) {
		r.Use(TimeoutMiddleware(h.config.RequestTimeout))
		r.Get("/", h.handleList)
		r.Post("/", h.handleUpload)
		r.Get("/{imageName}", h.handleDownload)
		r.Delete("/{imageName}", h.handleDelete)
	})

	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.List(r.Context())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		HandleError(w, r, fmt.Errorf("read multipart: %w: %w", imgtransfer.ErrInvalidInput, err))
		return
	}

	part, err := nextUploadPart(mr)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() { _ = part.Close() }()

	obj := imgtransfer.UploadObject{
		Key:         part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
	}

	if _, err := h.service.Upload(r.Context(), obj, part); err != nil {
		HandleError(w, r, err)
		return
	}

	WriteText(w, http.StatusOK, "File uploaded successfully.")
}

// nextUploadPart skips parts until it finds the upload field. The part is
// returned unread so its content can be streamed.
func nextUploadPart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read multipart: %w: missing %q field", imgtransfer.ErrInvalidInput, UploadField)
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, fmt.Errorf("read multipart: %w", err)
			}
			return nil, fmt.Errorf("read multipart: %w: %w", imgtransfer.ErrInvalidInput, err)
		}

		if part.FormName() != UploadField {
			_ = part.Close()
			continue
		}
		if part.FileName() == "" {
			_ = part.Close()
			return nil, fmt.Errorf("read multipart: %w: %q field is not a file", imgtransfer.ErrInvalidInput, UploadField)
		}
		return part, nil
	}
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	key, err := imageName(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	obj, err := h.service.Download(r.Context(), key)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() { _ = obj.Body.Close() }()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = imgtransfer.DetectContentType(key, "")
	}
	w.Header().Set("Content-Type", contentType)
	if obj.ContentLength >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	if obj.ETag != "" {
		w.Header().Set("ETag", obj.ETag)
	}
	if !obj.LastModified.IsZero() {
		w.Header().Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)

	// Headers are gone at this point; a failed copy can only be logged.
	if _, err := io.Copy(w, obj.Body); err != nil {
		logger(r).Warn("download interrupted", "key", key, "err", err)
	}
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, err := imageName(r)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), key); err != nil {
		HandleError(w, r, err)
		return
	}

	WriteText(w, http.StatusOK, "Object deleted")
}

// imageName returns the decoded key from the route. chi matches against
// the escaped path when one is present, so the parameter needs one round of
// unescaping in that case.
func imageName(r *http.Request) (string, error) {
	name := chi.URLParam(r, "imageName")
	if r.URL.RawPath == "" {
		return name, nil
	}

	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", fmt.Errorf("decode image name: %w: %w", imgtransfer.ErrInvalidInput, err)
	}
	return decoded, nil
}
