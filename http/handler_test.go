package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/imgtransfer"
	imghttp "github.com/sagarc03/imgtransfer/http"
	"github.com/sagarc03/imgtransfer/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context) (imgtransfer.ListResult, error) {
	args := m.Called(ctx)
	return args.Get(0).(imgtransfer.ListResult), args.Error(1)
}

func (m *MockService) Upload(ctx context.Context, obj imgtransfer.UploadObject, content io.Reader) (imgtransfer.UploadResult, error) {
	args := m.Called(ctx, obj, content)
	return args.Get(0).(imgtransfer.UploadResult), args.Error(1)
}

func (m *MockService) Download(ctx context.Context, key string) (imgtransfer.Object, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(imgtransfer.Object), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func newRouter(service *MockService) http.Handler {
	return imghttp.NewHandler(&imghttp.HandlerConfig{}, service).Router()
}

// multipartBody builds a form with a single file part.
func multipartBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return body, mw.FormDataContentType()
}

func TestHandler_List(t *testing.T) {
	service := new(MockService)

	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.On("List", mock.Anything).Return(imgtransfer.ListResult{
		Name:     "images",
		KeyCount: 1,
		Contents: []imgtransfer.ObjectSummary{
			{Key: "cat.png", Size: 10, LastModified: modified, ETag: `"abc"`, StorageClass: "STANDARD"},
		},
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result imgtransfer.ListResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "images", result.Name)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "cat.png", result.Contents[0].Key)
	assert.Equal(t, int64(10), result.Contents[0].Size)

	service.AssertExpectations(t)
}

func TestHandler_List_EmptyBucketKeepsShape(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return(imgtransfer.ListResult{
		Name:     "images",
		Contents: []imgtransfer.ObjectSummary{},
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Name":"images","KeyCount":0,"IsTruncated":false,"Contents":[]}`, rec.Body.String())
}

func TestHandler_List_BackendUnavailable(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return(imgtransfer.ListResult{},
		fmt.Errorf("list objects: %w", imgtransfer.ErrBackendUnavailable))

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Service Unavailable", rec.Body.String())
}

func TestHandler_Upload(t *testing.T) {
	service := new(MockService)

	var received []byte
	service.On("Upload", mock.Anything, imgtransfer.UploadObject{Key: "cat.png", ContentType: "image/png"}, mock.Anything).
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(2).(io.Reader))
			require.NoError(t, err)
			received = data
		}).
		Return(imgtransfer.UploadResult{Key: "cat.png", ContentType: "image/png", Size: 10}, nil)

	body, contentType := multipartBody(t, "image", "cat.png", "image/png", []byte("0123456789"))
	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "File uploaded successfully.", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("0123456789"), received)
	service.AssertExpectations(t)
}

func TestHandler_Upload_SkipsOtherParts(t *testing.T) {
	service := new(MockService)
	service.On("Upload", mock.Anything, mock.MatchedBy(func(obj imgtransfer.UploadObject) bool {
		return obj.Key == "dog.jpg"
	}), mock.Anything).Return(imgtransfer.UploadResult{}, nil)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("caption", "a dog"))
	fw, err := mw.CreateFormFile("image", "dog.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("woof"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/images", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()

	newRouter(service).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestHandler_Upload_BadRequests(t *testing.T) {
	tt := []struct {
		Name string
		Body func(t *testing.T) (io.Reader, string)
	}{
		{
			Name: "missing image field",
			Body: func(t *testing.T) (io.Reader, string) {
				return multipartBody(t, "photo", "cat.png", "image/png", []byte("x"))
			},
		},
		{
			Name: "image field without file name",
			Body: func(t *testing.T) (io.Reader, string) {
				body := &bytes.Buffer{}
				mw := multipart.NewWriter(body)
				require.NoError(t, mw.WriteField("image", "not a file"))
				require.NoError(t, mw.Close())
				return body, mw.FormDataContentType()
			},
		},
		{
			Name: "not multipart",
			Body: func(t *testing.T) (io.Reader, string) {
				return strings.NewReader("raw bytes"), "application/octet-stream"
			},
		},
		{
			Name: "malformed multipart",
			Body: func(t *testing.T) (io.Reader, string) {
				return strings.NewReader("garbage without boundary"), "multipart/form-data; boundary=xyz"
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			service := new(MockService)

			body, contentType := tc.Body(t)
			req := httptest.NewRequest(http.MethodPost, "/images", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			newRouter(service).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Bad Request", rec.Body.String())
			service.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Upload_ServiceErrors(t *testing.T) {
	tt := []struct {
		Name   string
		Err    error
		Status int
	}{
		{Name: "invalid key", Err: imgtransfer.ErrInvalidInput, Status: http.StatusBadRequest},
		{Name: "permission denied", Err: imgtransfer.ErrPermissionDenied, Status: http.StatusForbidden},
		{Name: "backend unavailable", Err: imgtransfer.ErrBackendUnavailable, Status: http.StatusServiceUnavailable},
		{Name: "internal", Err: imgtransfer.ErrInternal, Status: http.StatusInternalServerError},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			service := new(MockService)
			service.On("Upload", mock.Anything, mock.Anything, mock.Anything).
				Return(imgtransfer.UploadResult{}, fmt.Errorf("upload object cat.png: %w", tc.Err))

			body, contentType := multipartBody(t, "image", "cat.png", "image/png", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/images", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			newRouter(service).ServeHTTP(rec, req)

			assert.Equal(t, tc.Status, rec.Code)
		})
	}
}

func TestHandler_Download(t *testing.T) {
	service := new(MockService)
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	service.On("Download", mock.Anything, "cat.png").Return(imgtransfer.Object{
		Key:           "cat.png",
		ContentType:   "image/png",
		ContentLength: 10,
		ETag:          `"abc"`,
		LastModified:  modified,
		Body:          io.NopCloser(strings.NewReader("0123456789")),
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/cat.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0123456789", rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Equal(t, `"abc"`, rec.Header().Get("ETag"))
	assert.Equal(t, "Wed, 01 May 2024 12:00:00 GMT", rec.Header().Get("Last-Modified"))
	service.AssertExpectations(t)
}

func TestHandler_Download_UnknownLengthAndType(t *testing.T) {
	service := new(MockService)
	service.On("Download", mock.Anything, "notes.txt").Return(imgtransfer.Object{
		Key:           "notes.txt",
		ContentLength: -1,
		Body:          io.NopCloser(strings.NewReader("hello")),
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/notes.txt", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Content-Length"))
}

func TestHandler_Download_NotFound(t *testing.T) {
	service := new(MockService)
	service.On("Download", mock.Anything, "missing.png").
		Return(imgtransfer.Object{}, fmt.Errorf("download object missing.png: %w", imgtransfer.ErrNotFound))

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/missing.png", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File Not Found", rec.Body.String())
}

func TestHandler_Download_DecodesEscapedName(t *testing.T) {
	service := new(MockService)
	service.On("Download", mock.Anything, "a/b.png").
		Return(imgtransfer.Object{}, imgtransfer.ErrInvalidInput)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/a%2Fb.png", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertExpectations(t)
}

func TestHandler_Download_SpaceInName(t *testing.T) {
	service := new(MockService)
	service.On("Download", mock.Anything, "my cat.png").Return(imgtransfer.Object{
		ContentType:   "image/png",
		ContentLength: 1,
		Body:          io.NopCloser(strings.NewReader("x")),
	}, nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images/my%20cat.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestHandler_Delete(t *testing.T) {
	service := new(MockService)
	service.On("Delete", mock.Anything, "cat.png").Return(nil)

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/images/cat.png", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Object deleted", rec.Body.String())
	service.AssertExpectations(t)
}

func TestHandler_Delete_NotFound(t *testing.T) {
	service := new(MockService)
	service.On("Delete", mock.Anything, "missing.png").
		Return(fmt.Errorf("delete object missing.png: %w", imgtransfer.ErrNotFound))

	rec := httptest.NewRecorder()
	newRouter(service).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/images/missing.png", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File Not Found", rec.Body.String())
}

func TestHandler_RequestTimeout(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(imgtransfer.ListResult{}, fmt.Errorf("list objects: %w", context.DeadlineExceeded))

	handler := imghttp.NewHandler(&imghttp.HandlerConfig{RequestTimeout: 10 * time.Millisecond}, service)

	rec := httptest.NewRecorder()
	handler.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandler_Healthz(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(new(MockService)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHandler_UnknownRoute(t *testing.T) {
	router := newRouter(new(MockService))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/images/cat.png", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_CORS(t *testing.T) {
	service := new(MockService)
	service.On("List", mock.Anything).Return(imgtransfer.ListResult{Contents: []imgtransfer.ObjectSummary{}}, nil)

	handler := imghttp.NewHandler(&imghttp.HandlerConfig{
		CORS: imghttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		},
	}, service)
	router := handler.Router()

	req := httptest.NewRequest(http.MethodOptions, "/images", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "DELETE")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")

	req = httptest.NewRequest(http.MethodGet, "/images", nil)
	req.Header.Set("Origin", "http://example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHandler_Metrics(t *testing.T) {
	service := new(MockService)
	service.On("Delete", mock.Anything, "cat.png").Return(nil)

	handler := imghttp.NewHandler(&imghttp.HandlerConfig{
		Metrics:     metrics.New(),
		MetricsPath: "/internal/metrics",
	}, service)
	router := handler.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/images/cat.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `imgtransfer_http_requests_total{code="200",method="DELETE",route="/images/{imageName}"} 1`)
}
