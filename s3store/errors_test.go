package s3store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/sagarc03/imgtransfer"
	imghttp "github.com/sagarc03/imgtransfer/http"
	"github.com/stretchr/testify/assert"
)

func responseError(status int) error {
	return &smithyhttp.ResponseError{
		Response: &smithyhttp.Response{Response: &http.Response{StatusCode: status}},
		Err:      errors.New("http error"),
	}
}

func operationError(err error) error {
	return &smithy.OperationError{ServiceID: "S3", OperationName: "GetObject", Err: err}
}

func TestClassify(t *testing.T) {
	tt := []struct {
		Name string
		Err  error
		Want error
	}{
		{Name: "typed NoSuchKey", Err: operationError(&types.NoSuchKey{}), Want: imgtransfer.ErrNotFound},
		{Name: "typed NotFound", Err: operationError(&types.NotFound{}), Want: imgtransfer.ErrNotFound},
		{Name: "typed NoSuchBucket", Err: operationError(&types.NoSuchBucket{}), Want: imgtransfer.ErrInternal},
		{Name: "generic NoSuchKey code", Err: &smithy.GenericAPIError{Code: "NoSuchKey"}, Want: imgtransfer.ErrNotFound},
		{Name: "access denied", Err: operationError(&smithy.GenericAPIError{Code: "AccessDenied"}), Want: imgtransfer.ErrPermissionDenied},
		{Name: "bad signature", Err: &smithy.GenericAPIError{Code: "SignatureDoesNotMatch"}, Want: imgtransfer.ErrPermissionDenied},
		{Name: "slow down", Err: &smithy.GenericAPIError{Code: "SlowDown"}, Want: imgtransfer.ErrBackendUnavailable},
		{Name: "service unavailable", Err: &smithy.GenericAPIError{Code: "ServiceUnavailable"}, Want: imgtransfer.ErrBackendUnavailable},
		{Name: "generic NoSuchBucket code", Err: &smithy.GenericAPIError{Code: "NoSuchBucket"}, Want: imgtransfer.ErrInternal},
		{Name: "http 404", Err: operationError(responseError(http.StatusNotFound)), Want: imgtransfer.ErrNotFound},
		{Name: "http 403", Err: operationError(responseError(http.StatusForbidden)), Want: imgtransfer.ErrPermissionDenied},
		{Name: "http 502", Err: operationError(responseError(http.StatusBadGateway)), Want: imgtransfer.ErrBackendUnavailable},
		{Name: "http 400", Err: operationError(responseError(http.StatusBadRequest)), Want: imgtransfer.ErrInternal},
		{Name: "request timeout code", Err: &smithy.GenericAPIError{Code: "RequestTimeout"}, Want: imgtransfer.ErrBackendUnavailable},
		{Name: "dial failure", Err: operationError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}), Want: imgtransfer.ErrBackendUnavailable},
		{Name: "unknown", Err: errors.New("boom"), Want: imgtransfer.ErrInternal},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Want, classify(tc.Err))
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Run("keeps sentinel and cause", func(t *testing.T) {
		cause := operationError(&types.NoSuchKey{})
		err := wrapError("get object", "bucket", "cat.png", cause)

		assert.ErrorIs(t, err, imgtransfer.ErrNotFound)
		var nsk *types.NoSuchKey
		assert.ErrorAs(t, err, &nsk)
		assert.Contains(t, err.Error(), "get object bucket/cat.png")
	})

	t.Run("bucket only", func(t *testing.T) {
		err := wrapError("list objects", "bucket", "", errors.New("boom"))
		assert.Contains(t, err.Error(), "list objects bucket:")
	})

	t.Run("cancellation passes through", func(t *testing.T) {
		err := wrapError("get object", "bucket", "cat.png", fmt.Errorf("send: %w", context.Canceled))

		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, imgtransfer.ErrInternal)
		assert.NotErrorIs(t, err, imgtransfer.ErrBackendUnavailable)
	})

	t.Run("expired deadline passes through", func(t *testing.T) {
		err := wrapError("list objects", "bucket", "", operationError(context.DeadlineExceeded))

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NotErrorIs(t, err, imgtransfer.ErrBackendUnavailable)
		assert.NotErrorIs(t, err, imgtransfer.ErrInternal)
	})
}

func TestWrapError_ResponseStatus(t *testing.T) {
	tt := []struct {
		Name   string
		Err    error
		Status int
	}{
		{Name: "expired deadline", Err: operationError(context.DeadlineExceeded), Status: http.StatusGatewayTimeout},
		{Name: "deadline behind retry wrapper", Err: operationError(fmt.Errorf("retry: %w", context.DeadlineExceeded)), Status: http.StatusGatewayTimeout},
		{Name: "missing key", Err: operationError(&types.NoSuchKey{}), Status: http.StatusNotFound},
		{Name: "throttled", Err: operationError(&smithy.GenericAPIError{Code: "SlowDown"}), Status: http.StatusServiceUnavailable},
		{Name: "dial failure", Err: operationError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}), Status: http.StatusServiceUnavailable},
		{Name: "access denied", Err: operationError(&smithy.GenericAPIError{Code: "AccessDenied"}), Status: http.StatusForbidden},
	}

	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			status, _ := imghttp.StatusFor(wrapError("get object", "bucket", "cat.png", tc.Err))
			assert.Equal(t, tc.Status, status)
		})
	}
}
