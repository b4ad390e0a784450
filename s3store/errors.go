package s3store

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/sagarc03/imgtransfer"
)

var (
	notFoundCodes = map[string]bool{
		"NoSuchKey": true,
		"NotFound":  true,
	}
	deniedCodes = map[string]bool{
		"AccessDenied":          true,
		"AllAccessDisabled":     true,
		"Forbidden":             true,
		"InvalidAccessKeyId":    true,
		"SignatureDoesNotMatch": true,
		"ExpiredToken":          true,
	}
	unavailableCodes = map[string]bool{
		"InternalError":      true,
		"RequestTimeout":     true,
		"ServiceUnavailable": true,
		"SlowDown":           true,
		"Throttling":         true,
	}
)

// classify returns the imgtransfer sentinel that best describes err.
func classify(err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return imgtransfer.ErrNotFound
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return imgtransfer.ErrInternal
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case notFoundCodes[code]:
			return imgtransfer.ErrNotFound
		case deniedCodes[code]:
			return imgtransfer.ErrPermissionDenied
		case unavailableCodes[code]:
			return imgtransfer.ErrBackendUnavailable
		case code == "NoSuchBucket":
			return imgtransfer.ErrInternal
		}
	}

	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == http.StatusNotFound:
			return imgtransfer.ErrNotFound
		case status == http.StatusForbidden:
			return imgtransfer.ErrPermissionDenied
		case status >= http.StatusInternalServerError:
			return imgtransfer.ErrBackendUnavailable
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return imgtransfer.ErrBackendUnavailable
	}

	return imgtransfer.ErrInternal
}

// wrapError annotates err with the operation and its classification while
// keeping the original error in the chain. Context cancellation and
// expired deadlines belong to the caller and pass through unclassified.
func wrapError(op, bucket, key string, err error) error {
	target := bucket
	if key != "" {
		target = bucket + "/" + key
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s %s: %w", op, target, err)
	}
	return fmt.Errorf("%s %s: %w: %w", op, target, classify(err), err)
}
