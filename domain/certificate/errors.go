package certificate

import (
	"context"
	"errors"
	"fmt"

	"github.com/prasetyowira/certgen/constant"
)

var (
	// ErrInput marks bad caller input detected before any rendering starts.
	ErrInput = errors.New(constant.ErrInvalidRequest)
	// ErrResourceUnavailable marks a font that could not be resolved or parsed.
	ErrResourceUnavailable = errors.New(constant.ErrFontUnavailable)
	// ErrEncoding marks a verification payload that does not fit in a QR symbol.
	ErrEncoding = errors.New(constant.ErrPayloadTooLarge)
	// ErrIO marks a certificate that could not be persisted to disk.
	ErrIO = errors.New(constant.ErrWriteFailure)

	ErrEmptyHash           = errors.New(constant.ErrEmptyHash)
	ErrCertificateNotFound = errors.New(constant.ErrCertificateNotFound)
	ErrCertificateExists   = errors.New(constant.ErrCertificateExists)
	ErrInvalidPayload      = errors.New(constant.ErrInvalidPayload)
)

// BatchError reports which attendee stopped a batch.
type BatchError struct {
	Index int
	Name  string
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("attendee #%d (%q): %v", e.Index, e.Name, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// errorCode maps a failure to the code it is logged under.
func errorCode(err error) (code, kind string) {
	switch {
	case errors.Is(err, ErrEncoding):
		return constant.ErrCodeQREncode, constant.ErrTypeEncoding
	case errors.Is(err, ErrIO):
		return constant.ErrCodeWriteFailure, constant.ErrTypeIO
	case errors.Is(err, ErrInput):
		return constant.ErrCodeInvalidRequest, constant.ErrTypeInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return constant.ErrCodeRenderCanceled, constant.ErrTypeDomain
	default:
		return constant.ErrCodeBatchItem, constant.ErrTypeDomain
	}
}
