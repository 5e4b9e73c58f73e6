package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ErrCredentialsMissing means no usable authentication context was found.
var ErrCredentialsMissing = errors.New("credentials missing")

// ProviderError is returned when the provider API rejected a call.
type ProviderError struct {
	Op      string
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: provider error [%s]: %s", e.Op, e.Code, e.Message)
}

// TransientIOError wraps a network or transport failure.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	return fmt.Sprintf("%s: transient i/o error: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

// Error classifications reported by Classification.
const (
	ClassCredentialsMissing = "credentials_missing"
	ClassProviderError      = "provider_error"
	ClassTransientIO        = "transient_io"
	ClassUnknown            = "unknown"
)

// Classification names the taxonomy bucket of a fetch error.
func Classification(err error) string {
	var providerErr *ProviderError
	var ioErr *TransientIOError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCredentialsMissing):
		return ClassCredentialsMissing
	case errors.As(err, &providerErr):
		return ClassProviderError
	case errors.As(err, &ioErr):
		return ClassTransientIO
	default:
		return ClassUnknown
	}
}

// Classify maps an SDK error returned by op onto the fetch error taxonomy.
// Errors that are already classified pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classification(err) != ClassUnknown {
		return err
	}

	var signErr *v4.SigningError
	if errors.As(err, &signErr) || strings.Contains(err.Error(), "retrieve credentials") ||
		strings.Contains(err.Error(), "get identity") {
		return fmt.Errorf("%s: %w: %v", op, ErrCredentialsMissing, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Op: op, Code: apiErr.ErrorCode(), Message: apiErr.ErrorMessage()}
	}

	var sendErr *smithyhttp.RequestSendError
	var netErr net.Error
	if errors.As(err, &sendErr) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransientIOError{Op: op, Err: err}
	}

	return fmt.Errorf("%s: %w", op, err)
}
