package image

import (
	"context"
	"fmt"
	"net/http"

	"photostyler/internal/domain"
)

// Request is the normalized input handed to any image provider.
// ImageBase64, when present, carries the user's reference photo either as a
// bare base64 payload or a full data URI.
type Request struct {
	Prompt      string
	ImageBase64 string
	Options     domain.GenerationOptions
	Config      domain.ModelConfig
}

// Image is a single generated image. URL is either a remote http(s)
// location or a data URI embedding the bytes; callers treat both the same.
type Image struct {
	URL string `json:"url"`
}

// Result is the provider-independent outcome of one generation call.
type Result struct {
	Images []Image `json:"images"`
}

// Generator is the contract implemented by all image providers.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// ErrorKind classifies a provider failure for user-facing translation.
// The raw provider response never travels past the adapter.
type ErrorKind string

const (
	KindInvalidKey   ErrorKind = "invalid_key"
	KindAccessDenied ErrorKind = "access_denied"
	KindRateLimited  ErrorKind = "rate_limited"
	KindServerError  ErrorKind = "server_error"
	KindBadRequest   ErrorKind = "bad_request"
	KindNetwork      ErrorKind = "network"
	KindUnknown      ErrorKind = "unknown"
)

// ClassifyStatus maps an HTTP status code to an error kind. Both providers
// share the same status semantics.
func ClassifyStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return KindInvalidKey
	case status == http.StatusForbidden:
		return KindAccessDenied
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= http.StatusInternalServerError:
		return KindServerError
	case status >= http.StatusBadRequest:
		return KindBadRequest
	default:
		return KindUnknown
	}
}

// StatusError reports a non-success HTTP response from a provider.
type StatusError struct {
	Provider string
	Status   int
	Kind     ErrorKind
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d (%s)", e.Provider, e.Status, e.Kind)
}

// NewStatusError builds a StatusError with the kind derived from the code.
func NewStatusError(provider string, status int) *StatusError {
	return &StatusError{Provider: provider, Status: status, Kind: ClassifyStatus(status)}
}

// NetworkError reports a transport-level failure (DNS, refused connection,
// timeout) as opposed to an HTTP-level one.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
