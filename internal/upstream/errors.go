package upstream

import "fmt"

// ErrKind classifies upstream failures for the view layer: network,
// validation, auth, not-found or server.
type ErrKind string

const (
	KindNetwork    ErrKind = "NETWORK"
	KindValidation ErrKind = "VALIDATION"
	KindAuth       ErrKind = "AUTH"
	KindNotFound   ErrKind = "NOT_FOUND"
	KindServer     ErrKind = "SERVER"
)

// APIError is the typed error returned by every upstream call. The data layer
// records it in the owning slice's error field; it is never thrown past that
// boundary.
type APIError struct {
	Kind    ErrKind
	Status  int
	Message string
	Fields  map[string]string
	cause   error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// Retryable reports whether a user-initiated retry of the same call makes
// sense. There is no automatic retry anywhere in the data layer.
func (e *APIError) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindServer
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: "no response received", cause: err}
}

func statusError(status int, message string, fields map[string]string) *APIError {
	kind := KindServer
	switch {
	case status == 401 || status == 403:
		kind = KindAuth
	case status == 404:
		kind = KindNotFound
	case status >= 400 && status < 500:
		kind = KindValidation
	}
	return &APIError{Kind: kind, Status: status, Message: message, Fields: fields}
}

// KindOf extracts the error kind, or "" when err is not an APIError.
func KindOf(err error) ErrKind {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr.Kind
	}
	return ""
}
