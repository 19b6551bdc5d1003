package repositories

import "fmt"

// CartErrorCode enumerates repository error causes for cart persistence.
type CartErrorCode string

const (
	// CartErrorUnknown represents an unspecified failure.
	CartErrorUnknown CartErrorCode = "cart_unknown"
	// CartErrorNotFound indicates no snapshot exists for the cart.
	CartErrorNotFound CartErrorCode = "cart_not_found"
	// CartErrorCorrupt indicates the stored snapshot could not be decoded.
	CartErrorCorrupt CartErrorCode = "cart_corrupt"
	// CartErrorUnavailable indicates the backing store cannot be reached.
	CartErrorUnavailable CartErrorCode = "cart_unavailable"
)

// CartError wraps cart persistence failures with machine readable codes.
type CartError struct {
	Op      string
	Code    CartErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *CartError) Error() string {
	if e == nil {
		return ""
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

// Unwrap exposes the underlying error, if any.
func (e *CartError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound reports whether the error represents a missing snapshot.
func (e *CartError) IsNotFound() bool { return e != nil && e.Code == CartErrorNotFound }

// IsCorrupt reports whether the error represents an undecodable snapshot.
func (e *CartError) IsCorrupt() bool { return e != nil && e.Code == CartErrorCorrupt }

// IsUnavailable reports whether the error represents a backend failure.
func (e *CartError) IsUnavailable() bool { return e != nil && e.Code == CartErrorUnavailable }

// NewCartError constructs a typed cart persistence error.
func NewCartError(op string, code CartErrorCode, message string, err error) *CartError {
	if message == "" {
		message = string(code)
	}
	return &CartError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
