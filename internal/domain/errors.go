package domain

import "errors"

var (
	ErrNotFound                = errors.New("not found")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidRequest          = errors.New("invalid request")
	ErrConflict                = errors.New("conflict")
	ErrUpstream                = errors.New("upstream failure")
	ErrSignatureMismatch       = errors.New("signature verification failed")
	ErrDonationFinalized       = errors.New("donation already finalized")
	ErrClassificationRejected  = errors.New("project rejected by impact classifier")
	ErrClassificationAmbiguous = errors.New("impact classification ambiguous")
)

// ValidationError carries a user-facing message for an InvalidRequest.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrInvalidRequest }

// Invalid builds a ValidationError for field.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
