package domain

import "errors"

var (
	// ErrInvalidRunOptions indicates operator input that fails validation.
	ErrInvalidRunOptions = errors.New("invalid run options")
	// ErrMissingCredentials indicates the parent account credentials are not set.
	ErrMissingCredentials = errors.New("provider credentials not configured")
	// ErrNoSupportingDocument indicates the customer profile has no regulatory
	// document assignment to take the business address from.
	ErrNoSupportingDocument = errors.New("no supporting document assigned to customer profile")
	// ErrNoAddress indicates the supporting document references no address.
	ErrNoAddress = errors.New("supporting document has no address")
)
