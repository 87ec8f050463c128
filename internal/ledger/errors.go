package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrDuplicateAccount   = errors.New("account code already exists")
	ErrImmutableField     = errors.New("field cannot be changed once set")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountHasPostings = errors.New("account has postings")
	ErrVendorNotFound     = errors.New("vendor not found")
	ErrItemNotFound       = errors.New("item not found")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrPurchaseNotFound   = errors.New("shopping item not found")
	ErrSaleNotFound       = errors.New("sell transaction not found")
	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrTaxRateNotFound    = errors.New("tax rate not found")
	ErrAlreadyRefunded    = errors.New("sell transaction already refunded")
	ErrUnbalancedEntry    = errors.New("journal entry does not balance")
	ErrNegativePosting    = errors.New("posting amount is negative")
	ErrServiceUnavailable = errors.New("external service unavailable")
)

// ValidationError reports malformed input to a mutation. It is rejected
// before anything is applied.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Invalid builds a ValidationError for a field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// InvalidWrap builds a ValidationError that also matches a sentinel.
func InvalidWrap(field string, err error, msg string) error {
	return &ValidationError{Field: field, Message: msg, Err: err}
}

// ServiceError is a failure of an external service: the blob store or the
// AI text service. Status is the HTTP status when one was received.
type ServiceError struct {
	Service string
	Status  int
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Service, msg)
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceUnavailable
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a later attempt may succeed.
func (e *ServiceError) Retryable() bool {
	return e.Status == 0 || e.Status == 429 || e.Status >= 500
}
