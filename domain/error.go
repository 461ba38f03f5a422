// Package domain defines error types for the storefront client.
package domain

import (
	"errors"
	"fmt"
)

// ItemNotFoundError is returned when a cart line with the given product ID is not found
type ItemNotFoundError struct {
	ProductID string
}

// Error implements the error interface for ItemNotFoundError
func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("cart item not found: productId=%s", e.ProductID)
}

// Is allows proper error type checking with errors.Is()
func (e *ItemNotFoundError) Is(target error) bool {
	_, ok := target.(*ItemNotFoundError)
	return ok
}

// InvalidQuantityError is returned when a requested quantity violates the line bounds
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
	Reason    string
}

// Error implements the error interface for InvalidQuantityError
func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: productId=%s, quantity=%d, reason=%s", e.ProductID, e.Quantity, e.Reason)
}

// Is allows proper error type checking with errors.Is()
func (e *InvalidQuantityError) Is(target error) bool {
	_, ok := target.(*InvalidQuantityError)
	return ok
}

// ValidationError is returned when form-level input fails validation before any network call
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is allows proper error type checking with errors.Is()
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// APIError is returned when the backend answers a request with a non-2xx
// status. Message carries the server-provided message when one was given.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface for APIError
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: status=%d", e.Status)
	}
	return fmt.Sprintf("request failed: status=%d, message=%s", e.Status, e.Message)
}

// Is allows proper error type checking with errors.Is()
func (e *APIError) Is(target error) bool {
	_, ok := target.(*APIError)
	return ok
}

// OTPExpiredError is returned when a time-boxed verification code has
// expired; the flow is blocked until a new code is requested.
type OTPExpiredError struct{}

// Error implements the error interface for OTPExpiredError
func (e *OTPExpiredError) Error() string {
	return "verification code expired: request a new code"
}

// Is allows proper error type checking with errors.Is()
func (e *OTPExpiredError) Is(target error) bool {
	_, ok := target.(*OTPExpiredError)
	return ok
}

// Helper functions for creating errors with context

// NewItemNotFoundError creates a new ItemNotFoundError
func NewItemNotFoundError(productID string) error {
	return &ItemNotFoundError{ProductID: productID}
}

// NewInvalidQuantityError creates a new InvalidQuantityError
func NewInvalidQuantityError(productID string, quantity int, reason string) error {
	return &InvalidQuantityError{ProductID: productID, Quantity: quantity, Reason: reason}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NewAPIError creates a new APIError
func NewAPIError(status int, message string) error {
	return &APIError{Status: status, Message: message}
}

// NewOTPExpiredError creates a new OTPExpiredError
func NewOTPExpiredError() error {
	return &OTPExpiredError{}
}

// Type assertion helpers for use with errors.As()

// IsItemNotFoundError checks if an error is an ItemNotFoundError
func IsItemNotFoundError(err error) bool {
	var inf *ItemNotFoundError
	return errors.As(err, &inf)
}

// IsInvalidQuantityError checks if an error is an InvalidQuantityError
func IsInvalidQuantityError(err error) bool {
	var iqe *InvalidQuantityError
	return errors.As(err, &iqe)
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAPIError checks if an error is an APIError
func IsAPIError(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// IsOTPExpiredError checks if an error is an OTPExpiredError
func IsOTPExpiredError(err error) bool {
	var oe *OTPExpiredError
	return errors.As(err, &oe)
}
