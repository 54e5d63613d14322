package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports missing or malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// NotFoundError reports an unknown shop, theme or installation
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

// ExternalAPIError wraps a failed or non-success call to the platform or the language model
type ExternalAPIError struct {
	Op     string
	Status int
	Err    error
}

func (e *ExternalAPIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("external API call %s failed with status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("external API call %s failed: %v", e.Op, e.Err)
}

func (e *ExternalAPIError) Unwrap() error { return e.Err }

// PublicMessage is safe to return to API clients
func (e *ExternalAPIError) PublicMessage() string {
	return "external API call failed: " + e.Op
}

// ProvisionError reports that both provisioning mechanisms failed
type ProvisionError struct {
	Shop     string
	Primary  error
	Fallback error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("widget provisioning failed for %s: platform-hook: %v; asset-injection: %v", e.Shop, e.Primary, e.Fallback)
}

func (e *ProvisionError) Unwrap() error { return e.Fallback }

// ConflictError reports that another operation holds the per-shop provisioning lease
type ConflictError struct {
	Key string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("operation already in progress: %s", e.Key)
}

// ErrLeaseHeld is returned by lockers when a lease is owned by someone else
var ErrLeaseHeld = errors.New("lease held")

// NewValidationError is a shorthand for a missing required field
func NewValidationError(field string) error {
	return &ValidationError{Field: field}
}

// NewNotFoundError is a shorthand constructor
func NewNotFoundError(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}
