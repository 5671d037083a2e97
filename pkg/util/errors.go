// Package util provides utility functions and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure kinds the engine distinguishes.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrConfiguration      = errors.New("configuration conflict")
	ErrServer             = errors.New("server error")
	ErrUnexpectedResponse = errors.New("unexpected response")
	ErrConnection         = errors.New("connection failed")

	// ErrCheckMode signals that a mutating call was suppressed because check
	// mode is enabled. It is not a failure; callers translate it to a
	// changed=false result.
	ErrCheckMode = errors.New("check mode: mutation suppressed")
)

// TypeMismatch records one wrongly-typed field found during validation.
type TypeMismatch struct {
	Path     string      `json:"path"`
	Expected string      `json:"expected_type"`
	Actual   interface{} `json:"actual_value"`
}

// ValidationReport lists missing required fields and type mismatches for one
// validated payload. Paths are dotted (e.g. "destination.port").
type ValidationReport struct {
	Required    []string       `json:"required,omitempty"`
	InvalidType []TypeMismatch `json:"invalid_type,omitempty"`
}

// Valid returns true when the report contains no findings.
func (r *ValidationReport) Valid() bool {
	return r == nil || (len(r.Required) == 0 && len(r.InvalidType) == 0)
}

func (r *ValidationReport) String() string {
	var parts []string
	if len(r.Required) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(r.Required, ", "))
	}
	for _, m := range r.InvalidType {
		parts = append(parts, fmt.Sprintf("field %s must be of %s type, got %v", m.Path, m.Expected, m.Actual))
	}
	return strings.Join(parts, "; ")
}

// ValidationError reports spec-driven parameter validation failures.
type ValidationError struct {
	Operation string
	Report    *ValidationReport
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters for %s operation: %s", e.Operation, e.Report.String())
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error for an operation
func NewValidationError(operation string, report *ValidationReport) *ValidationError {
	return &ValidationError{Operation: operation, Report: report}
}

// InvalidOperationError indicates an operation ID unknown to the device spec,
// or an upsert attempted against a model that does not support it.
type InvalidOperationError struct {
	Operation string
	Reason    string
}

func (e *InvalidOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %s: %s", e.Operation, e.Reason)
	}
	return fmt.Sprintf("operation %s is not supported by the device", e.Operation)
}

func (e *InvalidOperationError) Unwrap() error {
	return ErrInvalidOperation
}

// NewInvalidOperationError creates an invalid-operation error
func NewInvalidOperationError(operation, reason string) *InvalidOperationError {
	return &InvalidOperationError{Operation: operation, Reason: reason}
}

// ConfigurationError represents a logical conflict between the desired state
// and the state found on the device: a duplicate name with a mismatched body,
// multiple duplicates, or a missing referent on edit. When the conflict is a
// duplicate with different contents, Existing carries the object found on the
// device so upsert can recover into an edit.
type ConfigurationError struct {
	Msg      string
	Existing map[string]interface{}
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigurationError creates a configuration error without an attached object
func NewConfigurationError(msg string) *ConfigurationError {
	return &ConfigurationError{Msg: msg}
}

// ServerError surfaces a non-success HTTP response that the engine does not
// recover from. Response holds the decoded error body when it was JSON.
type ServerError struct {
	StatusCode int
	Response   map[string]interface{}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server returned HTTP %d: %v", e.StatusCode, e.Response)
}

func (e *ServerError) Unwrap() error {
	return ErrServer
}

// NewServerError creates a server error from a status code and decoded body
func NewServerError(statusCode int, response map[string]interface{}) *ServerError {
	return &ServerError{StatusCode: statusCode, Response: response}
}
