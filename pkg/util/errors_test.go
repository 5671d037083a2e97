package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("addNetworkObject", &ValidationReport{
		Required: []string{"value", "destination.port"},
	})

	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected errors.Is(err, ErrValidation) to be true")
	}
	if !strings.Contains(err.Error(), "destination.port") {
		t.Errorf("error message should list missing fields, got: %v", err)
	}
}

func TestValidationReport_Valid(t *testing.T) {
	var nilReport *ValidationReport
	if !nilReport.Valid() {
		t.Errorf("nil report should be valid")
	}

	empty := &ValidationReport{}
	if !empty.Valid() {
		t.Errorf("empty report should be valid")
	}

	bad := &ValidationReport{
		InvalidType: []TypeMismatch{{Path: "value", Expected: "string", Actual: 42}},
	}
	if bad.Valid() {
		t.Errorf("report with findings should be invalid")
	}
	if !strings.Contains(bad.String(), "string") {
		t.Errorf("report string should mention expected type, got %q", bad.String())
	}
}

func TestConfigurationError_CarriesExisting(t *testing.T) {
	existing := map[string]interface{}{"id": "abc", "name": "h1"}
	err := &ConfigurationError{
		Msg:      "An object with the same name but different parameters already exists.",
		Existing: existing,
	}

	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected errors.Is(err, ErrConfiguration) to be true")
	}

	var confErr *ConfigurationError
	wrapped := fmt.Errorf("upsert failed: %w", err)
	if !errors.As(wrapped, &confErr) {
		t.Fatalf("errors.As should find ConfigurationError through wrapping")
	}
	if confErr.Existing["id"] != "abc" {
		t.Errorf("existing object should survive wrapping")
	}
}

func TestServerError(t *testing.T) {
	err := NewServerError(422, map[string]interface{}{"error": "Validation failed"})
	if !errors.Is(err, ErrServer) {
		t.Errorf("expected errors.Is(err, ErrServer) to be true")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("message should include status code, got %q", err.Error())
	}
}

func TestInvalidOperationError(t *testing.T) {
	err := NewInvalidOperationError("upsertAccessRule", "upsert is not supported for this model")
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("expected errors.Is(err, ErrInvalidOperation) to be true")
	}
	if !strings.Contains(err.Error(), "upsertAccessRule") {
		t.Errorf("message should name the operation, got %q", err.Error())
	}
}
