// Package swagger reduces the Swagger 2.0 document published by an FDM
// device to a compact index of REST operations and data models, and provides
// a spec-driven parameter validator and operation classifier over that index.
//
// The engine never hard-codes per-model field lists: everything it knows
// about an endpoint comes from this index, so new firmware with new fields
// and models works without code changes.
package swagger

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// FileModelName is the sentinel model name for operations that return raw
// file content instead of a JSON object.
const FileModelName = "_File"

// ParamSpec describes a single path or query parameter of an operation.
type ParamSpec struct {
	Type     string
	Required bool
}

// Operation is one REST endpoint binding: a unique operation ID plus the
// method, URL template and parameters needed to call it.
type Operation struct {
	ID        string
	Method    string // GET, POST, PUT or DELETE
	URL       string // basePath + path, with {param} placeholders
	ModelName string // empty when the operation has no model (e.g. DELETE)

	PathParams  map[string]ParamSpec
	QueryParams map[string]ParamSpec

	// Multipart marks upload endpoints that consume multipart/form-data
	// instead of a JSON body.
	Multipart bool

	// ReturnsMultipleItems marks collection endpoints whose success response
	// is a page: {items: [...], paging: {...}}.
	ReturnsMultipleItems bool
}

// SpecIndex is the parsed form of the device's API specification: operations
// keyed by operation ID and models keyed by model name. It is built once per
// session and treated as immutable afterwards.
type SpecIndex struct {
	Operations map[string]*Operation
	Models     map[string]*openapi3.SchemaRef
}

// Operation returns the operation with the given ID, or nil.
func (ix *SpecIndex) Operation(id string) *Operation {
	return ix.Operations[id]
}

// Model returns the resolved schema for a model name, chasing reference
// chains through the definitions. Returns nil for unknown models.
func (ix *SpecIndex) Model(name string) *openapi3.Schema {
	ref, ok := ix.Models[name]
	if !ok {
		return nil
	}
	return ix.Resolve(ref)
}

// Resolve returns the concrete schema behind ref, following
// "#/definitions/<name>" references through the model index. The chain is
// bounded to guard against reference cycles in a malformed spec.
func (ix *SpecIndex) Resolve(ref *openapi3.SchemaRef) *openapi3.Schema {
	for i := 0; ref != nil && i < maxRefChain; i++ {
		if ref.Ref == "" {
			return ref.Value
		}
		name := RefName(ref.Ref)
		next, ok := ix.Models[name]
		if !ok {
			return nil
		}
		ref = next
	}
	return nil
}

const maxRefChain = 16

// RefName extracts the model name from a "#/definitions/<name>" reference.
func RefName(ref string) string {
	return strings.TrimPrefix(ref, "#/definitions/")
}
