package swagger

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"
)

// Parse reduces a raw Swagger 2.0 document to a SpecIndex. A structurally
// broken document (undecodable JSON, no paths, an operation without an ID,
// an allOf chain pointing at a missing definition) is a fatal parse error:
// the engine refuses to start on a spec it cannot trust.
func Parse(raw []byte) (*SpecIndex, error) {
	var doc openapi2.T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing API specification: %w", err)
	}
	if doc.BasePath == "" {
		return nil, fmt.Errorf("parsing API specification: document has no basePath")
	}
	if len(doc.Paths) == 0 {
		return nil, fmt.Errorf("parsing API specification: document has no paths")
	}

	ix := &SpecIndex{
		Operations: make(map[string]*Operation),
		Models:     make(map[string]*openapi3.SchemaRef, len(doc.Definitions)),
	}

	for name, def := range doc.Definitions {
		resolved, err := collapseAllOf(name, def, doc.Definitions)
		if err != nil {
			return nil, err
		}
		ix.Models[name] = resolved
	}

	for url, item := range doc.Paths {
		if item == nil {
			continue
		}
		ops := []struct {
			method string
			op     *openapi2.Operation
		}{
			{http.MethodGet, item.Get},
			{http.MethodPost, item.Post},
			{http.MethodPut, item.Put},
			{http.MethodDelete, item.Delete},
		}
		for _, pair := range ops {
			if pair.op == nil {
				continue
			}
			if pair.op.OperationID == "" {
				return nil, fmt.Errorf("parsing API specification: %s %s has no operationId", pair.method, url)
			}
			op, err := buildOperation(ix, &doc, url, pair.method, item, pair.op)
			if err != nil {
				return nil, err
			}
			ix.Operations[op.ID] = op
		}
	}

	return ix, nil
}

// collapseAllOf resolves wrapper models declared solely as
// allOf:[{$ref: base}, ...] by replacing them with the referenced base
// definition. The rest of the system then never sees allOf composition.
func collapseAllOf(name string, def *openapi3.SchemaRef, defs map[string]*openapi3.SchemaRef) (*openapi3.SchemaRef, error) {
	seen := map[string]bool{name: true}
	for def != nil && def.Value != nil && isPureAllOf(def.Value) {
		base := firstAllOfRef(def.Value)
		if base == "" {
			break
		}
		baseName := RefName(base)
		if seen[baseName] {
			return nil, fmt.Errorf("parsing API specification: allOf cycle through model %s", baseName)
		}
		seen[baseName] = true
		next, ok := defs[baseName]
		if !ok {
			return nil, fmt.Errorf("parsing API specification: model %s references missing definition %s", name, baseName)
		}
		def = next
	}
	return def, nil
}

func isPureAllOf(s *openapi3.Schema) bool {
	return len(s.AllOf) > 0 && len(s.Properties) == 0 && s.Type == "" && s.Items == nil && len(s.Enum) == 0
}

func firstAllOfRef(s *openapi3.Schema) string {
	for _, part := range s.AllOf {
		if part != nil && part.Ref != "" {
			return part.Ref
		}
	}
	return ""
}

func buildOperation(ix *SpecIndex, doc *openapi2.T, url, method string, item *openapi2.PathItem, op *openapi2.Operation) (*Operation, error) {
	out := &Operation{
		ID:          op.OperationID,
		Method:      method,
		URL:         doc.BasePath + url,
		PathParams:  make(map[string]ParamSpec),
		QueryParams: make(map[string]ParamSpec),
	}

	// Path-level parameters apply to every method; operation-level entries
	// of the same name take precedence.
	var bodySchema *openapi3.SchemaRef
	for _, params := range [][]*openapi2.Parameter{item.Parameters, op.Parameters} {
		for _, p := range params {
			if p == nil {
				continue
			}
			switch p.In {
			case "path":
				out.PathParams[p.Name] = ParamSpec{Type: p.Type, Required: p.Required}
			case "query":
				out.QueryParams[p.Name] = ParamSpec{Type: p.Type, Required: p.Required}
			case "body":
				bodySchema = p.Schema
			}
		}
	}

	out.ModelName = inferModelName(ix, method, bodySchema, op)
	out.ReturnsMultipleItems = returnsMultipleItems(ix, op)
	out.Multipart = consumesMultipart(op)

	return out, nil
}

func consumesMultipart(op *openapi2.Operation) bool {
	for _, c := range op.Consumes {
		if c == "multipart/form-data" {
			return true
		}
	}
	return false
}

// inferModelName links an operation to the model it operates on.
//
//	GET:      success response $ref, list item ref, or the _File sentinel
//	POST/PUT: body parameter $ref, falling back to the response rule
//	DELETE:   none
func inferModelName(ix *SpecIndex, method string, bodySchema *openapi3.SchemaRef, op *openapi2.Operation) string {
	switch method {
	case http.MethodDelete:
		return ""
	case http.MethodPost, http.MethodPut:
		if bodySchema != nil && bodySchema.Ref != "" {
			return RefName(bodySchema.Ref)
		}
	}
	return modelNameFromResponse(ix, op)
}

func modelNameFromResponse(ix *SpecIndex, op *openapi2.Operation) string {
	schema := successSchema(op)
	if schema == nil {
		return ""
	}
	if schema.Ref != "" {
		return RefName(schema.Ref)
	}
	v := schema.Value
	if v == nil {
		return ""
	}
	// Collection endpoints wrap the item model: properties.items.items.$ref.
	if items, ok := v.Properties["items"]; ok && items != nil && items.Value != nil {
		if inner := items.Value.Items; inner != nil && inner.Ref != "" {
			return RefName(inner.Ref)
		}
	}
	if v.Type == "file" {
		return FileModelName
	}
	return ""
}

// returnsMultipleItems reports whether the success response is a page of
// items. A schema that is neither a $ref nor carries an items property is
// treated as a single-object response.
func returnsMultipleItems(ix *SpecIndex, op *openapi2.Operation) bool {
	schema := successSchema(op)
	if schema == nil {
		return false
	}
	v := ix.Resolve(schema)
	if v == nil {
		return false
	}
	_, ok := v.Properties["items"]
	return ok
}

func successSchema(op *openapi2.Operation) *openapi3.SchemaRef {
	resp, ok := op.Responses["200"]
	if !ok || resp == nil {
		return nil
	}
	return resp.Schema
}
