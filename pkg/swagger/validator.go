package swagger

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/ftdconf/ftdconf/pkg/util"
)

// Validator checks user-supplied parameter bags against the model schemas in
// a SpecIndex. It derives everything from the device specification: required property sets,
// primitive types, nested objects, arrays and enum constraints.
type Validator struct {
	index *SpecIndex
}

// NewValidator creates a validator over the given index.
func NewValidator(index *SpecIndex) *Validator {
	return &Validator{index: index}
}

// ValidateData checks a request body against the operation's model. Only
// POST and PUT bodies are validated; other methods carry no body model.
// Unknown extra fields are ignored for forward compatibility.
func (v *Validator) ValidateData(opID string, body map[string]interface{}) (*util.ValidationReport, error) {
	op := v.index.Operation(opID)
	if op == nil {
		return nil, util.NewInvalidOperationError(opID, "not found in the API specification")
	}
	rep := &util.ValidationReport{}
	if op.Method != http.MethodPost && op.Method != http.MethodPut {
		return rep, nil
	}
	if op.ModelName == "" || op.ModelName == FileModelName {
		return rep, nil
	}
	model := v.index.Model(op.ModelName)
	if model == nil {
		return rep, nil
	}
	v.checkObject(model, body, "", rep, 0)
	sortReport(rep)
	return rep, nil
}

// ValidateQueryParams checks query parameters against the operation spec.
func (v *Validator) ValidateQueryParams(opID string, params map[string]interface{}) (*util.ValidationReport, error) {
	return v.validateParams(opID, params, false)
}

// ValidatePathParams checks path parameters against the operation spec.
func (v *Validator) ValidatePathParams(opID string, params map[string]interface{}) (*util.ValidationReport, error) {
	return v.validateParams(opID, params, true)
}

func (v *Validator) validateParams(opID string, params map[string]interface{}, path bool) (*util.ValidationReport, error) {
	op := v.index.Operation(opID)
	if op == nil {
		return nil, util.NewInvalidOperationError(opID, "not found in the API specification")
	}
	specs := op.QueryParams
	if path {
		specs = op.PathParams
	}

	rep := &util.ValidationReport{}
	for name, ps := range specs {
		if !ps.Required {
			continue
		}
		if val, ok := params[name]; !ok || val == nil {
			rep.Required = append(rep.Required, name)
		}
	}
	for name, val := range params {
		ps, ok := specs[name]
		if !ok || val == nil {
			continue
		}
		if !scalarMatches(ps.Type, val) {
			rep.InvalidType = append(rep.InvalidType, util.TypeMismatch{
				Path: name, Expected: ps.Type, Actual: val,
			})
		}
	}
	sortReport(rep)
	return rep, nil
}

// checkObject validates data against an object schema: required properties
// must be present and non-nil, and every known property is type-checked
// recursively. Depth is bounded so reference cycles cannot recurse forever.
func (v *Validator) checkObject(schema *openapi3.Schema, data map[string]interface{}, prefix string, rep *util.ValidationReport, depth int) {
	if depth > maxRefChain {
		return
	}
	for _, required := range schema.Required {
		if val, ok := data[required]; !ok || val == nil {
			rep.Required = append(rep.Required, joinPath(prefix, required))
		}
	}
	for name, propRef := range schema.Properties {
		val, ok := data[name]
		if !ok || val == nil {
			continue
		}
		v.checkValue(propRef, val, joinPath(prefix, name), rep, depth+1)
	}
}

func (v *Validator) checkValue(ref *openapi3.SchemaRef, val interface{}, path string, rep *util.ValidationReport, depth int) {
	schema := v.index.Resolve(ref)
	if schema == nil || depth > maxRefChain {
		return
	}

	// Enum definitions are referenced as object properties but behave as
	// strings constrained to the allowed values.
	if len(schema.Enum) > 0 {
		s, ok := val.(string)
		if !ok || !enumContains(schema.Enum, s) {
			rep.InvalidType = append(rep.InvalidType, util.TypeMismatch{
				Path: path, Expected: "enum", Actual: val,
			})
		}
		return
	}

	switch schema.Type {
	case "string", "number", "integer", "boolean":
		if !scalarMatches(schema.Type, val) {
			rep.InvalidType = append(rep.InvalidType, util.TypeMismatch{
				Path: path, Expected: schema.Type, Actual: val,
			})
		}
	case "array":
		items, ok := val.([]interface{})
		if !ok {
			rep.InvalidType = append(rep.InvalidType, util.TypeMismatch{
				Path: path, Expected: "array", Actual: val,
			})
			return
		}
		if schema.Items == nil {
			return
		}
		for i, item := range items {
			v.checkValue(schema.Items, item, fmt.Sprintf("%s[%d]", path, i), rep, depth+1)
		}
	case "object", "":
		obj, ok := val.(map[string]interface{})
		if !ok {
			rep.InvalidType = append(rep.InvalidType, util.TypeMismatch{
				Path: path, Expected: "object", Actual: val,
			})
			return
		}
		v.checkObject(schema, obj, path, rep, depth+1)
	}
}

// scalarMatches applies the Swagger primitive typing rules: booleans are not
// numbers, numbers are not strings, and integers must have no fraction.
func scalarMatches(specType string, val interface{}) bool {
	switch specType {
	case "string":
		_, ok := val.(string)
		return ok
	case "boolean":
		_, ok := val.(bool)
		return ok
	case "integer":
		return isIntegral(val)
	case "number":
		return isNumeric(val)
	}
	return true
}

func isNumeric(val interface{}) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case json.Number:
		return true
	}
	return false
}

func isIntegral(val interface{}) bool {
	switch n := val.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return float64(n) == math.Trunc(float64(n))
	case float64:
		return n == math.Trunc(n)
	case json.Number:
		_, err := n.Int64()
		return err == nil
	}
	return false
}

func enumContains(allowed []interface{}, s string) bool {
	for _, a := range allowed {
		if as, ok := a.(string); ok && as == s {
			return true
		}
	}
	return false
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func sortReport(rep *util.ValidationReport) {
	sort.Strings(rep.Required)
	sort.Slice(rep.InvalidType, func(i, j int) bool {
		return rep.InvalidType[i].Path < rep.InvalidType[j].Path
	})
}
