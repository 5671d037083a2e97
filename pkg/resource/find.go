package resource

import (
	"context"

	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/swagger"
)

// findAllByName walks the model's find-all operation filtered by name.
// Some endpoints ignore the server-side filter, so every item is re-checked
// client-side. All matches are returned; the caller distinguishes the
// one-duplicate case from the many-duplicates case.
func (e *Engine) findAllByName(ctx context.Context, op *swagger.Operation, name string, pathParams map[string]interface{}) ([]map[string]interface{}, error) {
	var matches []map[string]interface{}
	err := e.client.ForEachItem(ctx, &fdm.Request{
		Method:     op.Method,
		URL:        op.URL,
		PathParams: pathParams,
		QueryParams: map[string]interface{}{
			"filter": "name:" + name,
		},
	}, func(item map[string]interface{}) error {
		if got, _ := item["name"].(string); got == name {
			matches = append(matches, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// findByFilter collects the items of a find-all operation that match every
// entry in filters. Nested maps are compared structurally. It emulates
// server-side filtering for fields the device cannot filter on; a name
// filter is additionally pushed down as a server-side query.
func (e *Engine) findByFilter(ctx context.Context, op *swagger.Operation, p *Params) (*Result, error) {
	query := make(map[string]interface{}, len(p.QueryParams)+1)
	for k, v := range p.QueryParams {
		query[k] = v
	}
	if name, ok := p.Filters["name"].(string); ok && name != "" {
		query["filter"] = "name:" + name
	}

	items := []interface{}{}
	err := e.client.ForEachItem(ctx, &fdm.Request{
		Method:      op.Method,
		URL:         op.URL,
		PathParams:  p.PathParams,
		QueryParams: query,
	}, func(item map[string]interface{}) error {
		if matchesFilters(item, p.Filters) {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{
		Changed:  false,
		Response: map[string]interface{}{"items": items},
	}, nil
}

func matchesFilters(item, filters map[string]interface{}) bool {
	for field, want := range filters {
		if !equalValues(item[field], want) {
			return false
		}
	}
	return true
}
