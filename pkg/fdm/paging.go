package fdm

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ftdconf/ftdconf/pkg/util"
)

const (
	defaultPageOffset = 0
	defaultPageLimit  = 10
)

// FetchPage runs one find-all request with the given query parameters and
// returns the items slice from its response. A missing or empty items list
// is an empty page.
func (s *Session) FetchPage(ctx context.Context, req *Request) ([]map[string]interface{}, error) {
	resp, err := s.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, util.NewServerError(resp.StatusCode, resp.Body)
	}
	rawItems, ok := resp.Body["items"].([]interface{})
	if !ok {
		return nil, nil
	}
	items := make([]map[string]interface{}, 0, len(rawItems))
	for _, raw := range rawItems {
		item, ok := raw.(map[string]interface{})
		if !ok {
			return nil, util.NewServerError(resp.StatusCode, resp.Body)
		}
		items = append(items, item)
	}
	return items, nil
}

// ForEachItem walks a paginated find-all operation, calling fn for every
// item. Offset and limit default to 0 and 10, advance by limit per page,
// and iteration stops at the first page with no items. Caller-supplied
// string offsets and limits are coerced to integers. Returning an error
// from fn stops the walk.
func (s *Session) ForEachItem(ctx context.Context, req *Request, fn func(map[string]interface{}) error) error {
	query := make(map[string]interface{}, len(req.QueryParams)+2)
	for k, v := range req.QueryParams {
		query[k] = v
	}
	offset, err := coerceInt(query["offset"], defaultPageOffset)
	if err != nil {
		return err
	}
	limit, err := coerceInt(query["limit"], defaultPageLimit)
	if err != nil {
		return err
	}

	for {
		query["offset"] = offset
		query["limit"] = limit
		page, err := s.FetchPage(ctx, &Request{
			Method:      req.Method,
			URL:         req.URL,
			PathParams:  req.PathParams,
			QueryParams: query,
		})
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		for _, item := range page {
			if err := fn(item); err != nil {
				return err
			}
		}
		offset += limit
	}
}

// CollectItems gathers every item of a paginated find-all operation.
func (s *Session) CollectItems(ctx context.Context, req *Request) ([]map[string]interface{}, error) {
	var items []map[string]interface{}
	err := s.ForEachItem(ctx, req, func(item map[string]interface{}) error {
		items = append(items, item)
		return nil
	})
	return items, err
}

func coerceInt(value interface{}, fallback int) (int, error) {
	switch v := value.(type) {
	case nil:
		return fallback, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(v)
	default:
		return 0, util.NewConfigurationError("offset and limit must be integers")
	}
}
