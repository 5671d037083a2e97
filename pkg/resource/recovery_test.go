package resource

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftdconf/ftdconf/internal/testutil"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/swagger"
	"github.com/ftdconf/ftdconf/pkg/util"
)

// stubClient scripts transport responses so the recovery paths that a real
// device cannot produce are still coverable.
type stubClient struct {
	send    func(req *fdm.Request) (*fdm.Response, error)
	forEach func(req *fdm.Request, fn func(map[string]interface{}) error) error
}

func (c *stubClient) Send(_ context.Context, req *fdm.Request) (*fdm.Response, error) {
	return c.send(req)
}

func (c *stubClient) ForEachItem(_ context.Context, req *fdm.Request, fn func(map[string]interface{}) error) error {
	if c.forEach == nil {
		return nil
	}
	return c.forEach(req, fn)
}

func duplicate422() *fdm.Response {
	raw := []byte(`{"error":{"messages":[{"description":"Validation failed due to a duplicate name"}]}}`)
	return &fdm.Response{
		StatusCode: http.StatusUnprocessableEntity,
		Success:    false,
		Raw:        raw,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"messages": []interface{}{
					map[string]interface{}{"description": "Validation failed due to a duplicate name"},
				},
			},
		},
	}
}

func stubEngine(t *testing.T, client Client) *Engine {
	t.Helper()
	index, err := swagger.Parse([]byte(testutil.SpecJSON))
	require.NoError(t, err)
	return NewEngine(client, index)
}

// The device reported a duplicate but the follow-up lookup returns nothing.
// The original 422 must be surfaced, body intact, rather than a synthetic
// conflict.
func TestAdd_DuplicateLookupReturnsNothing(t *testing.T) {
	e := stubEngine(t, &stubClient{
		send: func(*fdm.Request) (*fdm.Response, error) { return duplicate422(), nil },
	})

	_, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	require.Error(t, err)

	var serverErr *util.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusUnprocessableEntity, serverErr.StatusCode)
	assert.Contains(t, serverErr.Error(), "duplicate name")
}

// Without a name in the request body the lookup cannot run at all.
func TestAdd_DuplicateWithoutName(t *testing.T) {
	calls := 0
	e := stubEngine(t, &stubClient{
		send: func(*fdm.Request) (*fdm.Response, error) { return duplicate422(), nil },
		forEach: func(*fdm.Request, func(map[string]interface{}) error) error {
			calls++
			return nil
		},
	})

	_, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: map[string]interface{}{
			"subType": "HOST", "type": "networkobject", "value": "1.2.3.4",
		},
	})
	var serverErr *util.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Zero(t, calls, "no lookup may run without a name")
}

// A non-duplicate 422 is not recovered from.
func TestAdd_Unrecoverable422(t *testing.T) {
	e := stubEngine(t, &stubClient{
		send: func(*fdm.Request) (*fdm.Response, error) {
			return &fdm.Response{
				StatusCode: http.StatusUnprocessableEntity,
				Raw:        []byte(`{"error":"some other validation problem"}`),
				Body:       map[string]interface{}{"error": "some other validation problem"},
			}, nil
		},
	})

	_, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	var serverErr *util.ServerError
	require.True(t, errors.As(err, &serverErr))
	assert.Equal(t, http.StatusUnprocessableEntity, serverErr.StatusCode)
}

// The upsert edit leg carries the existing object's identity into the body
// and path.
func TestUpsert_IdentityPropagation(t *testing.T) {
	existing := map[string]interface{}{
		"id":      "abc-123",
		"version": "v-1",
		"name":    "h1",
		"subType": "HOST",
		"type":    "networkobject",
		"value":   "1.2.3.4",
	}

	var putReq *fdm.Request
	e := stubEngine(t, &stubClient{
		send: func(req *fdm.Request) (*fdm.Response, error) {
			switch req.Method {
			case http.MethodPost:
				return duplicate422(), nil
			case http.MethodGet:
				return &fdm.Response{StatusCode: 200, Success: true, Body: existing}, nil
			case http.MethodPut:
				putReq = req
				return &fdm.Response{StatusCode: 200, Success: true, Body: req.Body}, nil
			}
			t.Fatalf("unexpected method %s", req.Method)
			return nil, nil
		},
		forEach: func(_ *fdm.Request, fn func(map[string]interface{}) error) error {
			return fn(existing)
		},
	})

	res, err := e.Execute(context.Background(), "upsertNetworkObject", &Params{
		Data: hostObject("h1", "9.9.9.9"),
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	require.NotNil(t, putReq, "the edit leg must issue a PUT")
	assert.Equal(t, "abc-123", putReq.Body["id"])
	assert.Equal(t, "v-1", putReq.Body["version"])
	assert.Equal(t, "abc-123", putReq.PathParams["objId"])
	assert.Equal(t, "9.9.9.9", putReq.Body["value"])
}
