package fdm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftdconf/ftdconf/internal/testutil"
)

func seedObjects(dev *testutil.FakeDevice, n int) {
	for i := 0; i < n; i++ {
		dev.Seed(map[string]interface{}{
			"name":    fmt.Sprintf("host-%02d", i),
			"subType": "HOST",
			"type":    "networkobject",
			"value":   fmt.Sprintf("10.0.0.%d", i+1),
		})
	}
}

func listRequest(query map[string]interface{}) *Request {
	return &Request{
		Method:      "GET",
		URL:         "/api/fdm/v2/object/networks",
		QueryParams: query,
	}
}

func TestCollectItems_WalksAllPages(t *testing.T) {
	dev := testutil.NewFakeDevice()
	defer dev.Close()
	s := loginFake(t, dev)
	seedObjects(dev, 25)

	items, err := s.CollectItems(context.Background(), listRequest(nil))
	require.NoError(t, err)
	require.Len(t, items, 25)
	assert.Equal(t, "host-00", items[0]["name"])
	assert.Equal(t, "host-24", items[24]["name"])
}

func TestCollectItems_ExactPageBoundary(t *testing.T) {
	dev := testutil.NewFakeDevice()
	defer dev.Close()
	s := loginFake(t, dev)
	seedObjects(dev, 20)

	// 20 items at the default limit of 10 needs a third, empty page to
	// terminate.
	items, err := s.CollectItems(context.Background(), listRequest(nil))
	require.NoError(t, err)
	assert.Len(t, items, 20)
}

func TestCollectItems_Empty(t *testing.T) {
	dev := testutil.NewFakeDevice()
	defer dev.Close()
	s := loginFake(t, dev)

	items, err := s.CollectItems(context.Background(), listRequest(nil))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestForEachItem_StringOffsetAndLimit(t *testing.T) {
	dev := testutil.NewFakeDevice()
	defer dev.Close()
	s := loginFake(t, dev)
	seedObjects(dev, 12)

	var names []string
	err := s.ForEachItem(context.Background(), listRequest(map[string]interface{}{
		"offset": "3",
		"limit":  "4",
	}), func(item map[string]interface{}) error {
		names = append(names, item["name"].(string))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, names, 9)
	assert.Equal(t, "host-03", names[0])
}

func TestForEachItem_CallbackErrorStopsWalk(t *testing.T) {
	dev := testutil.NewFakeDevice()
	defer dev.Close()
	s := loginFake(t, dev)
	seedObjects(dev, 5)

	stop := errors.New("stop")
	seen := 0
	err := s.ForEachItem(context.Background(), listRequest(nil), func(map[string]interface{}) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestForEachItem_FilterQueryPreserved(t *testing.T) {
	dev := testutil.NewFakeDevice()
	defer dev.Close()
	s := loginFake(t, dev)
	seedObjects(dev, 8)

	items, err := s.CollectItems(context.Background(), listRequest(map[string]interface{}{
		"filter": "name:host-05",
	}))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "host-05", items[0]["name"])
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		in       interface{}
		fallback int
		want     int
		wantErr  bool
	}{
		{nil, 10, 10, false},
		{7, 0, 7, false},
		{float64(5), 0, 5, false},
		{"42", 0, 42, false},
		{"nope", 0, 0, true},
		{true, 0, 0, true},
	}
	for _, tt := range tests {
		got, err := coerceInt(tt.in, tt.fallback)
		if tt.wantErr {
			assert.Error(t, err, "coerceInt(%v)", tt.in)
			continue
		}
		require.NoError(t, err, "coerceInt(%v)", tt.in)
		assert.Equal(t, tt.want, got, "coerceInt(%v)", tt.in)
	}
}
