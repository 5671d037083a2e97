package resource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftdconf/ftdconf/internal/testutil"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/util"
)

func hostObject(name, value string) map[string]interface{} {
	return map[string]interface{}{
		"name":    name,
		"subType": "HOST",
		"type":    "networkobject",
		"value":   value,
	}
}

func newTestEngine(t *testing.T) (*Engine, *testutil.FakeDevice) {
	t.Helper()
	dev := testutil.NewFakeDevice()
	t.Cleanup(dev.Close)

	s, err := fdm.Connect(fdm.Config{
		Hostname: dev.URL(),
		Username: dev.Username,
		Password: dev.Password,
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	require.NoError(t, s.Login(context.Background()))

	index, err := s.SpecIndex(context.Background())
	require.NoError(t, err)
	return NewEngine(s, index), dev
}

func TestAdd_Success(t *testing.T) {
	e, dev := newTestEngine(t)

	res, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.NotEmpty(t, res.Response["id"])
	assert.NotEmpty(t, res.Response["version"])
	assert.Equal(t, 1, dev.ObjectCount())
}

func TestAdd_IdenticalDuplicateIsNoop(t *testing.T) {
	e, dev := newTestEngine(t)

	first, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	require.NoError(t, err)
	require.True(t, first.Changed)

	second, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Response["id"], second.Response["id"])
	assert.Equal(t, 1, dev.ObjectCount())
}

func TestAdd_DuplicateWithDifferentBody(t *testing.T) {
	e, dev := newTestEngine(t)

	_, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "9.9.9.9"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrConfiguration)

	var confErr *util.ConfigurationError
	require.True(t, errors.As(err, &confErr))
	assert.NotNil(t, confErr.Existing, "the existing object must be attached for upsert recovery")
	assert.Equal(t, "1.2.3.4", confErr.Existing["value"])
	assert.Equal(t, 1, dev.ObjectCount())
}

func TestAdd_MultipleDuplicates(t *testing.T) {
	e, dev := newTestEngine(t)
	dev.Seed(hostObject("h1", "1.1.1.1"))
	dev.Seed(hostObject("h1", "2.2.2.2"))

	_, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h1", "3.3.3.3"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrConfiguration)
	assert.Contains(t, err.Error(), "Multiple duplicates")
}

func TestAdd_ValidationFailure(t *testing.T) {
	e, dev := newTestEngine(t)

	_, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: map[string]interface{}{"name": "h1"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrValidation)
	assert.Equal(t, 0, dev.ObjectCount(), "validation failures must not reach the device")
}

func TestEdit_EqualObjectSkipsPut(t *testing.T) {
	e, dev := newTestEngine(t)
	id := dev.Seed(hostObject("h1", "1.2.3.4"))
	before := dev.Object(id)

	res, err := e.Execute(context.Background(), "editNetworkObject", &Params{
		Data:       hostObject("h1", "1.2.3.4"),
		PathParams: map[string]interface{}{"objId": id},
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, before["version"], dev.Object(id)["version"], "no PUT may happen for an equal object")
}

func TestEdit_ChangedObject(t *testing.T) {
	e, dev := newTestEngine(t)
	id := dev.Seed(hostObject("h1", "1.2.3.4"))
	before := dev.Object(id)

	res, err := e.Execute(context.Background(), "editNetworkObject", &Params{
		Data:       hostObject("h1", "5.6.7.8"),
		PathParams: map[string]interface{}{"objId": id},
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	after := dev.Object(id)
	assert.Equal(t, "5.6.7.8", after["value"])
	assert.NotEqual(t, before["version"], after["version"])
}

func TestEdit_MissingReferent(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), "editNetworkObject", &Params{
		Data:       hostObject("h1", "1.2.3.4"),
		PathParams: map[string]interface{}{"objId": "no-such-id"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrConfiguration)
	assert.Contains(t, err.Error(), "Referenced object does not exist")
}

func TestDelete(t *testing.T) {
	e, dev := newTestEngine(t)
	id := dev.Seed(hostObject("h1", "1.2.3.4"))

	res, err := e.Execute(context.Background(), "deleteNetworkObject", &Params{
		PathParams: map[string]interface{}{"objId": id},
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 0, dev.ObjectCount())

	// Deleting again is already-absent, not a failure.
	res, err = e.Execute(context.Background(), "deleteNetworkObject", &Params{
		PathParams: map[string]interface{}{"objId": id},
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "Referenced object does not exist", res.Response["status"])
}

func TestUpsert_Lifecycle(t *testing.T) {
	e, dev := newTestEngine(t)

	// Absent: upsert creates.
	res, err := e.Execute(context.Background(), "upsertNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.Equal(t, 1, dev.ObjectCount())

	// Same payload: no-op.
	res, err = e.Execute(context.Background(), "upsertNetworkObject", &Params{
		Data: hostObject("h1", "1.2.3.4"),
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	require.Equal(t, 1, dev.ObjectCount())

	// Different payload: recovers into an edit of the existing object.
	res, err = e.Execute(context.Background(), "upsertNetworkObject", &Params{
		Data: hostObject("h1", "9.9.9.9"),
	})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.Equal(t, 1, dev.ObjectCount())
	assert.Equal(t, "9.9.9.9", res.Response["value"])
}

func TestUpsert_Unsupported(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), "upsertDiskFile", &Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidOperation)
}

func TestFindByFilter(t *testing.T) {
	e, dev := newTestEngine(t)
	dev.Seed(hostObject("h1", "1.1.1.1"))
	dev.Seed(hostObject("h2", "2.2.2.2"))
	dev.Seed(map[string]interface{}{
		"name": "r1", "subType": "RANGE", "type": "networkobject", "value": "1.1.1.1-1.1.1.9",
	})

	res, err := e.Execute(context.Background(), "getNetworkObjectList", &Params{
		Filters: map[string]interface{}{"subType": "HOST"},
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)

	items := res.Response["items"].([]interface{})
	require.Len(t, items, 2)
	for _, raw := range items {
		assert.Equal(t, "HOST", raw.(map[string]interface{})["subType"])
	}
}

func TestFindByFilter_NoMatches(t *testing.T) {
	e, _ := newTestEngine(t)

	res, err := e.Execute(context.Background(), "getNetworkObjectList", &Params{
		Filters: map[string]interface{}{"name": "missing"},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Response["items"])
}

func TestGeneralDispatch(t *testing.T) {
	e, dev := newTestEngine(t)
	id := dev.Seed(hostObject("h1", "1.2.3.4"))

	res, err := e.Execute(context.Background(), "getNetworkObject", &Params{
		PathParams: map[string]interface{}{"objId": id},
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "h1", res.Response["name"])

	res, err = e.Execute(context.Background(), "getSystemInformation", &Params{
		PathParams: map[string]interface{}{"objId": "default"},
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "firepower", res.Response["hostname"])
}

func TestExecute_UnknownOperation(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Execute(context.Background(), "addFluxCapacitor", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrInvalidOperation)
}

func TestCheckMode(t *testing.T) {
	e, dev := newTestEngine(t)
	id := dev.Seed(hostObject("h1", "1.2.3.4"))
	e.SetCheckMode(true)

	_, err := e.Execute(context.Background(), "addNetworkObject", &Params{
		Data: hostObject("h2", "2.2.2.2"),
	})
	assert.ErrorIs(t, err, util.ErrCheckMode)

	_, err = e.Execute(context.Background(), "deleteNetworkObject", &Params{
		PathParams: map[string]interface{}{"objId": id},
	})
	assert.ErrorIs(t, err, util.ErrCheckMode)

	// An edit that would be a no-op still reports unchanged in check mode.
	res, err := e.Execute(context.Background(), "editNetworkObject", &Params{
		Data:       hostObject("h1", "1.2.3.4"),
		PathParams: map[string]interface{}{"objId": id},
	})
	require.NoError(t, err)
	assert.False(t, res.Changed)

	// An edit that would mutate is suppressed.
	_, err = e.Execute(context.Background(), "editNetworkObject", &Params{
		Data:       hostObject("h1", "9.9.9.9"),
		PathParams: map[string]interface{}{"objId": id},
	})
	assert.ErrorIs(t, err, util.ErrCheckMode)

	// Reads pass through untouched.
	_, err = e.Execute(context.Background(), "getNetworkObjectList", nil)
	assert.NoError(t, err)

	assert.Equal(t, 1, dev.ObjectCount())
	assert.Equal(t, "1.2.3.4", dev.Object(id)["value"])
}
