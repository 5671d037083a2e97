package playbook

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftdconf/ftdconf/internal/testutil"
	"github.com/ftdconf/ftdconf/pkg/fdm"
	"github.com/ftdconf/ftdconf/pkg/swagger"
)

const samplePlaybook = `
tasks:
  - name: web server object
    operation: upsertNetworkObject
    data:
      name: web-server
      subType: HOST
      type: networkobject
      value: 10.0.0.10
  - name: dns server object
    operation: upsertNetworkObject
    data:
      name: dns-server
      subType: HOST
      type: networkobject
      value: 10.0.0.53
  - name: list hosts
    operation: getNetworkObjectList
    filters:
      subType: HOST
    register_as: hosts
`

func setup(t *testing.T) (*fdm.Session, *swagger.SpecIndex, *testutil.FakeDevice) {
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
	return s, index, dev
}

func TestParse(t *testing.T) {
	pb, err := Parse([]byte(samplePlaybook))
	require.NoError(t, err)
	require.Len(t, pb.Tasks, 3)
	assert.Equal(t, "upsertNetworkObject", pb.Tasks[0].Operation)
	assert.Equal(t, "hosts", pb.Tasks[2].RegisterAs)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("tasks: []"))
	assert.Error(t, err)

	_, err = Parse([]byte("tasks:\n  - name: no op\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("{{nonsense"))
	assert.Error(t, err)
}

func TestRun_AppliesTasksInOrder(t *testing.T) {
	s, index, dev := setup(t)
	pb, err := Parse([]byte(samplePlaybook))
	require.NoError(t, err)

	results, summary := pb.Run(context.Background(), s, index, false)
	require.Len(t, results, 3)
	assert.Equal(t, Summary{OK: 1, Changed: 2, Failed: 0}, summary)
	assert.Equal(t, 2, dev.ObjectCount())

	hosts := results[2].Result.Facts["hosts"].([]interface{})
	assert.Len(t, hosts, 2)

	// A second run is a full no-op.
	_, summary = pb.Run(context.Background(), s, index, false)
	assert.Equal(t, Summary{OK: 3, Changed: 0, Failed: 0}, summary)
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	s, index, dev := setup(t)
	pb, err := Parse([]byte(`
tasks:
  - name: broken task
    operation: addNetworkObject
    data:
      name: incomplete
  - name: never runs
    operation: upsertNetworkObject
    data:
      name: h1
      subType: HOST
      type: networkobject
      value: 1.1.1.1
`))
	require.NoError(t, err)

	results, summary := pb.Run(context.Background(), s, index, false)
	require.Len(t, results, 1)
	assert.True(t, results[0].Result.Failed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, dev.ObjectCount())
}

func TestRun_CheckMode(t *testing.T) {
	s, index, dev := setup(t)
	pb, err := Parse([]byte(samplePlaybook))
	require.NoError(t, err)

	_, summary := pb.Run(context.Background(), s, index, true)
	assert.Zero(t, summary.Failed)
	assert.Zero(t, summary.Changed)
	assert.Equal(t, 0, dev.ObjectCount())
}
