package stats

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerAccumulates(t *testing.T) {
	var tm Timer
	tm.Start()
	time.Sleep(5 * time.Millisecond)
	tm.Stop()
	assert.Greater(t, tm.Value(), time.Duration(0))

	before := tm.Value()
	tm.Start()
	time.Sleep(5 * time.Millisecond)
	tm.Stop()
	assert.Greater(t, tm.Value(), before)
}

func TestTimerStartTwicePanics(t *testing.T) {
	var tm Timer
	tm.Start()
	assert.Panics(t, func() { tm.Start() })
}

func TestTimerStopWithoutStartPanics(t *testing.T) {
	var tm Timer
	assert.Panics(t, func() { tm.Stop() })
}

func TestTimerMarshalJSON(t *testing.T) {
	var tm Timer
	tm.Start()
	tm.Stop()
	b, err := tm.MarshalJSON()
	require.NoError(t, err)
	assert.NotContains(t, string(b), "{")
}

func TestTimerGobRoundTrip(t *testing.T) {
	var tm Timer
	tm.Start()
	time.Sleep(time.Millisecond)
	tm.Stop()

	encoded, err := tm.GobEncode()
	require.NoError(t, err)

	var decoded Timer
	require.NoError(t, decoded.GobDecode(encoded))
	assert.InDelta(t, tm.Seconds(), decoded.Seconds(), 0.01)
}

func TestStatsDumpToFiles(t *testing.T) {
	s := New(map[string]interface{}{"name": "geometric"})
	s.TotalTime.Stop()
	k := 4
	n := 9
	s.K = &k
	s.NumberFormulae = &n
	s.Status = StatusRefuted

	path := filepath.Join(t.TempDir(), "run")
	require.NoError(t, s.DumpToFiles(path))

	loaded, err := LoadFromGob(path + ".gob")
	require.NoError(t, err)
	assert.Equal(t, StatusRefuted, loaded.Status)
	require.NotNil(t, loaded.K)
	assert.Equal(t, 4, *loaded.K)
	require.NotNil(t, loaded.NumberFormulae)
	assert.Equal(t, 9, *loaded.NumberFormulae)
}

func TestStatsString(t *testing.T) {
	s := New(nil)
	s.TotalTime.Stop()
	assert.Contains(t, s.String(), "Statistics")
}
