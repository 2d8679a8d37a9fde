package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closedloop-vr/ballrig/internal/influx"
	"github.com/closedloop-vr/ballrig/internal/logging"
)

type fakeSource struct {
	stats influx.FrameStats
	calls int
}

func (f *fakeSource) IntervalStats() influx.FrameStats {
	f.calls++
	return f.stats
}

func (f *fakeSource) Mode() string { return "live" }

func TestReportWritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	src := &fakeSource{stats: influx.FrameStats{
		FramesPerSec:   59.8,
		SamplesDrained: 120,
		FramesApplied:  110,
		FramesGated:    4,
		BufferedFrames: 37,
		LastWriteMs:    2.5,
	}}

	svc := NewService(Dependencies{
		LogManager: logging.NewSlogManager(),
		Source:     src,
		RigName:    "rig1",
		StatusDir:  dir,
	})

	f, err := os.Create(filepath.Join(dir, "status.json"))
	require.NoError(t, err)
	defer f.Close()

	svc.Report(f)

	data, err := os.ReadFile(filepath.Join(dir, "status.json"))
	require.NoError(t, err)

	var snap statusSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, "rig1", snap.Rig)
	assert.Equal(t, "live", snap.Mode)
	assert.Equal(t, 59.8, snap.Stats.FramesPerSec)
	assert.Equal(t, 1, src.calls)
}

func TestStartStop(t *testing.T) {
	src := &fakeSource{}
	svc := NewService(Dependencies{
		LogManager: logging.NewSlogManager(),
		Source:     src,
		RigName:    "rig1",
		Interval:   10 * time.Millisecond,
	})

	require.NoError(t, svc.Start())
	assert.True(t, svc.IsRunning())

	// Second start is a no-op.
	require.NoError(t, svc.Start())

	assert.Eventually(t, func() bool { return src.calls > 0 },
		time.Second, 5*time.Millisecond)

	svc.Stop()
	assert.Eventually(t, func() bool { return !svc.IsRunning() },
		time.Second, 5*time.Millisecond)
}
