package session

import (
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/closedloop-vr/ballrig/internal/behavior"
	"github.com/closedloop-vr/ballrig/internal/filter"
	"github.com/closedloop-vr/ballrig/internal/gate"
	"github.com/closedloop-vr/ballrig/internal/kinematics"
	"github.com/closedloop-vr/ballrig/internal/transport"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

type fakeBackend struct {
	pending    []core.FrameRecord
	committed  []core.FrameRecord
	flushCount int
	events     []core.HeadingEvent
}

func (f *fakeBackend) Init() error                          { return nil }
func (f *fakeBackend) Close() error                         { return nil }
func (f *fakeBackend) StartSession(*core.SessionInfo) error { return nil }
func (f *fakeBackend) EndSession() error                    { return nil }
func (f *fakeBackend) BufferedFrames() int                  { return len(f.pending) }

func (f *fakeBackend) RecordFrame(r *core.FrameRecord) error {
	f.pending = append(f.pending, *r)
	return nil
}

func (f *fakeBackend) Flush() error {
	if len(f.pending) > 0 {
		f.flushCount++
		f.committed = append(f.committed, f.pending...)
		f.pending = nil
	}
	return nil
}

func (f *fakeBackend) RecordHeadingEvent(e *core.HeadingEvent) error {
	f.events = append(f.events, *e)
	return nil
}

// sensorMessage builds a delimited message carrying fwd/side/heading at
// fields 6, 7 and 17.
func sensorMessage(fwd, side, heading float64) []byte {
	fields := make([]string, 20)
	for i := range fields {
		fields[i] = "0"
	}
	fields[6] = fmt.Sprintf("%g", fwd)
	fields[7] = fmt.Sprintf("%g", side)
	fields[17] = fmt.Sprintf("%g", heading)
	msg := fields[0]
	for _, f := range fields[1:] {
		msg += "," + f
	}
	return []byte(msg)
}

func testDecoder() *kinematics.SampleDecoder {
	return &kinematics.SampleDecoder{
		Sep:            ',',
		FieldForward:   6,
		FieldSideways:  7,
		FieldHeading:   17,
		FieldTimestamp: -1,
		BallRadius:     0.5,
	}
}

func liveScheduler(write WriteConfig) (*Scheduler, *transport.Mock, *fakeBackend) {
	mock := transport.NewMock()
	backend := &fakeBackend{}
	s := New(write, Dependencies{
		Transport:  mock,
		Decoder:    testDecoder(),
		Integrator: kinematics.NewDirect(1.0),
		Backend:    backend,
		Logger:     slog.Default(),
	})
	return s, mock, backend
}

func TestFlushWaitsForStillness(t *testing.T) {
	s, mock, backend := liveScheduler(WriteConfig{
		StillFrames:      5,
		MinWriteInterval: 100,
		MaxWriteInterval: 200,
	})

	// Motion through frame 50, then still.
	for frame := 1; frame <= 149; frame++ {
		if frame <= 50 {
			mock.Queue(sensorMessage(1, 0, 0))
		}
		s.Tick(1.0 / 60)
	}
	assert.Equal(t, 0, backend.flushCount, "flushed before stillness window elapsed")

	// Frame 150 = last motion at 50 + minWriteInterval.
	s.Tick(1.0 / 60)
	assert.Equal(t, 1, backend.flushCount)
	assert.Len(t, backend.committed, 50)
	assert.Equal(t, 0, backend.BufferedFrames())
}

func TestFlushForcedUnderContinuousMotion(t *testing.T) {
	s, mock, backend := liveScheduler(WriteConfig{
		StillFrames:      5,
		MinWriteInterval: 100,
		MaxWriteInterval: 200,
	})

	for frame := 1; frame <= 199; frame++ {
		mock.Queue(sensorMessage(0.5, 0.5, 0.01))
		s.Tick(1.0 / 60)
	}
	assert.Equal(t, 0, backend.flushCount)

	mock.Queue(sensorMessage(0.5, 0.5, 0.01))
	s.Tick(1.0 / 60)
	assert.Equal(t, 1, backend.flushCount, "maxWriteInterval must force a flush")
}

func TestMalformedMessageDropped(t *testing.T) {
	s, mock, backend := liveScheduler(WriteConfig{StillFrames: 1, MinWriteInterval: 1, MaxWriteInterval: 10})

	mock.Queue([]byte("not,a,sensor,message"))
	mock.Queue(sensorMessage(1, 0, 0))
	s.Tick(1.0 / 60)

	// The malformed message is dropped, the valid one still lands.
	require.Len(t, backend.pending, 1)
	assert.Equal(t, int64(1), backend.pending[0].Frame)
}

func TestZeroMotionProducesNoRecord(t *testing.T) {
	s, mock, backend := liveScheduler(WriteConfig{StillFrames: 1, MinWriteInterval: 1, MaxWriteInterval: 10})

	mock.Queue(sensorMessage(0, 0, 0))
	s.Tick(1.0 / 60)

	assert.Empty(t, backend.pending)
	assert.Empty(t, backend.committed)
}

func TestPlaybackDeterminism(t *testing.T) {
	// Record a live session with motion on some frames only.
	s, mock, backend := liveScheduler(WriteConfig{StillFrames: 1, MinWriteInterval: 2, MaxWriteInterval: 10})
	motions := map[int][3]float64{
		1: {1, 0, 0},
		2: {0, 1, 0.1},
		5: {0.5, 0.5, -0.2},
		9: {2, 0, 0},
	}
	for frame := 1; frame <= 12; frame++ {
		if m, ok := motions[frame]; ok {
			mock.Queue(sensorMessage(m[0], m[1], m[2]))
		}
		s.Tick(1.0 / 60)
	}
	require.NoError(t, s.Close())
	trace := backend.committed
	require.Len(t, trace, len(motions))

	// Replay into a fresh integrator and compare poses frame by frame.
	replayIntegrator := kinematics.NewDirect(1.0)
	r := NewReplay(Dependencies{
		Integrator: replayIntegrator,
		Backend:    &fakeBackend{},
		Logger:     slog.Default(),
	}, trace)

	byFrame := map[int64]core.Pose{}
	for _, rec := range trace {
		byFrame[rec.Frame] = rec.Pose
	}

	for frame := 1; frame <= 12; frame++ {
		r.Tick(1.0 / 60)
		if want, ok := byFrame[int64(frame)]; ok {
			assert.Equal(t, want, replayIntegrator.Pose(), "frame %d", frame)
		}
	}
}

func TestPlaybackFiltersNonMotionFrames(t *testing.T) {
	// Frame 2 carries no motion and frame 3 was gated; neither may
	// reach the replay timeline.
	trace := []core.FrameRecord{
		{Frame: 1, Attempted: core.Vec3{X: 1}},
		{Frame: 2},
		{Frame: 3, Attempted: core.Vec3{X: 1}, Gated: true},
		{Frame: 4, RotationDeltaDeg: 5},
	}

	p := NewPlayback(trace, 0)
	assert.Equal(t, 2, p.Len())
}

func TestPlaybackExhaustionGoesIdle(t *testing.T) {
	trace := []core.FrameRecord{
		{Frame: 2, Attempted: core.Vec3{X: 1},
			Pose: core.Pose{Position: core.Vec3{X: 1}}},
	}

	integrator := kinematics.NewDirect(1.0)
	r := NewReplay(Dependencies{
		Integrator: integrator,
		Backend:    &fakeBackend{},
		Logger:     slog.Default(),
	}, trace)

	r.Tick(1.0 / 60)
	assert.Equal(t, "playback", r.Mode())

	r.Tick(1.0 / 60)
	assert.Equal(t, core.Vec3{X: 1}, integrator.Pose().Position)
	assert.Equal(t, "idle", r.Mode())

	// Idle is inert: nothing moves the pose anymore.
	r.Tick(1.0 / 60)
	assert.Equal(t, core.Vec3{X: 1}, integrator.Pose().Position)
}

func TestScriptedWindowSuppressesIntegration(t *testing.T) {
	mock := transport.NewMock()
	backend := &fakeBackend{}
	integ := kinematics.NewDirect(1.0)
	machine := behavior.New(behavior.Config{
		PrimaryDuration:   0.25,
		SecondaryDuration: 0.3,
		RotationRate:      100,
	})
	s := New(WriteConfig{StillFrames: 1, MinWriteInterval: 1000, MaxWriteInterval: 2000}, Dependencies{
		Transport:  mock,
		Decoder:    testDecoder(),
		Integrator: integ,
		Behavior:   machine,
		Backend:    backend,
		Logger:     slog.Default(),
	})

	dt := 0.1
	for i := 0; i < 2; i++ {
		mock.Queue(sensorMessage(1, 0, 0))
		s.Tick(dt)
	}
	require.Equal(t, behavior.Primary, machine.State())
	posAfterPrimary := integ.Pose().Position

	// Third tick crosses primaryDuration: the message is drained and
	// logged but must not move the pose; heading goes open loop.
	mock.Queue(sensorMessage(1, 0, 0))
	s.Tick(dt)

	assert.Equal(t, posAfterPrimary, integ.Pose().Position)
	require.NotEmpty(t, backend.pending)
	last := backend.pending[len(backend.pending)-1]
	assert.True(t, last.Gated)
	// headingAtEntry 0, +100 deg/s for 0.1s of scripted time.
	assert.InDelta(t, 10, integ.Pose().Rotation.Y, 1e-9)
}

func TestGateSeesPerMessageRate(t *testing.T) {
	mock := transport.NewMock()
	backend := &fakeBackend{}
	speedGate := gate.New(100, 1)
	integ := kinematics.NewSmoothed(1.0, filter.NewSmoother(1), speedGate)
	s := New(WriteConfig{StillFrames: 1, MinWriteInterval: 1000, MaxWriteInterval: 2000}, Dependencies{
		Transport:  mock,
		Decoder:    testDecoder(),
		Integrator: integ,
		Gate:       speedGate,
		Backend:    backend,
		Logger:     slog.Default(),
	})

	// Four reports land in one 0.1s frame, each a 5 degree step. That is
	// 200 deg/s at the sensor; averaging over the whole frame would read
	// only 50 deg/s and miss the free spin.
	step := 5 * math.Pi / 180
	for i := 0; i < 4; i++ {
		mock.Queue(sensorMessage(0, 0, step))
	}
	s.Tick(0.1)

	require.Len(t, backend.pending, 4)
	for _, rec := range backend.pending {
		assert.True(t, rec.Gated, "frame %d not gated", rec.Frame)
	}
	assert.Zero(t, integ.Pose().Rotation.Y)
}

func TestFrameAndModeReadableFromOtherGoroutines(t *testing.T) {
	s, mock, _ := liveScheduler(WriteConfig{StillFrames: 1, MinWriteInterval: 1, MaxWriteInterval: 10})

	// The monitor and the log context provider poll Frame and Mode while
	// the frame loop ticks; run under -race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			_ = s.Frame()
			_ = s.Mode()
		}
	}()

	for frame := 1; frame <= 500; frame++ {
		mock.Queue(sensorMessage(1, 0, 0))
		s.Tick(1.0 / 60)
	}
	<-done

	assert.Equal(t, int64(500), s.Frame())
	assert.Equal(t, "live", s.Mode())
}

func TestIntervalStats(t *testing.T) {
	s, mock, _ := liveScheduler(WriteConfig{StillFrames: 1, MinWriteInterval: 1, MaxWriteInterval: 100})

	mock.Queue(sensorMessage(1, 0, 0))
	mock.Queue(sensorMessage(0, 1, 0))
	s.Tick(1.0 / 60)
	s.Tick(1.0 / 60)

	stats := s.IntervalStats()
	assert.Equal(t, 2, stats.SamplesDrained)
	assert.Equal(t, 2, stats.FramesApplied)

	// Counters reset after the read.
	stats = s.IntervalStats()
	assert.Equal(t, 0, stats.SamplesDrained)
	assert.Equal(t, 0, stats.FramesApplied)
}
