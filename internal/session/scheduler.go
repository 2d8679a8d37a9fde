// Package session runs the per-frame update loop: drain the sensor
// transport, decode and integrate motion, drive scripted behavior
// windows, and schedule session-log flushes. One Tick per frame, no
// internal parallelism; every component mutated here is owned by the
// scheduler for the lifetime of the session.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/closedloop-vr/ballrig/internal/behavior"
	"github.com/closedloop-vr/ballrig/internal/filter"
	"github.com/closedloop-vr/ballrig/internal/gate"
	"github.com/closedloop-vr/ballrig/internal/influx"
	"github.com/closedloop-vr/ballrig/internal/kinematics"
	"github.com/closedloop-vr/ballrig/internal/storage"
	"github.com/closedloop-vr/ballrig/internal/transport"
	"github.com/closedloop-vr/ballrig/pkg/core"
)

// Mode is the scheduler's operating state.
type Mode int

const (
	// Live integrates sensor motion and records it.
	Live Mode = iota
	// PlaybackMode replays a recorded trace instead of sensing.
	PlaybackMode
	// Idle is the inert terminal state after a replay is exhausted.
	// It never reverts to Live; that would mix real and recorded motion.
	Idle
)

func (m Mode) String() string {
	switch m {
	case PlaybackMode:
		return "playback"
	case Idle:
		return "idle"
	default:
		return "live"
	}
}

// WriteConfig is the adaptive flush schedule. Flushing waits for the
// agent to settle (framesStill) so writes land in quiet periods, but
// never waits beyond MaxWriteInterval frames.
type WriteConfig struct {
	StillFrames      int
	MinWriteInterval int
	MaxWriteInterval int
}

// Dependencies holds the collaborators the scheduler drives each frame.
// Gate, Behavior and HeadingMean are optional; Transport may be nil in
// playback mode.
type Dependencies struct {
	Transport   transport.Transport
	Decoder     *kinematics.SampleDecoder
	Integrator  *kinematics.Integrator
	Gate        *gate.Gate
	Behavior    *behavior.Machine
	HeadingMean *filter.CircularMean
	Backend     storage.Backend
	Logger      *slog.Logger
}

// Scheduler owns the frame counter and the record/replay state machine.
// Tick runs on the frame loop only; Frame, Mode and IntervalStats may be
// read from other goroutines (monitor, log context), hence the atomic
// counter and the mutex around mode and the interval counters.
type Scheduler struct {
	deps  Dependencies
	write WriteConfig

	mode     Mode
	playback *Playback

	frame            atomic.Int64
	framesSinceWrite int
	framesStill      int

	statsMu   sync.Mutex
	stats     intervalCounters
	statsFrom time.Time
}

type intervalCounters struct {
	frames  int
	drained int
	applied int
	gated   int
}

// New returns a scheduler in Live mode.
func New(write WriteConfig, deps Dependencies) *Scheduler {
	return &Scheduler{
		deps:      deps,
		write:     write,
		mode:      Live,
		statsFrom: time.Now(),
	}
}

// NewReplay returns a scheduler that replays the given trace and then
// goes inert.
func NewReplay(deps Dependencies, frames []core.FrameRecord) *Scheduler {
	s := &Scheduler{
		deps:      deps,
		mode:      PlaybackMode,
		statsFrom: time.Now(),
	}
	s.playback = NewPlayback(frames, s.frame.Load())
	deps.Logger.Info("Replay armed", "entries", s.playback.Len())
	return s
}

// Mode returns the current operating mode name.
func (s *Scheduler) Mode() string {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.mode.String()
}

// Frame returns the current frame number.
func (s *Scheduler) Frame() int64 {
	return s.frame.Load()
}

func (s *Scheduler) setMode(m Mode) {
	s.statsMu.Lock()
	s.mode = m
	s.statsMu.Unlock()
}

func (s *Scheduler) currentMode() Mode {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.mode
}

// Tick advances one frame. dt is the frame duration in seconds. The
// per-frame contract is best effort: parse failures and storage errors
// are logged and the loop carries on.
func (s *Scheduler) Tick(dt float64) {
	s.frame.Add(1)

	switch s.currentMode() {
	case PlaybackMode:
		s.tickPlayback()
	case Live:
		s.tickLive(dt)
	case Idle:
		// Inert. Keep draining so the transport buffer cannot grow.
		if s.deps.Transport != nil {
			s.deps.Transport.Drain()
		}
	}

	s.statsMu.Lock()
	s.stats.frames++
	s.statsMu.Unlock()
}

func (s *Scheduler) tickPlayback() {
	// Real sensor data is discarded during replay, but still drained.
	if s.deps.Transport != nil {
		s.deps.Transport.Drain()
	}

	entry := s.playback.Step(s.frame.Load())
	if entry != nil {
		s.deps.Integrator.SetPose(entry.Pose)
		s.statsMu.Lock()
		s.stats.applied++
		s.statsMu.Unlock()
	}
	if s.playback.Done() && s.currentMode() != Idle {
		s.setMode(Idle)
		s.deps.Logger.Info("Replay exhausted, going idle", "frame", s.frame.Load())
	}
}

func (s *Scheduler) tickLive(dt float64) {
	s.framesSinceWrite++
	s.framesStill++

	var slipHeading float64
	scripted := false
	if s.deps.Behavior != nil {
		slipHeading, scripted = s.deps.Behavior.Tick(dt, s.deps.Integrator.Pose().Rotation.Y)
	}

	msgs := s.deps.Transport.Drain()
	s.statsMu.Lock()
	s.stats.drained += len(msgs)
	s.statsMu.Unlock()

	// Several reports can land in one frame; spread the frame interval
	// across them so the gate sees the per-report angular rate, not 1/N
	// of it.
	sampleDt := dt
	if len(msgs) > 1 {
		sampleDt = dt / float64(len(msgs))
	}

	frame := s.frame.Load()
	for i := range msgs {
		sample, ok := s.deps.Decoder.Decode(msgs[i].Data, msgs[i].ReadAt.UnixMilli())
		if !ok {
			// Malformed message: drop it, resume on the next one.
			s.deps.Logger.Debug("Dropping malformed sensor message", "frame", frame)
			continue
		}

		if s.deps.Gate != nil {
			s.deps.Gate.UpdateRelative(sample.HeadingDeltaDeg, sampleDt)
		}

		var rec *core.FrameRecord
		applied := false
		if scripted {
			rec = s.deps.Integrator.Observe(sample, frame)
		} else {
			rec, applied = s.deps.Integrator.Integrate(sample, frame)
		}
		if rec == nil {
			continue
		}

		s.logFrame(rec)
		if applied {
			s.framesStill = 0
			if s.deps.HeadingMean != nil {
				s.deps.HeadingMean.Record(s.deps.Integrator.Pose().Rotation.Y)
			}
		}

		s.statsMu.Lock()
		if applied {
			s.stats.applied++
		} else {
			s.stats.gated++
		}
		s.statsMu.Unlock()
	}

	if scripted {
		s.deps.Integrator.SetHeading(slipHeading)
	}

	s.maybeFlush()
}

func (s *Scheduler) logFrame(rec *core.FrameRecord) {
	if err := s.deps.Backend.RecordFrame(rec); err != nil {
		s.deps.Logger.Error("Recording frame failed", "frame", rec.Frame, "error", err)
	}
}

// maybeFlush applies the adaptive write schedule: flush once the agent
// has been still for MinWriteInterval frames (and at least StillFrames),
// or unconditionally after MaxWriteInterval frames, bounding both the
// buffered batch and the data-loss window.
func (s *Scheduler) maybeFlush() {
	if s.deps.Backend.BufferedFrames() == 0 {
		return
	}

	settled := s.framesStill >= s.write.StillFrames &&
		s.framesStill >= s.write.MinWriteInterval
	overdue := s.framesSinceWrite >= s.write.MaxWriteInterval
	if !settled && !overdue {
		return
	}

	if err := s.deps.Backend.Flush(); err != nil {
		s.deps.Logger.Error("Session log flush failed", "frame", s.frame.Load(), "error", err)
		return
	}
	s.framesSinceWrite = 0
	s.framesStill = 0
}

// Close forces a final flush. Called at session end before the heading
// mean is persisted.
func (s *Scheduler) Close() error {
	if err := s.deps.Backend.Flush(); err != nil {
		return fmt.Errorf("final session flush: %w", err)
	}
	return nil
}

// IntervalStats reports the counters accumulated since the previous
// call and resets them. Safe to call from the monitor goroutine.
func (s *Scheduler) IntervalStats() influx.FrameStats {
	s.statsMu.Lock()
	counters := s.stats
	s.stats = intervalCounters{}
	since := time.Since(s.statsFrom)
	s.statsFrom = time.Now()
	s.statsMu.Unlock()

	stats := influx.FrameStats{
		SamplesDrained: counters.drained,
		FramesApplied:  counters.applied,
		FramesGated:    counters.gated,
		BufferedFrames: s.deps.Backend.BufferedFrames(),
	}
	if since > 0 {
		stats.FramesPerSec = float64(counters.frames) / since.Seconds()
	}
	if d, ok := s.deps.Backend.(interface{ LastWriteDuration() time.Duration }); ok {
		stats.LastWriteMs = float64(d.LastWriteDuration().Microseconds()) / 1000
	}
	return stats
}
