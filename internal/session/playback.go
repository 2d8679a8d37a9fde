package session

import "github.com/closedloop-vr/ballrig/pkg/core"

// Playback walks a recorded frame trace. The trace is filtered on
// construction: zero-motion and gated frames never made it into the
// pose originally, so they are dropped from the replay timeline and
// gaps are bridged by frame-number matching instead.
type Playback struct {
	entries    []core.FrameRecord
	cursor     int
	startFrame int64
	done       bool
}

// NewPlayback builds a cursor over frames. startFrame is the
// scheduler's frame counter at the moment replay begins; recorded frame
// numbers are interpreted relative to it.
func NewPlayback(frames []core.FrameRecord, startFrame int64) *Playback {
	entries := make([]core.FrameRecord, 0, len(frames))
	for i := range frames {
		if frames[i].HasMotion() {
			entries = append(entries, frames[i])
		}
	}
	return &Playback{entries: entries, startFrame: startFrame}
}

// Len returns the number of replayable entries.
func (p *Playback) Len() int {
	return len(p.entries)
}

// Done reports whether the trace is exhausted.
func (p *Playback) Done() bool {
	return p.done
}

// Step advances the cursor for the given scheduler frame. It returns
// the entry due this frame, or nil when none is. Exhausting the trace
// sets Done; the entry returned alongside the final advance is still
// applied.
func (p *Playback) Step(frame int64) *core.FrameRecord {
	if p.done {
		return nil
	}

	adjusted := frame - p.startFrame
	for p.cursor < len(p.entries) && p.entries[p.cursor].Frame < adjusted {
		p.cursor++
	}
	if p.cursor >= len(p.entries) {
		p.done = true
		return nil
	}
	if p.entries[p.cursor].Frame == adjusted {
		entry := &p.entries[p.cursor]
		p.cursor++
		if p.cursor >= len(p.entries) {
			p.done = true
		}
		return entry
	}
	return nil
}
