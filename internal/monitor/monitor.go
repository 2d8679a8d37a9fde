// Package monitor periodically reports rig health: frame rate, sensor
// drain counts and write-flush latency. Reports go to the log, to a
// status file next to the session logs, and to InfluxDB when enabled.
package monitor

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/closedloop-vr/ballrig/internal/influx"
	"github.com/closedloop-vr/ballrig/internal/logging"
)

// StatsSource hands out one report interval's worth of counters. The
// session scheduler implements it; each call resets the interval
// counters.
type StatsSource interface {
	IntervalStats() influx.FrameStats
	Mode() string
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager *logging.SlogManager
	Influx     *influx.Manager // nil disables metric export
	Source     StatsSource
	RigName    string
	StatusDir  string
	Interval   time.Duration
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

type statusSnapshot struct {
	Time  string            `json:"time"`
	Rig   string            `json:"rig"`
	Mode  string            `json:"mode"`
	Stats influx.FrameStats `json:"stats"`
}

// Report collects one interval's stats and fans them out. Exposed so
// tests and the shutdown path can force a final report.
func (s *Service) Report(statusFile *os.File) {
	stats := s.deps.Source.IntervalStats()
	mode := s.deps.Source.Mode()
	logger := s.deps.LogManager.Logger()

	logger.Debug("Rig status",
		"mode", mode,
		"fps", stats.FramesPerSec,
		"drained", stats.SamplesDrained,
		"applied", stats.FramesApplied,
		"gated", stats.FramesGated,
		"buffered", stats.BufferedFrames,
		"lastWriteMs", stats.LastWriteMs)

	if statusFile != nil {
		snap := statusSnapshot{
			Time:  time.Now().UTC().Format(time.RFC3339),
			Rig:   s.deps.RigName,
			Mode:  mode,
			Stats: stats,
		}
		if data, err := json.MarshalIndent(snap, "", "  "); err == nil {
			statusFile.Truncate(0)
			statusFile.Seek(0, 0)
			statusFile.Write(append(data, '\n'))
		}
	}

	if s.deps.Influx != nil {
		point := influx.NewFramePoint(s.deps.RigName, mode, stats)
		err := s.deps.Influx.WritePoint(context.Background(), influx.BucketRigPerformance, point)
		if err != nil {
			logger.Error("Error writing rig performance point", "error", err)
		}
	}
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		var statusFile *os.File
		if s.deps.StatusDir != "" {
			var err error
			statusFile, err = os.Create(filepath.Join(s.deps.StatusDir, "status.json"))
			if err != nil {
				logger.Error("Error creating status file", "error", err)
			} else {
				defer statusFile.Close()
			}
		}

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Report(statusFile)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
