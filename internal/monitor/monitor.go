// Package monitor periodically reports the state of a long-running watch session.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/animconv/internal/worker"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = 10 * time.Second

// StatusProvider reports conversion counters; *worker.Manager implements it.
type StatusProvider interface {
	Status() worker.Status
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger     *slog.Logger
	Worker     StatusProvider
	Pending    func() int // queued history writes, optional
	StatusPath string     // status file rewritten on every tick, optional
	Interval   time.Duration
}

// ProgramStatus is written to the status file.
type ProgramStatus struct {
	Time          time.Time     `json:"time"`
	Uptime        string        `json:"uptime"`
	Worker        worker.Status `json:"worker"`
	PendingWrites int           `json:"pendingWrites"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	started   time.Time
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current program status.
func (s *Service) GetProgramStatus() ProgramStatus {
	now := time.Now()
	st := ProgramStatus{Time: now}
	if !s.started.IsZero() {
		st.Uptime = now.Sub(s.started).Round(time.Second).String()
	}
	if s.deps.Worker != nil {
		st.Worker = s.deps.Worker.Status()
	}
	if s.deps.Pending != nil {
		st.PendingWrites = s.deps.Pending()
	}
	return st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}

	var statusFile *os.File
	if s.deps.StatusPath != "" {
		f, err := os.Create(s.deps.StatusPath)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("error creating status file: %w", err)
		}
		statusFile = f
	}

	s.isRunning = true
	s.started = time.Now()
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()
		if statusFile != nil {
			defer statusFile.Close()
		}

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		var last worker.Status
		for {
			select {
			case <-stop:
				s.report(statusFile, &last)
				return
			case <-ticker.C:
				s.report(statusFile, &last)
			}
		}
	}()

	return nil
}

// report rewrites the status file and logs when the counters changed.
func (s *Service) report(statusFile *os.File, last *worker.Status) {
	st := s.GetProgramStatus()

	if statusFile != nil {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			data = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
		}
		statusFile.Truncate(0)
		statusFile.Seek(0, 0)
		statusFile.Write(append(data, '\n'))
	}

	if st.Worker.Converted != last.Converted || st.Worker.Failed != last.Failed {
		s.deps.Logger.Info("Watch status",
			"converted", st.Worker.Converted,
			"failed", st.Worker.Failed,
			"pendingWrites", st.PendingWrites,
			"uptime", st.Uptime)
	}
	*last = st.Worker
}

// Stop stops the status monitor and waits for the final report.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
