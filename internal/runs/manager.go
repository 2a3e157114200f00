// Package runs tracks detection runs for the HTTP layer: lookup by id,
// cancellation, and latest-wins supersession within a session.
package runs

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/lpr/internal/detect"
	"github.com/your-org/lpr/internal/observability"
)

var (
	ErrNoImage  = errors.New("no image selected")
	ErrNotFound = errors.New("run not found")
	ErrFinished = errors.New("run already finished")
)

// Detector starts simulated detection runs.
type Detector interface {
	Detect(ctx context.Context, image, modelID string) *detect.Pending
}

// Run is one tracked detection.
type Run struct {
	Session string
	Pending *detect.Pending

	mu         sync.Mutex
	superseded bool
	finishedAt time.Time
}

func (r *Run) ID() uuid.UUID { return r.Pending.ID() }

// Status is the run state, with "superseded" for runs replaced by a
// newer run in the same session.
func (r *Run) Status() string {
	r.mu.Lock()
	superseded := r.superseded
	r.mu.Unlock()
	if superseded {
		return "superseded"
	}
	return r.Pending.State().String()
}

func (r *Run) FinishedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finishedAt
}

// Manager owns every run started through it.
type Manager struct {
	detector Detector
	ctx      context.Context
	now      func() time.Time

	mu       sync.RWMutex
	runs     map[uuid.UUID]*Run
	sessions map[string]*Run
}

// NewManager returns a manager whose runs live until ctx is done.
func NewManager(ctx context.Context, detector Detector) *Manager {
	return &Manager{
		detector: detector,
		ctx:      ctx,
		now:      time.Now,
		runs:     make(map[uuid.UUID]*Run),
		sessions: make(map[string]*Run),
	}
}

// Start begins a detection. A non-empty session supersedes that
// session's previous run if it is still pending.
func (m *Manager) Start(image, modelID, session string) (*Run, error) {
	if strings.TrimSpace(image) == "" {
		return nil, ErrNoImage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if prev := m.sessions[session]; session != "" && prev != nil {
		if prev.Pending.Cancel() {
			prev.mu.Lock()
			prev.superseded = true
			prev.mu.Unlock()
			observability.RunsCanceled.WithLabelValues("superseded").Inc()
			slog.Info("run superseded", "run_id", prev.ID(), "session", session)
		}
	}

	run := &Run{
		Session: session,
		Pending: m.detector.Detect(m.ctx, image, modelID),
	}
	m.runs[run.ID()] = run
	if session != "" {
		m.sessions[session] = run
	}

	observability.RunsStarted.WithLabelValues(modelID).Inc()
	observability.PendingRuns.Inc()
	go m.watch(run)

	return run, nil
}

func (m *Manager) watch(run *Run) {
	<-run.Pending.Done()
	observability.PendingRuns.Dec()

	run.mu.Lock()
	run.finishedAt = m.now()
	run.mu.Unlock()

	res, ok := run.Pending.Result()
	if !ok {
		return
	}
	model := run.Pending.ModelID()
	observability.PlatesDetected.WithLabelValues(model).Add(float64(len(res.Detections)))
	observability.SimulatedProcessing.WithLabelValues(model).Observe(detect.Duration(res.ProcessingTime).Seconds())
}

func (m *Manager) Get(id uuid.UUID) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return run, nil
}

// Cancel stops a pending run.
func (m *Manager) Cancel(id uuid.UUID) (*Run, error) {
	run, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if !run.Pending.Cancel() {
		return run, ErrFinished
	}
	observability.RunsCanceled.WithLabelValues("request").Inc()
	return run, nil
}

// List returns runs newest first.
func (m *Manager) List() []*Run {
	m.mu.RLock()
	out := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Pending.StartedAt().After(out[j].Pending.StartedAt())
	})
	return out
}

// Prune drops runs that finished more than ttl ago and returns how many.
func (m *Manager) Prune(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, run := range m.runs {
		finished := run.FinishedAt()
		if finished.IsZero() || finished.After(cutoff) {
			continue
		}
		delete(m.runs, id)
		if m.sessions[run.Session] == run {
			delete(m.sessions, run.Session)
		}
		removed++
	}
	return removed
}

// PruneEvery runs Prune on an interval until ctx is done.
func (m *Manager) PruneEvery(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Prune(ttl); n > 0 {
				slog.Debug("pruned finished runs", "count", n)
			}
		}
	}
}
