package detect

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/lpr/internal/models"
)

// ErrCanceled is returned by Wait when the run was canceled before it resolved.
var ErrCanceled = errors.New("detection canceled")

type State int

const (
	StatePending State = iota
	StateCompleted
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCompleted:
		return "completed"
	case StateCanceled:
		return "canceled"
	}
	return "unknown"
}

// Pending is a timer-backed deferred detection result.
type Pending struct {
	id      uuid.UUID
	modelID string
	started time.Time
	done    chan struct{}

	mu       sync.Mutex
	state    State
	result   models.DetectionResult
	stop     func() bool
	release  func() bool
	onCancel func()
}

func newPending(modelID string, started time.Time) *Pending {
	return &Pending{
		id:      uuid.New(),
		modelID: modelID,
		started: started,
		done:    make(chan struct{}),
	}
}

func (p *Pending) ID() uuid.UUID        { return p.id }
func (p *Pending) ModelID() string      { return p.modelID }
func (p *Pending) StartedAt() time.Time { return p.started }

// Done is closed once the run completes or is canceled.
func (p *Pending) Done() <-chan struct{} { return p.done }

func (p *Pending) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Wait blocks until the run finishes or ctx ends. A ctx that ends
// first only abandons the wait; the run keeps going.
func (p *Pending) Wait(ctx context.Context) (models.DetectionResult, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		return models.DetectionResult{}, ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateCanceled {
		return models.DetectionResult{}, ErrCanceled
	}
	return cloneResult(p.result), nil
}

// Result returns the result without blocking; ok is false until completed.
func (p *Pending) Result() (models.DetectionResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateCompleted {
		return models.DetectionResult{}, false
	}
	return cloneResult(p.result), true
}

// Cancel stops the timer. It returns false when the run already finished.
func (p *Pending) Cancel() bool {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()
		return false
	}
	p.state = StateCanceled
	stop, release, onCancel := p.stop, p.release, p.onCancel
	close(p.done)
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
	if release != nil {
		release()
	}
	if onCancel != nil {
		onCancel()
	}
	return true
}

func (p *Pending) resolve(r models.DetectionResult) bool {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()
		return false
	}
	p.state = StateCompleted
	p.result = r
	release := p.release
	close(p.done)
	p.mu.Unlock()

	if release != nil {
		release()
	}
	return true
}

// attach installs the timer and context hooks. If the run already
// finished (an instant timer, or ctx done) they are released at once.
func (p *Pending) attach(stop, release func() bool) {
	p.mu.Lock()
	if p.state != StatePending {
		p.mu.Unlock()
		if stop != nil {
			stop()
		}
		if release != nil {
			release()
		}
		return
	}
	p.stop = stop
	p.release = release
	p.mu.Unlock()
}

func cloneResult(r models.DetectionResult) models.DetectionResult {
	dets := make([]models.PlateDetection, len(r.Detections))
	copy(dets, r.Detections)
	r.Detections = dets
	return r
}
