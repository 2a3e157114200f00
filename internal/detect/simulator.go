// Package detect simulates license plate detection. No image is ever
// inspected: results are drawn at random from per-model profiles and
// delivered after a simulated processing delay.
package detect

import (
	"context"
	"time"

	"github.com/your-org/lpr/internal/catalog"
	"github.com/your-org/lpr/internal/models"
	"github.com/your-org/lpr/internal/plate"
	"github.com/your-org/lpr/internal/rng"
)

// AfterFunc runs f once d has elapsed and returns a func that stops it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func realAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Lookuper resolves model ids to catalog profiles.
type Lookuper interface {
	Lookup(id string) (catalog.Profile, bool)
}

// Simulator fabricates detection results.
type Simulator struct {
	src       rng.Source
	catalog   Lookuper
	notifier  Notifier
	afterFunc AfterFunc
	now       func() time.Time
}

type Option func(*Simulator)

func WithSource(src rng.Source) Option {
	return func(s *Simulator) { s.src = src }
}

func WithCatalog(c Lookuper) Option {
	return func(s *Simulator) { s.catalog = c }
}

func WithNotifier(n Notifier) Option {
	return func(s *Simulator) {
		if n == nil {
			n = Discard
		}
		s.notifier = n
	}
}

func WithAfterFunc(f AfterFunc) Option {
	return func(s *Simulator) { s.afterFunc = f }
}

// New returns a simulator using the process-wide random source, the
// builtin catalog and real timers unless overridden.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		src:       rng.Default(),
		catalog:   catalog.Builtin(),
		notifier:  Discard,
		afterFunc: realAfterFunc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detect starts a simulated run over image using modelID. The image is
// echoed back untouched. Unknown model ids use DefaultProfile and report
// catalog.UnknownModelName. Canceling ctx cancels the run.
func (s *Simulator) Detect(ctx context.Context, image, modelID string) *Pending {
	prof := ProfileFor(modelID)

	processingTime := rng.Uniform(s.src, prof.ProcessingTime.Min, prof.ProcessingTime.Max)
	count := int(rng.Uniform(s.src, prof.DetectionCount.Min, prof.DetectionCount.Max))

	detections := make([]models.PlateDetection, 0, count)
	for i := 0; i < count; i++ {
		detections = append(detections, s.fabricate(prof))
	}

	result := models.DetectionResult{
		OriginalImage:  image,
		Detections:     detections,
		ProcessingTime: processingTime,
		ModelName:      s.modelName(modelID),
	}

	p := newPending(modelID, s.now())
	p.onCancel = func() {
		s.notify(p, models.NotificationCanceled, canceledTitle, "The pending analysis was stopped.", 0)
	}

	s.notify(p, models.NotificationStarted, startedTitle, startedDescription, 0)

	stop := s.afterFunc(Duration(processingTime), func() {
		if p.resolve(result) {
			s.notify(p, models.NotificationCompleted, completedTitle, completedDescription(len(detections)), len(detections))
		}
	})

	var release func() bool
	if ctx.Done() != nil {
		release = context.AfterFunc(ctx, func() { p.Cancel() })
	}
	p.attach(stop, release)

	return p
}

func (s *Simulator) fabricate(prof TimingProfile) models.PlateDetection {
	number := plate.Generate(s.src)
	confidence := rng.Uniform(s.src, prof.Confidence.Min, prof.Confidence.Max)
	box := models.DetectionBox{
		X:      rng.Uniform(s.src, BoxX.Min, BoxX.Max),
		Y:      rng.Uniform(s.src, BoxY.Min, BoxY.Max),
		Width:  rng.Uniform(s.src, BoxWidth.Min, BoxWidth.Max),
		Height: rng.Uniform(s.src, BoxHeight.Min, BoxHeight.Max),
	}
	return models.PlateDetection{
		PlateNumber: number,
		Confidence:  confidence,
		Box:         box.Clamp(),
	}
}

func (s *Simulator) modelName(modelID string) string {
	if s.catalog != nil {
		if p, ok := s.catalog.Lookup(modelID); ok {
			return p.Name
		}
	}
	return catalog.UnknownModelName
}

func (s *Simulator) notify(p *Pending, kind models.NotificationKind, title, description string, count int) {
	s.notifier.Notify(models.Notification{
		Kind:        kind,
		RunID:       p.ID(),
		ModelID:     p.ModelID(),
		Title:       title,
		Description: description,
		Count:       count,
		Time:        s.now(),
	})
}

// Duration converts a processing time in milliseconds to a time.Duration.
func Duration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
