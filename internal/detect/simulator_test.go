package detect

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/your-org/lpr/internal/catalog"
	"github.com/your-org/lpr/internal/models"
	"github.com/your-org/lpr/internal/plate"
	"github.com/your-org/lpr/internal/rng"
)

func instant(_ time.Duration, f func()) func() bool {
	f()
	return func() bool { return false }
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// fire runs every timer that was not stopped, even ones already fired.
func (c *manualClock) fire() {
	c.mu.Lock()
	var run []func()
	for _, t := range c.timers {
		if !t.stopped {
			t.fired = true
			run = append(run, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range run {
		f()
	}
}

func (c *manualClock) last() *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[len(c.timers)-1]
}

type recorder struct {
	mu  sync.Mutex
	got []models.Notification
}

func (r *recorder) Notify(n models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
}

func (r *recorder) kinds() []models.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.NotificationKind, len(r.got))
	for i, n := range r.got {
		out[i] = n.Kind
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectDeterministic(t *testing.T) {
	src := rng.NewSequence(0.5)
	sim := New(WithSource(src), WithAfterFunc(instant))

	res, err := sim.Detect(context.Background(), "img://car.jpg", "tiny-lpr").Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if res.OriginalImage != "img://car.jpg" {
		t.Errorf("OriginalImage = %q", res.OriginalImage)
	}
	if res.ModelName != "Tiny LPR" {
		t.Errorf("ModelName = %q", res.ModelName)
	}
	if !approx(res.ProcessingTime, 350) {
		t.Errorf("ProcessingTime = %v, want 350", res.ProcessingTime)
	}
	if len(res.Detections) != 1 {
		t.Fatalf("got %d detections, want 1", len(res.Detections))
	}

	d := res.Detections[0]
	if d.PlateNumber != "NN-5555" {
		t.Errorf("PlateNumber = %q, want NN-5555", d.PlateNumber)
	}
	if !approx(d.Confidence, 0.65) {
		t.Errorf("Confidence = %v, want 0.65", d.Confidence)
	}
	want := models.DetectionBox{X: 0.4, Y: 0.6, Width: 0.225, Height: 0.075}
	if !approx(d.Box.X, want.X) || !approx(d.Box.Y, want.Y) ||
		!approx(d.Box.Width, want.Width) || !approx(d.Box.Height, want.Height) {
		t.Errorf("Box = %+v, want %+v", d.Box, want)
	}

	// time, count, template, 2 letters, 4 digits, confidence, 4 box values
	if src.Drawn() != 14 {
		t.Errorf("consumed %d draws, want 14", src.Drawn())
	}
}

func TestDetectDrawOrder(t *testing.T) {
	src := rng.NewSequence(
		0,   // processing time -> 1500
		0.5, // count -> 1 + 0.5*3 = 2.5 -> 2
		0.9, // long template
		0, 0, 0,
		0, 0, 0, 0,
		0, // confidence -> 0.85
		0, 0, 0, 0,
		0.1, // short template
		0.99, 0.99,
		0.99, 0.99, 0.99, 0.99,
		0.99,
		0.99, 0.99, 0.99, 0.99,
	)
	sim := New(WithSource(src), WithAfterFunc(instant))

	res, err := sim.Detect(context.Background(), "x", "transformer").Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !approx(res.ProcessingTime, 1500) {
		t.Errorf("ProcessingTime = %v", res.ProcessingTime)
	}
	if len(res.Detections) != 2 {
		t.Fatalf("got %d detections, want 2", len(res.Detections))
	}
	if res.Detections[0].PlateNumber != "AAA-0000" || res.Detections[1].PlateNumber != "ZZ-9999" {
		t.Errorf("plates = %q, %q", res.Detections[0].PlateNumber, res.Detections[1].PlateNumber)
	}
	if !approx(res.Detections[0].Confidence, 0.85) {
		t.Errorf("first confidence = %v", res.Detections[0].Confidence)
	}
	first := res.Detections[0].Box
	if !approx(first.X, 0.1) || !approx(first.Y, 0.4) || !approx(first.Width, 0.15) || !approx(first.Height, 0.05) {
		t.Errorf("first box = %+v", first)
	}
	second := res.Detections[1].Box
	if !second.Within() {
		t.Errorf("second box %+v escapes the unit square", second)
	}
}

func TestDetectRanges(t *testing.T) {
	ids := []string{"fast-yolo", "accurate-yolo", "transformer", "tiny-lpr", "no-such-model"}
	for _, id := range ids {
		t.Run(id, func(t *testing.T) {
			prof := ProfileFor(id)
			sim := New(WithSource(rng.NewSeeded(uint64(len(id)))), WithAfterFunc(instant))
			seen := map[int]bool{}

			for i := 0; i < 500; i++ {
				p := sim.Detect(context.Background(), "img", id)
				res, ok := p.Result()
				if !ok {
					t.Fatal("instant timer should resolve before Detect returns")
				}

				if res.ProcessingTime < prof.ProcessingTime.Min || res.ProcessingTime >= prof.ProcessingTime.Max {
					t.Fatalf("processing time %v outside %+v", res.ProcessingTime, prof.ProcessingTime)
				}
				n := len(res.Detections)
				if n < prof.MinDetections() || n > prof.MaxDetections() {
					t.Fatalf("detection count %d outside [%d, %d]", n, prof.MinDetections(), prof.MaxDetections())
				}
				seen[n] = true

				for _, d := range res.Detections {
					if !plate.Valid(d.PlateNumber) {
						t.Fatalf("invalid plate %q", d.PlateNumber)
					}
					if !prof.Confidence.Contains(d.Confidence) {
						t.Fatalf("confidence %v outside %+v", d.Confidence, prof.Confidence)
					}
					b := d.Box
					if !BoxX.Contains(b.X) || !BoxY.Contains(b.Y) || !BoxWidth.Contains(b.Width) || !BoxHeight.Contains(b.Height) {
						t.Fatalf("box %+v outside placement ranges", b)
					}
					if !b.Within() {
						t.Fatalf("box %+v escapes the unit square", b)
					}
				}
			}

			for n := prof.MinDetections(); n <= prof.MaxDetections(); n++ {
				if !seen[n] {
					t.Errorf("count %d never produced in 500 runs", n)
				}
			}
		})
	}
}

func TestDetectUnknownModel(t *testing.T) {
	sim := New(WithSource(rng.NewSequence(0)), WithAfterFunc(instant))
	res, err := sim.Detect(context.Background(), "img", "mystery").Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.ModelName != catalog.UnknownModelName {
		t.Errorf("ModelName = %q, want %q", res.ModelName, catalog.UnknownModelName)
	}
	if !approx(res.ProcessingTime, DefaultProfile.ProcessingTime.Min) {
		t.Errorf("ProcessingTime = %v, want default profile minimum", res.ProcessingTime)
	}
	if len(res.Detections) != 1 {
		t.Errorf("got %d detections, want default minimum of 1", len(res.Detections))
	}
}

func TestDetectCustomCatalog(t *testing.T) {
	c, err := catalog.New([]catalog.Profile{
		{ID: "tiny-lpr", Name: "Edge Reader", Speed: catalog.SpeedVeryFast, Accuracy: catalog.AccuracyLow},
	})
	if err != nil {
		t.Fatal(err)
	}
	sim := New(WithCatalog(c), WithAfterFunc(instant))
	res, _ := sim.Detect(context.Background(), "img", "tiny-lpr").Result()
	if res.ModelName != "Edge Reader" {
		t.Errorf("ModelName = %q, want Edge Reader", res.ModelName)
	}
	res, _ = sim.Detect(context.Background(), "img", "transformer").Result()
	if res.ModelName != catalog.UnknownModelName {
		t.Errorf("ModelName = %q, want %q", res.ModelName, catalog.UnknownModelName)
	}
}

func TestDetectSchedulesProcessingTime(t *testing.T) {
	clock := &manualClock{}
	sim := New(WithSource(rng.NewSequence(0.5)), WithAfterFunc(clock.AfterFunc))

	p := sim.Detect(context.Background(), "img", "accurate-yolo")
	if got := clock.last().d; got != 1000*time.Millisecond {
		t.Errorf("scheduled delay = %v, want 1s", got)
	}

	select {
	case <-p.Done():
		t.Fatal("run resolved before its delay elapsed")
	default:
	}
	if p.State() != StatePending {
		t.Errorf("State() = %v, want pending", p.State())
	}
	if _, ok := p.Result(); ok {
		t.Error("Result() should not be available while pending")
	}

	clock.fire()

	res, err := p.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.State() != StateCompleted {
		t.Errorf("State() = %v, want completed", p.State())
	}
	if res.ModelName != "Accurate YOLO v5" {
		t.Errorf("ModelName = %q", res.ModelName)
	}
}

func TestDetectRealTimer(t *testing.T) {
	if testing.Short() {
		t.Skip("uses real timers")
	}
	sim := New()
	start := time.Now()
	res, err := sim.Detect(context.Background(), "img", "tiny-lpr").Wait(context.Background())
	elapsed := time.Since(start)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed < Duration(res.ProcessingTime) {
		t.Errorf("resolved after %v, before processing time %vms", elapsed, res.ProcessingTime)
	}
	if elapsed > 2*time.Second {
		t.Errorf("tiny-lpr took %v", elapsed)
	}
	if len(res.Detections) > 1 {
		t.Errorf("tiny-lpr produced %d detections", len(res.Detections))
	}
}

func TestNotifications(t *testing.T) {
	rec := &recorder{}
	clock := &manualClock{}
	sim := New(WithSource(rng.NewSequence(0.5)), WithAfterFunc(clock.AfterFunc), WithNotifier(rec))

	p := sim.Detect(context.Background(), "img", "fast-yolo")
	if kinds := rec.kinds(); len(kinds) != 1 || kinds[0] != models.NotificationStarted {
		t.Fatalf("before resolution got %v, want [started]", kinds)
	}

	clock.fire()
	if _, err := p.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	kinds := rec.kinds()
	if len(kinds) != 2 || kinds[1] != models.NotificationCompleted {
		t.Fatalf("got %v, want [started completed]", kinds)
	}

	rec.mu.Lock()
	started, done := rec.got[0], rec.got[1]
	rec.mu.Unlock()
	if started.Title != "Processing image" || started.RunID != p.ID() || started.ModelID != "fast-yolo" {
		t.Errorf("started notification = %+v", started)
	}
	// fast-yolo with 0.5 draws: count = floor(1.5) = 1
	if done.Count != 1 || done.Description != "Found 1 license plate." {
		t.Errorf("completed notification = %+v", done)
	}
}

func TestCancel(t *testing.T) {
	rec := &recorder{}
	clock := &manualClock{}
	sim := New(WithAfterFunc(clock.AfterFunc), WithNotifier(rec))

	p := sim.Detect(context.Background(), "img", "transformer")
	if !p.Cancel() {
		t.Fatal("Cancel() on a pending run should succeed")
	}
	if p.Cancel() {
		t.Error("second Cancel() should report false")
	}
	if !clock.last().stopped {
		t.Error("Cancel() should stop the timer")
	}

	clock.fire()

	if _, err := p.Wait(context.Background()); !errors.Is(err, ErrCanceled) {
		t.Errorf("Wait() error = %v, want ErrCanceled", err)
	}
	if p.State() != StateCanceled {
		t.Errorf("State() = %v, want canceled", p.State())
	}
	kinds := rec.kinds()
	if len(kinds) != 2 || kinds[1] != models.NotificationCanceled {
		t.Errorf("notifications = %v, want [started canceled]", kinds)
	}
}

func TestCancelAfterCompletion(t *testing.T) {
	sim := New(WithAfterFunc(instant))
	p := sim.Detect(context.Background(), "img", "tiny-lpr")
	if p.Cancel() {
		t.Error("Cancel() after completion should report false")
	}
	if _, err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestContextCancelsRun(t *testing.T) {
	clock := &manualClock{}
	sim := New(WithAfterFunc(clock.AfterFunc))

	ctx, cancel := context.WithCancel(context.Background())
	p := sim.Detect(ctx, "img", "accurate-yolo")
	cancel()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	if _, err := p.Wait(waitCtx); !errors.Is(err, ErrCanceled) {
		t.Errorf("Wait() error = %v, want ErrCanceled", err)
	}
}

func TestWaitContextOnlyAbandonsWait(t *testing.T) {
	clock := &manualClock{}
	sim := New(WithAfterFunc(clock.AfterFunc))
	p := sim.Detect(context.Background(), "img", "fast-yolo")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
	if p.State() != StatePending {
		t.Errorf("State() = %v, abandoning the wait must not cancel the run", p.State())
	}

	clock.fire()
	if _, err := p.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestResultIsACopy(t *testing.T) {
	sim := New(WithSource(rng.NewSequence(0.5)), WithAfterFunc(instant))
	p := sim.Detect(context.Background(), "img", "transformer")

	first, _ := p.Result()
	first.Detections[0].PlateNumber = "changed"
	second, _ := p.Result()
	if second.Detections[0].PlateNumber == "changed" {
		t.Error("Result() exposes internal detections slice")
	}
}

func TestOverlappingRunsAreIndependent(t *testing.T) {
	sim := New(WithAfterFunc(func(d time.Duration, f func()) func() bool {
		return time.AfterFunc(d/100, f).Stop
	}))

	var wg sync.WaitGroup
	ids := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			model := []string{"fast-yolo", "tiny-lpr", "transformer", "accurate-yolo"}[i%4]
			p := sim.Detect(context.Background(), "img", model)
			if _, err := p.Wait(context.Background()); err != nil {
				t.Errorf("run %d: %v", i, err)
			}
			ids <- p.ID().String()
		}(i)
	}
	wg.Wait()
	close(ids)

	unique := map[string]bool{}
	for id := range ids {
		unique[id] = true
	}
	if len(unique) != 20 {
		t.Errorf("got %d unique run ids, want 20", len(unique))
	}
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		id       string
		min, max int
	}{
		{"fast-yolo", 0, 2},
		{"accurate-yolo", 1, 2},
		{"transformer", 1, 3},
		{"tiny-lpr", 0, 1},
		{"", 1, 2},
	}
	for _, tt := range tests {
		p := ProfileFor(tt.id)
		if p.MinDetections() != tt.min || p.MaxDetections() != tt.max {
			t.Errorf("ProfileFor(%q) counts = [%d, %d], want [%d, %d]",
				tt.id, p.MinDetections(), p.MaxDetections(), tt.min, tt.max)
		}
	}
	if ProfileFor("unknown") != DefaultProfile {
		t.Error("unknown id should map to DefaultProfile")
	}
}
