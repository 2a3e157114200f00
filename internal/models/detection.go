package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DetectionBox locates a plate in normalized [0,1] image coordinates.
// X, Y is the top-left corner.
type DetectionBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Clamp keeps the box inside the unit square, shrinking the extent
// when the origin plus size would cross the right or bottom edge.
func (b DetectionBox) Clamp() DetectionBox {
	b.X = clamp01(b.X)
	b.Y = clamp01(b.Y)
	b.Width = min(clamp01(b.Width), 1-b.X)
	b.Height = min(clamp01(b.Height), 1-b.Y)
	return b
}

// Within reports whether the box satisfies the clamp invariant.
func (b DetectionBox) Within() bool {
	in := func(v float64) bool { return v >= 0 && v <= 1 }
	return in(b.X) && in(b.Y) && in(b.Width) && in(b.Height) &&
		b.X+b.Width <= 1 && b.Y+b.Height <= 1
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}

// PlateDetection is one recognized plate.
type PlateDetection struct {
	PlateNumber string       `json:"plate_number"`
	Confidence  float64      `json:"confidence"`
	Box         DetectionBox `json:"box"`
}

// DetectionResult is the output of one detection run.
type DetectionResult struct {
	OriginalImage  string           `json:"original_image"`
	Detections     []PlateDetection `json:"detections"`
	ProcessingTime float64          `json:"processing_time_ms"`
	ModelName      string           `json:"model_name"`
}

type NotificationKind string

const (
	NotificationStarted   NotificationKind = "started"
	NotificationCompleted NotificationKind = "completed"
	NotificationCanceled  NotificationKind = "canceled"
)

// Notification is an advisory status message about a run.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	RunID       uuid.UUID        `json:"run_id"`
	ModelID     string           `json:"model_id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Count       int              `json:"count"`
	Time        time.Time        `json:"time"`
}

// PlateCountText renders "Found 1 license plate." style counts.
func PlateCountText(n int) string {
	return fmt.Sprintf("%d license plate%s", n, plural(n))
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
