package detect

import (
	"fmt"

	"github.com/your-org/lpr/internal/models"
)

// Notifier receives advisory run notifications. Completion and
// cancellation are delivered from timer goroutines, so implementations
// must be safe for concurrent use and should not block.
type Notifier interface {
	Notify(n models.Notification)
}

type NotifierFunc func(n models.Notification)

func (f NotifierFunc) Notify(n models.Notification) { f(n) }

// Notifiers fans a notification out to each member in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(n models.Notification) {
	for _, x := range ns {
		if x != nil {
			x.Notify(n)
		}
	}
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(models.Notification) {})

const (
	startedTitle       = "Processing image"
	startedDescription = "Analyzing with the selected model..."
	completedTitle     = "Analysis complete"
	canceledTitle      = "Detection canceled"
)

func completedDescription(count int) string {
	return fmt.Sprintf("Found %s.", models.PlateCountText(count))
}
