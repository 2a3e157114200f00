package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/your-org/lpr/internal/models"
)

type NotificationHandler func(n models.Notification)

type Subscriber struct {
	nc *nats.Conn
}

func NewSubscriber(natsURL string) (*Subscriber, error) {
	nc, err := connect(natsURL, "lpr-subscriber")
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc}, nil
}

// Subscribe delivers every notification under prefix to handler until
// ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, prefix string, handler NotificationHandler) error {
	sub, err := s.nc.Subscribe(Wildcard(prefix), func(msg *nats.Msg) {
		n, err := decode(msg.Data)
		if err != nil {
			slog.Warn("drop notification", "subject", msg.Subject, "error", err)
			return
		}
		handler(n)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", Wildcard(prefix), err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			slog.Debug("unsubscribe notifications", "error", err)
		}
	}()

	slog.Info("notification subscriber started", "subject", sub.Subject)
	return nil
}

func (s *Subscriber) Close() {
	s.nc.Close()
}
