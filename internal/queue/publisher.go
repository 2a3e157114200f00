package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/your-org/lpr/internal/models"
)

// Publisher sends run notifications to NATS so every API instance can
// relay them to its WebSocket clients.
type Publisher struct {
	nc     *nats.Conn
	prefix string
}

func connect(natsURL, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

func NewPublisher(natsURL, subjectPrefix string) (*Publisher, error) {
	nc, err := connect(natsURL, "lpr-publisher")
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, prefix: subjectPrefix}, nil
}

// Notify implements detect.Notifier. Publish failures are logged, never
// returned, since notifications are advisory.
func (p *Publisher) Notify(n models.Notification) {
	payload, err := encode(n)
	if err != nil {
		slog.Error("marshal notification", "error", err)
		return
	}
	if err := p.nc.Publish(Subject(p.prefix, n.Kind), payload); err != nil {
		slog.Warn("publish notification", "error", err, "run_id", n.RunID)
	}
}

func (p *Publisher) Ping() error {
	if !p.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (p *Publisher) Close() {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
	}
}

// Subject builds "<prefix>.<kind>".
func Subject(prefix string, kind models.NotificationKind) string {
	return strings.TrimSuffix(prefix, ".") + "." + string(kind)
}

// Wildcard matches every notification subject under prefix.
func Wildcard(prefix string) string {
	return strings.TrimSuffix(prefix, ".") + ".>"
}

func encode(n models.Notification) ([]byte, error) {
	return json.Marshal(n)
}

func decode(data []byte) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return models.Notification{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	return n, nil
}
