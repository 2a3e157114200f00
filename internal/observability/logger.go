package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/your-org/lpr/internal/models"
)

// SetupLogger installs the default slog logger. format is "json" or "text".
func SetupLogger(level, format string) {
	slog.SetDefault(NewLogger(os.Stdout, level, format))
}

func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogNotifier writes run notifications to a slog logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(msg models.Notification) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(msg.Title,
		"kind", msg.Kind,
		"run_id", msg.RunID,
		"model", msg.ModelID,
		"count", msg.Count,
		"description", msg.Description,
	)
}
