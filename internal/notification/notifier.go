package notification

import (
	"log/slog"
)

// Level classifies a notification for the presentation layer.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier is the outbound notification sink. Implementations are
// fire-and-forget: a delivery failure must never affect the workflow
// mutation that triggered it.
type Notifier interface {
	Notify(userID int64, message string, level Level)
}

// SlogNotifier writes notifications to the structured log. It stands in
// for real delivery channels, which are out of scope here.
type SlogNotifier struct {
	logger *slog.Logger
}

func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	return &SlogNotifier{logger: logger}
}

func (n *SlogNotifier) Notify(userID int64, message string, level Level) {
	n.logger.Info("notification",
		"user_id", userID,
		"level", level,
		"message", message)
}
