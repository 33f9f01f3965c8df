package notify

import (
	"context"
	"log/slog"
)

// Notifier is the user-visible notification sink: fire-and-forget success
// and error messages that the presentation layer renders as toasts.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// LogNotifier writes notifications to the structured log. Used by headless
// commands where no presentation layer is attached.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a Notifier backed by the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(ctx context.Context, message string) {
	n.logger.InfoContext(ctx, message, slog.String("notice", "success"))
}

func (n *LogNotifier) Error(ctx context.Context, message string) {
	n.logger.WarnContext(ctx, message, slog.String("notice", "error"))
}
