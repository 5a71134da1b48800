// Package notifier delivers human-readable status messages. Actual delivery
// transports (chat, email) are external collaborators behind the Notifier
// interface.
package notifier

import (
	"context"

	"go.uber.org/zap"
)

// Notifier sends a message to the operator. Fire-and-forget: failures are
// logged by implementations and never propagated to the core.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the message.
func (n *LogNotifier) Notify(_ context.Context, message string) {
	n.logger.Info("notification", zap.String("message", message))
}
