// Package notify sends short text messages to pet owners.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// Notifier delivers a message to a phone number
type Notifier interface {
	Notify(ctx context.Context, phone, message string) error
}

// LogNotifier writes messages to the log instead of sending them
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notify").Logger()}
}

// Notify logs the message at info level
func (n *LogNotifier) Notify(ctx context.Context, phone, message string) error {
	n.log.Info().Str("phone", phone).Str("message", message).Msg("Owner notification")
	return nil
}
