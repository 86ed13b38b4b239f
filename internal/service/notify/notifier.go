// Package notify delivers operator messages such as the daily feed summary.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	whatsappclient "github.com/mamadbah2/herdbook/pkg/clients/whatsapp"
)

// Notifier sends a text message to the farm operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// WhatsApp sends every message to a single configured recipient.
type WhatsApp struct {
	client    whatsappclient.Client
	recipient string
	logger    *zap.Logger
}

// NewWhatsApp builds a notifier for recipient.
func NewWhatsApp(client whatsappclient.Client, recipient string, logger *zap.Logger) *WhatsApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WhatsApp{client: client, recipient: recipient, logger: logger}
}

// Notify sends message to the configured recipient.
func (w *WhatsApp) Notify(ctx context.Context, message string) error {
	if message == "" {
		return nil
	}

	resp, err := w.client.SendTextMessage(ctx, whatsappclient.SendTextMessageRequest{
		To:   w.recipient,
		Body: message,
	})
	if err != nil {
		return fmt.Errorf("notify %s: %w", w.recipient, err)
	}

	var messageID string
	if resp != nil && len(resp.Messages) > 0 {
		messageID = resp.Messages[0].ID
	}
	w.logger.Info("notification sent", zap.String("to", w.recipient), zap.String("message_id", messageID))
	return nil
}

// Log writes messages to the logger instead of sending them. It is used when
// no messaging channel is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog builds a logging notifier.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Notify writes message to the log.
func (l *Log) Notify(_ context.Context, message string) error {
	l.logger.Info("notification", zap.String("message", message))
	return nil
}
