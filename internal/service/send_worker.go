// internal/service/send_worker.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dirihq/newsletter-service/internal/mail"
	"github.com/dirihq/newsletter-service/internal/queue"
)

// SendWorker turns queued delivery messages into mail transport calls. The
// consuming binary owns acking and retry; a returned error means the
// delivery should be retried or dropped by its policy.
type SendWorker struct {
	Sender mail.Sender
}

func NewSendWorker(sender mail.Sender) *SendWorker {
	return &SendWorker{Sender: sender}
}

// HandleDelivery decodes one queued message body and sends it.
func (w *SendWorker) HandleDelivery(ctx context.Context, body []byte) error {
	var msg queue.MessageBody
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("invalid delivery payload: %w", err)
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("delivery payload has no recipients")
	}

	if err := w.Sender.Send(ctx, msg.To, msg.Subject, msg.HTML, msg.Text); err != nil {
		return fmt.Errorf("send to %v: %w", msg.To, err)
	}

	log.Println("✅ delivered message to", msg.To)
	return nil
}
