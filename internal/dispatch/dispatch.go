// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/dirihq/newsletter-service/internal/batch"
	"github.com/dirihq/newsletter-service/internal/mailtext"
	"github.com/dirihq/newsletter-service/internal/model"
	"github.com/dirihq/newsletter-service/internal/queue"
)

// Dispatcher turns a recipient list into batched queue submissions. Batches
// go out sequentially; the first failed submission aborts the rest and the
// error surfaces to the caller. Batches already submitted are not rolled back.
type Dispatcher struct {
	Transport queue.BatchTransport
	BaseURL   string // unsubscribe link base, e.g. https://news.example.com

	Now func() time.Time
}

func New(transport queue.BatchTransport, baseURL string) *Dispatcher {
	return &Dispatcher{Transport: transport, BaseURL: baseURL, Now: time.Now}
}

// Dispatch personalizes one message per recipient and submits them in batches
// of queue.MaxBatchSize. All batches of one call share a message group id so
// the transport keeps their relative order.
func (d *Dispatcher) Dispatch(ctx context.Context, content model.Content, recipients []model.Recipient) error {
	if len(recipients) == 0 {
		return nil
	}

	groupID := uuid.NewString()
	batches := batch.Chunk(recipients, queue.MaxBatchSize)

	seq := 0
	for i, group := range batches {
		entries := make([]queue.Entry, 0, len(group))
		for _, r := range group {
			unsubURL := mailtext.UnsubscribeURL(d.BaseURL, r.SubscribeID)
			body := queue.MessageBody{
				To:      []string{r.EmailAddress},
				Subject: mailtext.PersonalizeSubject(content.Subject, r.FirstName),
				HTML:    mailtext.AppendUnsubscribeHTML(content.BodyHTML, unsubURL),
				Text:    mailtext.AppendUnsubscribeText(content.BodyPlainText, unsubURL),
			}
			raw, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("marshal message for %s: %w", r.EmailAddress, err)
			}
			// The sequence number keeps ids unique even when the same
			// subscriber appears twice within one millisecond.
			entries = append(entries, queue.Entry{
				ID:      fmt.Sprintf("%d-%d-%s", d.Now().UnixMilli(), seq, r.SubscribeID),
				Body:    string(raw),
				GroupID: groupID,
				DedupID: uuid.NewString(),
			})
			seq++
		}

		if err := d.Transport.SubmitBatch(ctx, entries); err != nil {
			log.Printf("⚠️ batch %d/%d failed for send group %s: %v", i+1, len(batches), groupID, err)
			return fmt.Errorf("submit batch %d of %d: %w", i+1, len(batches), err)
		}
		log.Printf("📤 submitted batch %d/%d (%d messages) for send group %s", i+1, len(batches), len(entries), groupID)
	}

	return nil
}
