// internal/queue/queue.go
package queue

import "context"

// MaxBatchSize is the delivery queue's hard limit on entries per submission.
const MaxBatchSize = 5

// Entry is one outbound message inside a batch submission.
type Entry struct {
	ID      string // unique within one submission call
	Body    string // JSON message body, see MessageBody
	GroupID string // shared by all batches of one logical send
	DedupID string // distinct per entry, suppresses duplicate delivery
}

// MessageBody is the JSON shape the downstream sender consumes.
type MessageBody struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// BatchTransport submits one batch of at most MaxBatchSize entries as a
// single atomic call. Implementations do not retry.
type BatchTransport interface {
	SubmitBatch(ctx context.Context, entries []Entry) error
}
