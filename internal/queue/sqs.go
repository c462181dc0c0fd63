// internal/queue/sqs.go
package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// SQSTransport submits batches to an SQS FIFO queue. Group and dedup ids map
// straight onto MessageGroupId and MessageDeduplicationId.
type SQSTransport struct {
	Client   *sqs.Client
	QueueURL string
}

func NewSQSTransport(client *sqs.Client, queueURL string) *SQSTransport {
	return &SQSTransport{Client: client, QueueURL: queueURL}
}

func (t *SQSTransport) SubmitBatch(ctx context.Context, entries []Entry) error {
	batchEntries := make([]types.SendMessageBatchRequestEntry, 0, len(entries))
	for _, e := range entries {
		batchEntries = append(batchEntries, types.SendMessageBatchRequestEntry{
			Id:                     aws.String(e.ID),
			MessageBody:            aws.String(e.Body),
			MessageGroupId:         aws.String(e.GroupID),
			MessageDeduplicationId: aws.String(e.DedupID),
		})
	}

	out, err := t.Client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: aws.String(t.QueueURL),
		Entries:  batchEntries,
	})
	if err != nil {
		return fmt.Errorf("sqs batch submit: %w", err)
	}
	if len(out.Failed) > 0 {
		f := out.Failed[0]
		return fmt.Errorf("sqs rejected %d of %d entries, first: %s (%s)",
			len(out.Failed), len(entries), aws.ToString(f.Message), aws.ToString(f.Code))
	}
	return nil
}
