// internal/queue/rabbit.go
package queue

import (
	"context"
	"fmt"

	"github.com/streadway/amqp"
)

// RabbitTransport submits batches to a durable RabbitMQ queue. Each batch is
// published inside one channel transaction so the whole batch lands or none
// of it does. Group and dedup ids travel as headers for the consumer.
type RabbitTransport struct {
	Channel   *amqp.Channel
	QueueName string
}

// NewRabbitTransport declares the queue and puts the channel in transactional
// mode. The channel must be dedicated to this transport afterwards.
func NewRabbitTransport(ch *amqp.Channel, queueName string) (*RabbitTransport, error) {
	if _, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	if err := ch.Tx(); err != nil {
		return nil, fmt.Errorf("enable channel transactions: %w", err)
	}
	return &RabbitTransport{Channel: ch, QueueName: queueName}, nil
}

func (t *RabbitTransport) SubmitBatch(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		err := t.Channel.Publish(
			"",          // default exchange
			t.QueueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType: "application/json",
				MessageId:   e.ID,
				Body:        []byte(e.Body),
				Headers: amqp.Table{
					"x-group-id": e.GroupID,
					"x-dedup-id": e.DedupID,
				},
			},
		)
		if err != nil {
			_ = t.Channel.TxRollback()
			return fmt.Errorf("publish entry %s: %w", e.ID, err)
		}
	}
	if err := t.Channel.TxCommit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
