// cmd/worker/main.go
package main

import (
	"context"
	"log"

	awsses "github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/dirihq/newsletter-service/internal/config"
	"github.com/dirihq/newsletter-service/internal/mail"
	"github.com/dirihq/newsletter-service/internal/service"
)

const maxRetries = 3

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	var sender mail.Sender
	if cfg.SESEmailSender == "" {
		log.Println("⚠️ SES_EMAIL_SENDER not set, running with dry-run sender")
		sender = mail.LogSender{}
	} else {
		awsCfg, err := cfg.AWS(ctx)
		if err != nil {
			log.Fatal("failed to load AWS config:", err)
		}
		sender = &mail.SESSender{
			Client:     awsses.NewFromConfig(awsCfg),
			Source:     cfg.SESEmailSender,
			ReturnPath: cfg.SESEmailReturn,
		}
	}

	worker := service.NewSendWorker(sender)

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.AMQPQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("Failed to declare queue:", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			handleMessage(ctx, worker, ch, q.Name, d)
		}
	}()

	log.Println("Worker running, waiting for messages...")
	<-forever
}

// publisher is the slice of *amqp.Channel requeue needs.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// handleMessage processes one delivery and settles it. Failed deliveries are
// republished with a bumped retry header; if the republish itself fails the
// message is nacked back to the broker instead of being acked away.
func handleMessage(ctx context.Context, worker *service.SendWorker, pub publisher, queueName string, d amqp.Delivery) {
	if err := worker.HandleDelivery(ctx, d.Body); err != nil {
		log.Println("⚠️ delivery failed:", err)

		attempt := retryCount(d.Headers)
		if attempt < maxRetries {
			if err := requeue(pub, queueName, d, attempt+1); err != nil {
				log.Println("⚠️ failed to requeue message:", err)
				d.Nack(false, true)
				return
			}
		} else {
			log.Printf("❌ dropping message %s after %d attempts", d.MessageId, attempt)
		}
	}
	d.Ack(false)
}

func retryCount(headers amqp.Table) int {
	switch v := headers["x-retry-count"].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// requeue republishes the delivery with a bumped retry header so the count
// survives the round trip.
func requeue(pub publisher, queueName string, d amqp.Delivery, attempt int) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers["x-retry-count"] = int32(attempt)

	return pub.Publish(
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType: d.ContentType,
			MessageId:   d.MessageId,
			Body:        d.Body,
			Headers:     headers,
		},
	)
}
