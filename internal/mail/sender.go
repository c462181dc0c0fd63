// internal/mail/sender.go
package mail

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// Sender delivers one email to the transactional mail transport.
type Sender interface {
	Send(ctx context.Context, to []string, subject, html, text string) error
}

// SESSender sends through Amazon SES.
type SESSender struct {
	Client     *ses.Client
	Source     string
	ReturnPath string
}

func (s *SESSender) Send(ctx context.Context, to []string, subject, html, text string) error {
	_, err := s.Client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{ToAddresses: to},
		Message: &types.Message{
			Subject: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(html)},
				Text: &types.Content{Charset: aws.String("UTF-8"), Data: aws.String(text)},
			},
		},
		Source:     aws.String(s.Source),
		ReturnPath: aws.String(s.ReturnPath),
	})
	return err
}

// LogSender logs instead of sending. Used when no sender address is
// configured, e.g. local development.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to []string, subject, _, _ string) error {
	log.Printf("📨 (dry run) would send %q to %v", subject, to)
	return nil
}
