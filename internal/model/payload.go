// internal/model/payload.go
package model

// Recipient is one send target resolved from a segment. Field names match the
// payload shape the downstream sender accepts.
type Recipient struct {
	EmailAddress string  `json:"emailAddress"`
	SubscribeID  string  `json:"subscribeId"`
	FirstName    *string `json:"firstName"`
	LastName     *string `json:"lastName"`
}

// Content is a campaign body after the platform markers have been stripped.
type Content struct {
	Subject       string `json:"subject"`
	BodyHTML      string `json:"bodyHtml"`
	BodyPlainText string `json:"bodyPlainText"`
}

// SendPayload is the scheduled-job input: content plus the full recipient list.
// The external schedule carries this JSON verbatim and hands it back to the
// send endpoint when it fires.
type SendPayload struct {
	Subject       string      `json:"subject"`
	BodyHTML      string      `json:"bodyHtml"`
	BodyPlainText string      `json:"bodyPlainText"`
	ToAddress     []Recipient `json:"toAddress"`
}

// ActiveRecipients maps subscribers to recipients, dropping unsubscribed ones.
func ActiveRecipients(subs []Subscriber) []Recipient {
	recipients := []Recipient{}
	for _, s := range subs {
		if s.IsDeactive {
			continue
		}
		recipients = append(recipients, Recipient{
			EmailAddress: s.Email,
			SubscribeID:  s.ID,
			FirstName:    s.FirstName,
			LastName:     s.LastName,
		})
	}
	return recipients
}
