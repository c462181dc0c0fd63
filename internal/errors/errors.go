// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrMissingContent is returned when a campaign is saved or sent without
// subject, HTML body or plain-text body.
var ErrMissingContent = errors.New("subject, html body and plain-text body are required")

// ErrScheduleTooSoon is returned when a requested schedule instant is not far
// enough in the future.
var ErrScheduleTooSoon = errors.New("schedule time must be at least 30 minutes after the current time")

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID string
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %s not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id string) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrScheduleNotFound marks a named external schedule that no longer exists.
// Deletes tolerate it; updates propagate it.
type ErrScheduleNotFound struct {
	Name string
}

func (e *ErrScheduleNotFound) Error() string {
	return fmt.Sprintf("schedule %q not found", e.Name)
}

func NewScheduleNotFound(name string) error {
	return &ErrScheduleNotFound{Name: name}
}

type ErrSubscriberNotFound struct {
	SubscriberID string
}

func (e *ErrSubscriberNotFound) Error() string {
	return fmt.Sprintf("subscriber with ID %s not found", e.SubscriberID)
}

func NewSubscriberNotFound(id string) error {
	return &ErrSubscriberNotFound{SubscriberID: id}
}
