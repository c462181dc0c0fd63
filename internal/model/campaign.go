// internal/model/campaign.go
package model

import "time"

const (
	StatusDraft     = "draft"
	StatusScheduled = "scheduled"
	StatusSent      = "sent"
)

type Campaign struct {
	ID              string     `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	SnapshotKey     string     `db:"snapshot_key" json:"snapshot_key"`
	Status          string     `db:"status" json:"status"`
	SegmentList     []string   `db:"segment_list" json:"segment_list"`
	TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
	ScheduleKey     *string    `db:"schedule_key" json:"schedule_key,omitempty"`
	ScheduleDate    *time.Time `db:"schedule_date" json:"schedule_date,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// IsScheduled reports whether the campaign is linked to an external schedule.
func (c *Campaign) IsScheduled() bool {
	return c.ScheduleKey != nil && *c.ScheduleKey != ""
}
