// internal/schedule/schedule.go
package schedule

import (
	"context"
	"time"

	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/model"
)

// MinLead is how far ahead of now a schedule instant must be.
const MinLead = 30 * time.Minute

// Manager owns the named one-shot external schedules. A schedule's name is
// the campaign's snapshot key, so schedule and content stay correlated 1:1.
// Managers perform no time validation; callers run ValidateLeadTime first.
type Manager interface {
	Create(ctx context.Context, name string, at time.Time, payload model.SendPayload) error
	Update(ctx context.Context, name string, at time.Time, payload model.SendPayload) error
	Delete(ctx context.Context, name string) error
}

// ValidateLeadTime rejects instants that are not strictly more than MinLead
// ahead of now. Both instants are absolute, so this is timezone independent.
func ValidateLeadTime(now, at time.Time) error {
	if !at.After(now.Add(MinLead)) {
		return appErrors.ErrScheduleTooSoon
	}
	return nil
}

// InFuture reports whether a schedule instant has not passed yet. The UI
// treats a scheduled campaign whose instant has passed as effectively sent.
func InFuture(now, at time.Time) bool {
	return at.After(now)
}
