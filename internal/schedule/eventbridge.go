// internal/schedule/eventbridge.go
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/scheduler"
	"github.com/aws/aws-sdk-go-v2/service/scheduler/types"

	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/model"
)

// SchedulerAPI is the slice of the EventBridge Scheduler client the manager
// calls. Satisfied by *scheduler.Client.
type SchedulerAPI interface {
	CreateSchedule(ctx context.Context, in *scheduler.CreateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.CreateScheduleOutput, error)
	UpdateSchedule(ctx context.Context, in *scheduler.UpdateScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.UpdateScheduleOutput, error)
	DeleteSchedule(ctx context.Context, in *scheduler.DeleteScheduleInput, optFns ...func(*scheduler.Options)) (*scheduler.DeleteScheduleOutput, error)
}

// EventBridgeManager creates one-shot EventBridge schedules that invoke the
// downstream sender with the send payload as job input and delete themselves
// after completion.
type EventBridgeManager struct {
	Client    SchedulerAPI
	TargetArn string
	RoleArn   string
	Timezone  string

	loc *time.Location
}

func NewEventBridgeManager(client SchedulerAPI, targetArn, roleArn, timezone string) (*EventBridgeManager, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load schedule timezone %q: %w", timezone, err)
	}
	return &EventBridgeManager{
		Client:    client,
		TargetArn: targetArn,
		RoleArn:   roleArn,
		Timezone:  timezone,
		loc:       loc,
	}, nil
}

// atExpression renders the one-shot trigger expression as wall-clock time in
// the reference timezone.
func (m *EventBridgeManager) atExpression(at time.Time) string {
	return fmt.Sprintf("at(%s)", at.In(m.loc).Format("2006-01-02T15:04:05"))
}

func (m *EventBridgeManager) Create(ctx context.Context, name string, at time.Time, payload model.SendPayload) error {
	input, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal schedule payload: %w", err)
	}

	_, err = m.Client.CreateSchedule(ctx, &scheduler.CreateScheduleInput{
		Name:                       aws.String(name),
		ScheduleExpression:         aws.String(m.atExpression(at)),
		ScheduleExpressionTimezone: aws.String(m.Timezone),
		FlexibleTimeWindow:         &types.FlexibleTimeWindow{Mode: types.FlexibleTimeWindowModeOff},
		State:                      types.ScheduleStateEnabled,
		ActionAfterCompletion:      types.ActionAfterCompletionDelete,
		Target: &types.Target{
			Arn:     aws.String(m.TargetArn),
			RoleArn: aws.String(m.RoleArn),
			Input:   aws.String(string(input)),
		},
	})
	if err != nil {
		return fmt.Errorf("create schedule %s: %w", name, err)
	}

	log.Printf("🗓️ schedule %s created for %s", name, m.atExpression(at))
	return nil
}

func (m *EventBridgeManager) Update(ctx context.Context, name string, at time.Time, payload model.SendPayload) error {
	input, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal schedule payload: %w", err)
	}

	_, err = m.Client.UpdateSchedule(ctx, &scheduler.UpdateScheduleInput{
		Name:                       aws.String(name),
		ScheduleExpression:         aws.String(m.atExpression(at)),
		ScheduleExpressionTimezone: aws.String(m.Timezone),
		FlexibleTimeWindow:         &types.FlexibleTimeWindow{Mode: types.FlexibleTimeWindowModeOff},
		State:                      types.ScheduleStateEnabled,
		ActionAfterCompletion:      types.ActionAfterCompletionDelete,
		Target: &types.Target{
			Arn:     aws.String(m.TargetArn),
			RoleArn: aws.String(m.RoleArn),
			Input:   aws.String(string(input)),
		},
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return appErrors.NewScheduleNotFound(name)
		}
		return fmt.Errorf("update schedule %s: %w", name, err)
	}

	log.Printf("🗓️ schedule %s updated to %s", name, m.atExpression(at))
	return nil
}

// Delete removes the named schedule. A schedule that already fired deleted
// itself, so not-found is treated as success.
func (m *EventBridgeManager) Delete(ctx context.Context, name string) error {
	_, err := m.Client.DeleteSchedule(ctx, &scheduler.DeleteScheduleInput{Name: aws.String(name)})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			log.Printf("🗓️ schedule %s already gone, nothing to delete", name)
			return nil
		}
		return fmt.Errorf("delete schedule %s: %w", name, err)
	}
	return nil
}
