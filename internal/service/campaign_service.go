// internal/service/campaign_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/mailtext"
	"github.com/dirihq/newsletter-service/internal/model"
	"github.com/dirihq/newsletter-service/internal/repository"
	"github.com/dirihq/newsletter-service/internal/schedule"
	"github.com/dirihq/newsletter-service/internal/snapshot"
)

// Dispatcher fans a send out to the delivery queue.
type Dispatcher interface {
	Dispatch(ctx context.Context, content model.Content, recipients []model.Recipient) error
}

// CampaignService drives a campaign through draft → scheduled → sent. It
// persists the content snapshot, keeps the campaign record and the external
// schedule in step, and hands immediate sends to the dispatcher.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	SegmentRepo  repository.SegmentRepositoryInterface
	Snapshots    snapshot.Store
	Scheduler    schedule.Manager
	Dispatcher   Dispatcher

	Now func() time.Time
}

type SaveCampaignInput struct {
	SegmentName   string
	Subject       string
	BodyHTML      string
	BodyPlainText string
	Subscribers   []model.Subscriber
	AsDraft       bool
	ScheduleTime  *time.Time
}

type CampaignDetails struct {
	Campaign    *model.Campaign `json:"campaign"`
	SegmentName string          `json:"segment_name"`
	SegmentID   string          `json:"segment_id"`
	ObjectData  string          `json:"object_data"`
}

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// prepare validates the input and builds the personalized content, the
// filtered recipient list and the snapshot payload shared by save and update.
func (s *CampaignService) prepare(input SaveCampaignInput) (model.Content, []model.Recipient, model.SendPayload, error) {
	if input.Subject == "" || input.BodyHTML == "" || input.BodyPlainText == "" {
		return model.Content{}, nil, model.SendPayload{}, appErrors.ErrMissingContent
	}
	if input.ScheduleTime != nil {
		if err := schedule.ValidateLeadTime(s.now(), *input.ScheduleTime); err != nil {
			return model.Content{}, nil, model.SendPayload{}, err
		}
	}

	content := model.Content{
		Subject:       input.Subject,
		BodyHTML:      mailtext.PersonalizeHTML(input.BodyHTML, input.Subject),
		BodyPlainText: mailtext.PersonalizePlainText(input.BodyPlainText),
	}
	recipients := model.ActiveRecipients(input.Subscribers)
	payload := model.SendPayload{
		Subject:       content.Subject,
		BodyHTML:      content.BodyHTML,
		BodyPlainText: content.BodyPlainText,
		ToAddress:     recipients,
	}
	return content, recipients, payload, nil
}

func campaignStatus(input SaveCampaignInput) string {
	switch {
	case input.ScheduleTime != nil:
		return model.StatusScheduled
	case input.AsDraft:
		return model.StatusDraft
	default:
		return model.StatusSent
	}
}

// Save creates a campaign: snapshot first, then the record, then the
// immediate dispatch or the external schedule. The snapshot key is generated
// once here and stays with the campaign for life.
func (s *CampaignService) Save(ctx context.Context, input SaveCampaignInput) (*model.Campaign, error) {
	content, recipients, payload, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	key := snapshot.SanitizeKey(input.Subject, s.now())
	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.Snapshots.Put(ctx, key, blob); err != nil {
		return nil, err
	}

	campaign := &model.Campaign{
		Title:           input.Subject,
		SnapshotKey:     key,
		Status:          campaignStatus(input),
		SegmentList:     []string{input.SegmentName},
		TotalRecipients: len(recipients),
	}
	if input.ScheduleTime != nil {
		campaign.ScheduleKey = &key
		campaign.ScheduleDate = input.ScheduleTime
	}

	if err := s.CampaignRepo.Create(campaign); err != nil {
		return nil, fmt.Errorf("create campaign record: %w", err)
	}

	switch campaign.Status {
	case model.StatusScheduled:
		if err := s.Scheduler.Create(ctx, key, *input.ScheduleTime, payload); err != nil {
			log.Printf("⚠️ failed to create schedule for campaign %s: %v", campaign.ID, err)
			return nil, err
		}
	case model.StatusSent:
		if err := s.Dispatcher.Dispatch(ctx, content, recipients); err != nil {
			log.Printf("⚠️ dispatch failed for campaign %s: %v", campaign.ID, err)
			return nil, err
		}
	}

	return campaign, nil
}

// Update rewrites an existing campaign under its original snapshot key and
// reconciles the external schedule: created when newly scheduled, updated
// when still scheduled, deleted when the schedule was removed.
func (s *CampaignService) Update(ctx context.Context, campaignID string, input SaveCampaignInput) (*model.Campaign, error) {
	existing, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	content, recipients, payload, err := s.prepare(input)
	if err != nil {
		return nil, err
	}

	key := existing.SnapshotKey
	blob, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.Snapshots.Put(ctx, key, blob); err != nil {
		return nil, err
	}

	wasScheduled := existing.IsScheduled()

	campaign := &model.Campaign{
		ID:              existing.ID,
		Title:           input.Subject,
		SnapshotKey:     key,
		Status:          campaignStatus(input),
		SegmentList:     []string{input.SegmentName},
		TotalRecipients: len(recipients),
		CreatedAt:       existing.CreatedAt,
	}
	if input.ScheduleTime != nil {
		campaign.ScheduleKey = &key
		campaign.ScheduleDate = input.ScheduleTime
	}

	if err := s.CampaignRepo.Update(campaign); err != nil {
		return nil, fmt.Errorf("update campaign record: %w", err)
	}

	if campaign.Status == model.StatusScheduled {
		if wasScheduled {
			err = s.Scheduler.Update(ctx, key, *input.ScheduleTime, payload)
		} else {
			err = s.Scheduler.Create(ctx, key, *input.ScheduleTime, payload)
		}
		if err != nil {
			log.Printf("⚠️ failed to reconcile schedule for campaign %s: %v", campaign.ID, err)
			return nil, err
		}
		return campaign, nil
	}

	// The schedule was removed; take the external one down with it.
	if wasScheduled {
		if err := s.Scheduler.Delete(ctx, key); err != nil {
			log.Printf("⚠️ failed to delete stale schedule for campaign %s: %v", campaign.ID, err)
			return nil, err
		}
	}

	if campaign.Status == model.StatusSent {
		if err := s.Dispatcher.Dispatch(ctx, content, recipients); err != nil {
			log.Printf("⚠️ dispatch failed for campaign %s: %v", campaign.ID, err)
			return nil, err
		}
	}

	return campaign, nil
}

// Delete removes the record, the snapshot and, for scheduled campaigns, the
// external schedule, in that order. A schedule that already fired is fine;
// any other failure propagates even though the record is already gone.
func (s *CampaignService) Delete(ctx context.Context, campaignID, snapshotKey string, isScheduled bool) error {
	if err := s.CampaignRepo.Delete(campaignID); err != nil {
		return err
	}

	if err := s.Snapshots.Delete(ctx, snapshotKey); err != nil {
		log.Printf("⚠️ campaign %s deleted but snapshot %s cleanup failed: %v", campaignID, snapshotKey, err)
		return err
	}

	if isScheduled {
		if err := s.Scheduler.Delete(ctx, snapshotKey); err != nil {
			log.Printf("⚠️ campaign %s deleted but schedule %s cleanup failed: %v", campaignID, snapshotKey, err)
			return err
		}
	}

	return nil
}

// Find returns the campaign record together with its segment and the stored
// content snapshot.
func (s *CampaignService) Find(ctx context.Context, campaignID string) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	segmentName := ""
	if len(campaign.SegmentList) > 0 {
		segmentName = campaign.SegmentList[0]
	}

	segmentID := ""
	if segmentName != "" {
		segment, err := s.SegmentRepo.FindByName(segmentName)
		if err != nil {
			return nil, err
		}
		if segment != nil {
			segmentID = strconv.Itoa(segment.ID)
		}
	}

	blob, err := s.Snapshots.Get(ctx, campaign.SnapshotKey)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		Campaign:    campaign,
		SegmentName: segmentName,
		SegmentID:   segmentID,
		ObjectData:  string(blob),
	}, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}
