// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/repository"
	"github.com/dirihq/newsletter-service/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	SegmentRepo     repository.SegmentRepositoryInterface
}

type campaignRequest struct {
	SegmentID     int    `json:"segment_id"`
	SegmentName   string `json:"segment_name"`
	Subject       string `json:"subject"`
	BodyHTML      string `json:"body_html"`
	BodyPlainText string `json:"body_plain_text"`
	AsDraft       bool   `json:"as_draft"`
	ScheduleTime  string `json:"schedule_time,omitempty"` // RFC3339, empty = send now
}

func (c *CampaignController) buildInput(body campaignRequest) (service.SaveCampaignInput, error) {
	input := service.SaveCampaignInput{
		SegmentName:   body.SegmentName,
		Subject:       body.Subject,
		BodyHTML:      body.BodyHTML,
		BodyPlainText: body.BodyPlainText,
		AsDraft:       body.AsDraft,
	}

	if body.ScheduleTime != "" {
		t, err := time.Parse(time.RFC3339, body.ScheduleTime)
		if err != nil {
			return input, err
		}
		input.ScheduleTime = &t
	}

	if body.SegmentID > 0 {
		subs, err := c.SegmentRepo.GetSubscribers(body.SegmentID)
		if err != nil {
			return input, err
		}
		input.Subscribers = subs
	}

	return input, nil
}

func writeCampaignError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrCampaignNotFound
	switch {
	case errors.Is(err, appErrors.ErrMissingContent), errors.Is(err, appErrors.ErrScheduleTooSoon):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (c *CampaignController) SaveCampaign(w http.ResponseWriter, r *http.Request) {
	var body campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	input, err := c.buildInput(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.Save(r.Context(), input)
	if err != nil {
		log.Println("⚠️ failed to save campaign:", err)
		writeCampaignError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body campaignRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	input, err := c.buildInput(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.Update(r.Context(), id, input)
	if err != nil {
		log.Println("⚠️ failed to update campaign:", err)
		writeCampaignError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) FindCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	details, err := c.CampaignService.Find(r.Context(), id)
	if err != nil {
		writeCampaignError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(details)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		SnapshotKey string `json:"snapshot_key"`
		IsScheduled bool   `json:"is_scheduled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.CampaignService.Delete(r.Context(), id, body.SnapshotKey, body.IsScheduled); err != nil {
		log.Println("⚠️ failed to delete campaign:", err)
		writeCampaignError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted", "id": id})
}
