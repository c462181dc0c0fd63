// internal/controller/segment_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dirihq/newsletter-service/internal/repository"
)

type SegmentController struct {
	SegmentRepo    repository.SegmentRepositoryInterface
	SubscriberRepo repository.SubscriberRepositoryInterface
}

func (c *SegmentController) ListSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := c.SegmentRepo.GetAll()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(segments)
}

func (c *SegmentController) CreateSegment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		http.Error(w, "segment name is required", http.StatusBadRequest)
		return
	}

	segment, err := c.SegmentRepo.Create(body.Name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(segment)
}

// GetSegmentSubscribers lists a segment's subscribers, deactivated ones
// included, so the composer can show the real segment size.
func (c *SegmentController) GetSegmentSubscribers(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid segment id", http.StatusBadRequest)
		return
	}

	subs, err := c.SegmentRepo.GetSubscribers(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"subscribers": subs,
		"total":       len(subs),
	})
}

func (c *SegmentController) AddSubscribers(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SegmentID int      `json:"segment_id"`
		Emails    []string `json:"emails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if body.SegmentID < 1 || len(body.Emails) == 0 {
		http.Error(w, "segment_id and emails are required", http.StatusBadRequest)
		return
	}

	added := 0
	for _, email := range body.Emails {
		if err := c.SubscriberRepo.AddToSegment(email, body.SegmentID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		added++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"added": added})
}
