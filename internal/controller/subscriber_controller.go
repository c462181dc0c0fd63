// internal/controller/subscriber_controller.go
package controller

import (
	"encoding/json"
	"net/http"

	"github.com/dirihq/newsletter-service/internal/repository"
)

type SubscriberController struct {
	SubscriberRepo repository.SubscriberRepositoryInterface
}

func (c *SubscriberController) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := c.SubscriberRepo.ListActive()
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
