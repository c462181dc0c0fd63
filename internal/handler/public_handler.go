// internal/handler/public_handler.go
//
// Unauthenticated surface: the send endpoint the external schedule invokes
// (guarded by an API key) and the subscriber self-service endpoints linked
// from emails.
package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/model"
	"github.com/dirihq/newsletter-service/internal/repository"
	"github.com/dirihq/newsletter-service/internal/service"
)

type PublicHandler struct {
	APIKey         string
	Dispatcher     service.Dispatcher
	SubscriberRepo repository.SubscriberRepositoryInterface
}

// SendEmail accepts the scheduled-job payload and fans it out to the delivery
// queue. The external schedule fires this with the snapshot payload as input;
// it is also the path for preview sends.
func (h *PublicHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") != h.APIKey {
		http.Error(w, "invalid API key", http.StatusUnauthorized)
		return
	}

	var payload model.SendPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	content := model.Content{
		Subject:       payload.Subject,
		BodyHTML:      payload.BodyHTML,
		BodyPlainText: payload.BodyPlainText,
	}

	if err := h.Dispatcher.Dispatch(r.Context(), content, payload.ToAddress); err != nil {
		log.Println("⚠️ send-email dispatch failed:", err)
		http.Error(w, "dispatch failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Success!"})
}

// Unsubscribe deactivates the subscriber behind an unsubscribe link.
func (h *PublicHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	subscribeID := chi.URLParam(r, "subscribeId")

	if err := h.SubscriberRepo.Deactivate(subscribeID); err != nil {
		var notFound *appErrors.ErrSubscriberNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Println("👋 subscriber unsubscribed:", subscribeID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "unsubscribed"})
}

// LookupSubscriber resolves a subscriber id by email, used by the preference
// page to find the caller's record.
func (h *PublicHandler) LookupSubscriber(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	sub, err := h.SubscriberRepo.GetByEmail(email)
	if err != nil {
		var notFound *appErrors.ErrSubscriberNotFound
		if errors.As(err, &notFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

// UpdateSubscriberLists reconciles a subscriber's segment memberships from
// the preference page.
func (h *PublicHandler) UpdateSubscriberLists(w http.ResponseWriter, r *http.Request) {
	subscriberID := chi.URLParam(r, "subscriberId")

	var body struct {
		AddList    []string `json:"add_list"`
		RemoveList []string `json:"remove_list"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if _, err := h.SubscriberRepo.GetByID(subscriberID); err != nil {
		var notFound *appErrors.ErrSubscriberNotFound
		if errors.As(err, &notFound) {
			http.Error(w, "Subscriber not exist!", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.SubscriberRepo.UpdateSegments(subscriberID, body.AddList, body.RemoveList); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Subscriber list updated!"})
}
