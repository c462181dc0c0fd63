// internal/repository/subscriber_repository.go
package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/model"
)

type SubscriberRepositoryInterface interface {
	GetByID(id string) (*model.Subscriber, error)
	GetByEmail(email string) (*model.Subscriber, error)
	ListActive() ([]model.Subscriber, error)
	AddToSegment(email string, segmentID int) error
	Deactivate(id string) error
	UpdateSegments(subscriberID string, addNames, removeNames []string) error
}

type SubscriberRepository struct {
	DB *sql.DB
}

// newSubscriberID builds the public subscriber identifier used in
// unsubscribe links: a fixed prefix plus the first 25 characters of a UUID.
func newSubscriberID() string {
	return "subiber" + uuid.NewString()[:25]
}

func (r *SubscriberRepository) GetByID(id string) (*model.Subscriber, error) {
	query := `SELECT id, email, first_name, last_name, is_deactive, created_at FROM subscribers WHERE id=$1`
	var s model.Subscriber
	err := r.DB.QueryRow(query, id).Scan(&s.ID, &s.Email, &s.FirstName, &s.LastName, &s.IsDeactive, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewSubscriberNotFound(id)
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubscriberRepository) GetByEmail(email string) (*model.Subscriber, error) {
	query := `SELECT id, email, first_name, last_name, is_deactive, created_at FROM subscribers WHERE email=$1`
	var s model.Subscriber
	err := r.DB.QueryRow(query, email).Scan(&s.ID, &s.Email, &s.FirstName, &s.LastName, &s.IsDeactive, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewSubscriberNotFound(email)
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubscriberRepository) ListActive() ([]model.Subscriber, error) {
	query := `SELECT id, email, first_name, last_name, is_deactive, created_at FROM subscribers WHERE is_deactive=false ORDER BY created_at DESC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.FirstName, &s.LastName, &s.IsDeactive, &s.CreatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// AddToSegment upserts a subscriber by email and links it to the segment.
// Existing subscribers keep their id; re-linking is a no-op.
func (r *SubscriberRepository) AddToSegment(email string, segmentID int) error {
	var id string
	err := r.DB.QueryRow(`SELECT id FROM subscribers WHERE email=$1`, email).Scan(&id)
	if err == sql.ErrNoRows {
		id = newSubscriberID()
		if _, err := r.DB.Exec(
			`INSERT INTO subscribers (id, email, created_at) VALUES ($1, $2, NOW())`, id, email,
		); err != nil {
			return fmt.Errorf("create subscriber %s: %w", email, err)
		}
	} else if err != nil {
		return err
	}

	_, err = r.DB.Exec(`
        INSERT INTO segment_subscribers (segment_id, subscriber_id)
        VALUES ($1, $2)
        ON CONFLICT DO NOTHING
    `, segmentID, id)
	return err
}

func (r *SubscriberRepository) Deactivate(id string) error {
	res, err := r.DB.Exec(`UPDATE subscribers SET is_deactive=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewSubscriberNotFound(id)
	}
	return nil
}

// UpdateSegments reconciles a subscriber's segment memberships. Segments in
// addNames are created if missing; removeNames that do not exist are skipped.
func (r *SubscriberRepository) UpdateSegments(subscriberID string, addNames, removeNames []string) error {
	for _, name := range addNames {
		var segmentID int
		err := r.DB.QueryRow(`SELECT id FROM segments WHERE name=$1`, name).Scan(&segmentID)
		if err == sql.ErrNoRows {
			if err := r.DB.QueryRow(
				`INSERT INTO segments (name, created_at) VALUES ($1, NOW()) RETURNING id`, name,
			).Scan(&segmentID); err != nil {
				return fmt.Errorf("create segment %s: %w", name, err)
			}
		} else if err != nil {
			return err
		}

		if _, err := r.DB.Exec(`
            INSERT INTO segment_subscribers (segment_id, subscriber_id)
            VALUES ($1, $2)
            ON CONFLICT DO NOTHING
        `, segmentID, subscriberID); err != nil {
			return err
		}
	}

	for _, name := range removeNames {
		if _, err := r.DB.Exec(`
            DELETE FROM segment_subscribers
            WHERE subscriber_id=$1 AND segment_id=(SELECT id FROM segments WHERE name=$2)
        `, subscriberID, name); err != nil {
			return err
		}
	}

	return nil
}
