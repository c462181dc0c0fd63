// internal/repository/segment_repository.go
package repository

import (
	"database/sql"

	"github.com/dirihq/newsletter-service/internal/model"
)

type SegmentRepositoryInterface interface {
	GetAll() ([]model.Segment, error)
	Create(name string) (*model.Segment, error)
	FindByName(name string) (*model.Segment, error)
	GetSubscribers(segmentID int) ([]model.Subscriber, error)
}

type SegmentRepository struct {
	DB *sql.DB
}

func (r *SegmentRepository) GetAll() ([]model.Segment, error) {
	rows, err := r.DB.Query(`SELECT id, name, created_at FROM segments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := []model.Segment{}
	for rows.Next() {
		var s model.Segment
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

func (r *SegmentRepository) Create(name string) (*model.Segment, error) {
	s := &model.Segment{Name: name}
	err := r.DB.QueryRow(
		`INSERT INTO segments (name, created_at) VALUES ($1, NOW()) RETURNING id, created_at`, name,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SegmentRepository) FindByName(name string) (*model.Segment, error) {
	var s model.Segment
	err := r.DB.QueryRow(`SELECT id, name, created_at FROM segments WHERE name=$1`, name).
		Scan(&s.ID, &s.Name, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetSubscribers returns every subscriber linked to the segment, including
// deactivated ones; the caller decides whether to filter them out.
func (r *SegmentRepository) GetSubscribers(segmentID int) ([]model.Subscriber, error) {
	query := `
        SELECT s.id, s.email, s.first_name, s.last_name, s.is_deactive, s.created_at
        FROM subscribers s
        JOIN segment_subscribers ss ON ss.subscriber_id = s.id
        WHERE ss.segment_id = $1
        ORDER BY s.created_at DESC
    `
	rows, err := r.DB.Query(query, segmentID)
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
