// internal/repository/campaign_repository.go
package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	appErrors "github.com/dirihq/newsletter-service/internal/errors"
	"github.com/dirihq/newsletter-service/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	Delete(id string) error
	GetByID(id string) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.StatusDraft
	}
	query := `
        INSERT INTO campaigns (id, title, snapshot_key, status, segment_list, total_recipients, schedule_key, schedule_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err := r.DB.Exec(query,
		c.ID, c.Title, c.SnapshotKey, c.Status, pq.Array(c.SegmentList),
		c.TotalRecipients, c.ScheduleKey, c.ScheduleDate, c.CreatedAt,
	)
	return err
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET title=$1, status=$2, segment_list=$3, total_recipients=$4, schedule_key=$5, schedule_date=$6, updated_at=NOW()
        WHERE id=$7
    `
	_, err := r.DB.Exec(query,
		c.Title, c.Status, pq.Array(c.SegmentList), c.TotalRecipients,
		c.ScheduleKey, c.ScheduleDate, c.ID,
	)
	return err
}

func (r *CampaignRepository) Delete(id string) error {
	res, err := r.DB.Exec(`DELETE FROM campaigns WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewCampaignNotFound(id)
	}
	return nil
}

func (r *CampaignRepository) GetByID(id string) (*model.Campaign, error) {
	query := `
        SELECT id, title, snapshot_key, status, segment_list, total_recipients, schedule_key, schedule_date, created_at, updated_at
        FROM campaigns WHERE id=$1
    `
	var c model.Campaign
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.Title, &c.SnapshotKey, &c.Status, pq.Array(&c.SegmentList),
		&c.TotalRecipients, &c.ScheduleKey, &c.ScheduleDate, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT id, title, snapshot_key, status, segment_list, total_recipients, schedule_key, schedule_date, created_at, updated_at FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Campaign{}
		if err := rows.Scan(
			&c.ID, &c.Title, &c.SnapshotKey, &c.Status, pq.Array(&c.SegmentList),
			&c.TotalRecipients, &c.ScheduleKey, &c.ScheduleDate, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}
