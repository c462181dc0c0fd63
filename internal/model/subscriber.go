// internal/model/subscriber.go
package model

import "time"

type Subscriber struct {
	ID         string    `db:"id" json:"id"`
	Email      string    `db:"email" json:"email"`
	FirstName  *string   `db:"first_name" json:"first_name,omitempty"`
	LastName   *string   `db:"last_name" json:"last_name,omitempty"`
	IsDeactive bool      `db:"is_deactive" json:"is_deactive"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

type Segment struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
