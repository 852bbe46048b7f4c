package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusHidden = "hidden"
	StatusPublic = "public"
)

type Course struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	IsPremium      bool      `json:"is_premium"`
	CoverObjectKey string    `json:"cover_object_key"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	AuthorID       uuid.UUID `json:"author_id"`
	Status         string    `json:"status"`
}

type CoursePreview struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency"`
	IsPremium   bool      `json:"is_premium"`
	AuthorName  string    `json:"author_name"`
	CoverURL    string    `json:"cover_url"`
}
