package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatusSuccess is the only status this service ever writes: a payment
// row exists only after the provider confirmed the money was received.
const PaymentStatusSuccess = "success"

type Payment struct {
	ID                uuid.UUID `json:"id"`
	UserID            uuid.UUID `json:"user_id"`
	CourseID          uuid.UUID `json:"course_id"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	Provider          string    `json:"provider"`
	ProviderReference string    `json:"provider_reference"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}
