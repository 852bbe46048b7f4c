package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EnrollmentActive  = "active"
	EnrollmentRevoked = "revoked"
	EnrollmentExpired = "expired"
)

// At most one active enrollment may exist per (user, course); the partial
// unique index on the enrollments table enforces this at the schema level.
type Enrollment struct {
	ID         uuid.UUID `json:"id"`
	CourseID   uuid.UUID `json:"course_id"`
	UserID     uuid.UUID `json:"user_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EnrollmentReceipt is the canonical outcome of a payment commit: the same
// receipt is returned whether this call created the rows or found them
// already committed by an earlier (or concurrent) submission.
type EnrollmentReceipt struct {
	PaymentID       uuid.UUID `json:"payment_id"`
	EnrollmentID    uuid.UUID `json:"enrollment_id"`
	AlreadyEnrolled bool      `json:"already_enrolled"`
}

