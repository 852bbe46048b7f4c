package postgres

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activeEnrollmentQuery = `
        SELECT id FROM enrollments
        WHERE user_id = $1 AND course_id = $2 AND status = 'active'
    `

type PaymentsPostgres struct {
	db *pgxpool.Pool
}

func NewPaymentsPostgres(db *pgxpool.Pool) *PaymentsPostgres {
	return &PaymentsPostgres{db: db}
}

// CommitEnrollment records a verified payment and the matching active
// enrollment as one transaction. A payment that already exists for
// (provider, provider_reference) short-circuits to the previously committed
// rows. A unique violation on the payments insert means a concurrent commit
// for the same reference won the race; it surfaces as ErrPaymentExists and
// the caller recovers via CommittedReceipt.
func (r *PaymentsPostgres) CommitEnrollment(ctx context.Context, payment models.Payment) (*models.EnrollmentReceipt, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var paymentID uuid.UUID
	var paidUserID, paidCourseID uuid.UUID
	err = tx.QueryRow(ctx,
		`SELECT id, user_id, course_id FROM payments WHERE provider = $1 AND provider_reference = $2`,
		payment.Provider, payment.ProviderReference,
	).Scan(&paymentID, &paidUserID, &paidCourseID)
	if err == nil {
		// A reference submitted against a different purchase than the one it
		// paid for is a client fault, not a duplicate.
		if paidUserID != payment.UserID || paidCourseID != payment.CourseID {
			err = fmt.Errorf("%w: reference already used for another purchase", app_errors.ErrPaymentRejected)
			return nil, err
		}
		// Pure duplicate: a retry of a commit that already succeeded.
		var enrollmentID uuid.UUID
		err = tx.QueryRow(ctx, activeEnrollmentQuery, payment.UserID, payment.CourseID).Scan(&enrollmentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = fmt.Errorf("%w: payment %s has no active enrollment", app_errors.ErrEnrollmentFailed, paymentID)
			}
			return nil, err
		}
		if err = tx.Commit(ctx); err != nil {
			return nil, err
		}
		return &models.EnrollmentReceipt{
			PaymentID:       paymentID,
			EnrollmentID:    enrollmentID,
			AlreadyEnrolled: true,
		}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing payment: %w", err)
	}

	now := time.Now().UTC()
	paymentID = uuid.New()
	_, err = tx.Exec(ctx, `
        INSERT INTO payments (id, user_id, course_id, amount, currency, provider, provider_reference, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `,
		paymentID, payment.UserID, payment.CourseID, payment.Amount, payment.Currency,
		payment.Provider, payment.ProviderReference, models.PaymentStatusSuccess, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = app_errors.ErrPaymentExists
			return nil, err
		}
		return nil, fmt.Errorf("failed to insert payment: %w", err)
	}

	alreadyEnrolled := false
	var enrollmentID uuid.UUID
	err = tx.QueryRow(ctx, `
        INSERT INTO enrollments (id, user_id, course_id, status, enrolled_at)
        VALUES ($1, $2, $3, 'active', $4)
        ON CONFLICT (user_id, course_id) WHERE status = 'active' DO NOTHING
        RETURNING id
    `, uuid.New(), payment.UserID, payment.CourseID, now).Scan(&enrollmentID)
	if errors.Is(err, pgx.ErrNoRows) {
		// The user already holds the course through another payment.
		alreadyEnrolled = true
		err = tx.QueryRow(ctx, activeEnrollmentQuery, payment.UserID, payment.CourseID).Scan(&enrollmentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert enrollment: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit enrollment transaction: %w", err)
	}
	return &models.EnrollmentReceipt{
		PaymentID:       paymentID,
		EnrollmentID:    enrollmentID,
		AlreadyEnrolled: alreadyEnrolled,
	}, nil
}

// CommittedReceipt re-reads the rows a winning concurrent commit created.
func (r *PaymentsPostgres) CommittedReceipt(ctx context.Context, provider, reference string, userID, courseID uuid.UUID) (*models.EnrollmentReceipt, error) {
	var paymentID uuid.UUID
	var paidUserID, paidCourseID uuid.UUID
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, course_id FROM payments WHERE provider = $1 AND provider_reference = $2`,
		provider, reference,
	).Scan(&paymentID, &paidUserID, &paidCourseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load committed payment: %w", err)
	}
	if paidUserID != userID || paidCourseID != courseID {
		return nil, fmt.Errorf("%w: reference already used for another purchase", app_errors.ErrPaymentRejected)
	}

	var enrollmentID uuid.UUID
	err = r.db.QueryRow(ctx, activeEnrollmentQuery, userID, courseID).Scan(&enrollmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to load committed enrollment: %w", err)
	}

	return &models.EnrollmentReceipt{
		PaymentID:       paymentID,
		EnrollmentID:    enrollmentID,
		AlreadyEnrolled: true,
	}, nil
}
