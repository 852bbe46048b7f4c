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

type EnrollmentsPostgres struct {
	db *pgxpool.Pool
}

func NewEnrollmentsPostgres(db *pgxpool.Pool) *EnrollmentsPostgres {
	return &EnrollmentsPostgres{db: db}
}

// EnrollFree creates an active enrollment without a payment row. Used for
// non-premium courses only.
func (r *EnrollmentsPostgres) EnrollFree(ctx context.Context, courseID, userID uuid.UUID) (*models.Enrollment, error) {
	now := time.Now().UTC()
	enrollment := &models.Enrollment{
		ID:         uuid.New(),
		CourseID:   courseID,
		UserID:     userID,
		Status:     models.EnrollmentActive,
		EnrolledAt: now,
	}
	err := r.db.QueryRow(ctx, `
        INSERT INTO enrollments (id, user_id, course_id, status, enrolled_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (user_id, course_id) WHERE status = 'active' DO NOTHING
        RETURNING id
    `, enrollment.ID, userID, courseID, models.EnrollmentActive, now).Scan(&enrollment.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("failed to enroll: %w", err)
	}
	return enrollment, nil
}

func (r *EnrollmentsPostgres) EnrolledCourses(ctx context.Context, userID uuid.UUID) ([]models.Course, error) {
	const query = `
        SELECT c.id, c.title, c.description, c.price, c.currency, c.is_premium,
               c.cover_object_key, c.created_at, c.updated_at, c.author_id, c.status
        FROM courses c
        INNER JOIN enrollments e ON e.course_id = c.id
        WHERE e.user_id = $1 AND e.status = 'active'
        ORDER BY e.enrolled_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrolled courses: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		var c models.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.Currency, &c.IsPremium,
			&c.CoverObjectKey, &c.CreatedAt, &c.UpdatedAt, &c.AuthorID, &c.Status); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}
