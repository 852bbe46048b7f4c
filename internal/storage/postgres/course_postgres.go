package postgres

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CoursePostgres struct {
	db *pgxpool.Pool
}

func NewCoursePostgres(db *pgxpool.Pool) *CoursePostgres {
	return &CoursePostgres{db: db}
}

func (r *CoursePostgres) CourseByID(ctx context.Context, id uuid.UUID) (*models.Course, error) {
	const query = `
        SELECT id, title, description, price, currency, is_premium,
               cover_object_key, created_at, updated_at, author_id, status
        FROM courses
        WHERE id = $1
    `
	course := &models.Course{}
	row := r.db.QueryRow(ctx, query, id)
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.Price,
		&course.Currency,
		&course.IsPremium,
		&course.CoverObjectKey,
		&course.CreatedAt,
		&course.UpdatedAt,
		&course.AuthorID,
		&course.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrCourseNotFound
		}
		return nil, err
	}

	return course, nil
}

func (r *CoursePostgres) ListPublicCourses(ctx context.Context, limit int, offset int) ([]models.Course, error) {
	const query = `
        SELECT id, title, description, price, currency, is_premium,
               cover_object_key, created_at, updated_at, author_id, status
        FROM courses
        WHERE status = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.db.Query(ctx, query, models.StatusPublic, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query public courses: %w", err)
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

func (r *CoursePostgres) CountPublicCourses(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM courses WHERE status = $1`, models.StatusPublic).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count public courses: %w", err)
	}
	return total, nil
}
