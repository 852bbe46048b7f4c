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

type UserPostgres struct {
	db *pgxpool.Pool
}

func NewUserPostgres(db *pgxpool.Pool) *UserPostgres {
	return &UserPostgres{db: db}
}

const userSelect = `
        SELECT u.id, u.username, u.password, u.email,
               COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
        FROM users u
        LEFT JOIN user_roles ur ON u.id = ur.user_id
        LEFT JOIN roles r ON ur.role_id = r.id
        WHERE %s
        GROUP BY u.id
    `

func (r *UserPostgres) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.userBy(ctx, "u.id = $1", id)
}

func (r *UserPostgres) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.userBy(ctx, "u.email = $1", email)
}

func (r *UserPostgres) userBy(ctx context.Context, where string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.QueryRow(ctx, fmt.Sprintf(userSelect, where), arg).
		Scan(&user.ID, &user.Username, &user.Password, &user.Email, &user.Roles)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// CreateUser inserts the account and its role assignments in one
// transaction. A duplicate username or email surfaces as ErrUserExists.
func (r *UserPostgres) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO users (username, password, email) VALUES ($1, $2, $3) RETURNING id`,
		user.Username, user.Password, user.Email,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = app_errors.ErrUserExists
			return nil, err
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	for _, role := range user.Roles {
		if _, err = tx.Exec(ctx, `
            INSERT INTO user_roles (user_id, role_id)
            SELECT $1, id FROM roles WHERE name = $2
        `, user.ID, role); err != nil {
			return nil, fmt.Errorf("failed to assign role %s: %w", role, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}
