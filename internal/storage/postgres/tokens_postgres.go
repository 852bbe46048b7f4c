package postgres

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokensPostgres stores refresh tokens hashed; the raw token never touches
// the database.
type TokensPostgres struct {
	db *pgxpool.Pool
}

func NewTokensPostgres(db *pgxpool.Pool) *TokensPostgres {
	return &TokensPostgres{db: db}
}

func hashToken(token *jwt.Token) string {
	sum := sha256.Sum256([]byte(token.Raw))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (r *TokensPostgres) Create(ctx context.Context, userID uuid.UUID, token *jwt.Token) (*models.RefreshToken, error) {
	expiresAt, err := token.Claims.GetExpirationTime()
	if err != nil {
		return nil, err
	}

	record := &models.RefreshToken{
		UserID:      userID,
		HashedToken: hashToken(token),
	}
	err = r.db.QueryRow(ctx, `
        INSERT INTO refresh_tokens (user_id, hashed_token, expires_at)
        VALUES ($1, $2, $3)
        RETURNING created_at, expires_at
    `, userID, record.HashedToken, expiresAt.Format(time.RFC3339)).
		Scan(&record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *TokensPostgres) ByPrimaryKey(ctx context.Context, userID uuid.UUID, token *jwt.Token) (*models.RefreshToken, error) {
	record := models.RefreshToken{}
	err := r.db.QueryRow(ctx, `
        SELECT user_id, hashed_token, created_at, expires_at
        FROM refresh_tokens
        WHERE user_id = $1 AND hashed_token = $2
    `, userID, hashToken(token)).
		Scan(&record.UserID, &record.HashedToken, &record.CreatedAt, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, app_errors.ErrTokenNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *TokensPostgres) DeleteUserTokens(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID)
	return err
}
