package auth

import (
	"SkillMarket/internal/app_errors"
	"SkillMarket/internal/models"
	"SkillMarket/pkg/logger"
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 64
)

type AuthRepo interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type tokenRepo interface {
	Create(ctx context.Context, userID uuid.UUID, token *jwt.Token) (*models.RefreshToken, error)
	ByPrimaryKey(ctx context.Context, userID uuid.UUID, token *jwt.Token) (*models.RefreshToken, error)
	DeleteUserTokens(ctx context.Context, userID uuid.UUID) error
}

type AuthService struct {
	log        logger.Log
	jwtManager *JWTManager
	authRepo   AuthRepo
	tokenRepo  tokenRepo
}

func NewAuthService(l logger.Log, manager *JWTManager, aRepo AuthRepo, tRepo tokenRepo) *AuthService {
	return &AuthService{
		log:        l,
		jwtManager: manager,
		authRepo:   aRepo,
		tokenRepo:  tRepo,
	}
}

// Register creates a buyer account. Self-registration never grants elevated
// roles; author and admin access are assigned out of band.
func (u *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if at := strings.IndexByte(email, '@'); at < 1 || at == len(email)-1 {
		return nil, app_errors.ErrInvalidEmail
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, app_errors.ErrIncorrectPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return u.authRepo.CreateUser(ctx, models.User{
		Username: strings.TrimSpace(username),
		Email:    email,
		Password: string(hash),
		Roles:    []string{models.ClientRole},
	})
}

// Login authenticates by email. A successful login rotates the refresh
// token, so at most one refresh token is live per user.
func (u *AuthService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	user, err := u.authRepo.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, app_errors.ErrIncorrectPassword
	}
	return u.issueTokens(ctx, user)
}

func (u *AuthService) RefreshTokens(ctx context.Context, token string) (*models.TokenPair, error) {
	parsed, err := u.jwtManager.Parse(token)
	if err != nil {
		return nil, err
	}
	if !u.jwtManager.TokenType(parsed, RefreshTokenType) {
		return nil, app_errors.ErrTokenNotFound
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, err
	}

	record, err := u.tokenRepo.ByPrimaryKey(ctx, userID, parsed)
	if err != nil {
		return nil, err
	}
	if record.ExpiresAt.Before(time.Now()) {
		return nil, app_errors.ErrTokenExpired
	}

	user, err := u.authRepo.UserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.issueTokens(ctx, user)
}

func (u *AuthService) issueTokens(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	pair, err := u.jwtManager.GenerateTokenPair(user.ID, user.Roles)
	if err != nil {
		return nil, err
	}
	if err := u.tokenRepo.DeleteUserTokens(ctx, user.ID); err != nil {
		return nil, err
	}
	if _, err := u.tokenRepo.Create(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, err
	}
	return pair, nil
}

func (u *AuthService) ParseToken(ctx context.Context, token string) (*jwt.Token, error) {
	return u.jwtManager.Parse(token)
}

func (u *AuthService) IsAccessToken(ctx context.Context, token *jwt.Token) bool {
	return u.jwtManager.TokenType(token, AccessTokenType)
}

func (u *AuthService) AccessClaims(ctx context.Context, token string) (userID uuid.UUID, roles []string, err error) {
	claims, err := u.jwtManager.AccessClaims(token)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return claims.UserID, claims.Roles, nil
}

func (u *AuthService) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return u.authRepo.UserByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
