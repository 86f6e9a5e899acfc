package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"taskflow/internal/domain"
	"taskflow/internal/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type jwtService interface {
	GenerateAccessToken(userID int64) (string, error)
	GenerateRefreshToken(userID int64) (string, time.Time, error)
	ValidateRefreshToken(token string) (*jwt.Claims, error)
}

// Service contains all business logic for authentication
type Service struct {
	users  UserRepositoryInterface
	tokens RefreshTokenRepositoryInterface
	jwt    jwtService
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type LoginResult struct {
	User   *domain.User
	Tokens TokenPair
}

func NewService(users UserRepositoryInterface, tokens RefreshTokenRepositoryInterface, jwt jwtService) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		jwt:    jwt,
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		Name:         strings.TrimSpace(req.Name),
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, Tokens: *tokens}, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same error as a bad password: no user-enumeration signal.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""
	return &LoginResult{User: user, Tokens: *tokens}, nil
}

// Refresh rotates a refresh token: the presented token is looked up among
// active records, revoked, and replaced in one atomic step. Presenting an
// already-rotated token fails, so a stolen old token is useless the moment
// its successor exists.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshRaw)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	current, err := s.tokens.FindActive(ctx, hashToken(refreshRaw), claims.UserID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrInvalidRefreshToken
	}

	accessToken, err := s.jwt.GenerateAccessToken(claims.UserID)
	if err != nil {
		return nil, err
	}
	newRaw, expiresAt, err := s.jwt.GenerateRefreshToken(claims.UserID)
	if err != nil {
		return nil, err
	}

	replacement := &domain.RefreshToken{
		UserID:    claims.UserID,
		TokenHash: hashToken(newRaw),
		ExpiresAt: expiresAt,
	}
	if err := s.tokens.Rotate(ctx, current.ID, replacement); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Lost a concurrent rotation race: someone already used this token.
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: newRaw}, nil
}

// Logout revokes the presented refresh token. A token that is unknown or
// already revoked is not an error, so logout can be called any number of
// times.
func (s *Service) Logout(ctx context.Context, userID int64, refreshRaw string) error {
	if refreshRaw == "" {
		return nil
	}
	current, err := s.tokens.FindActive(ctx, hashToken(refreshRaw), userID)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}
	return s.tokens.Revoke(ctx, current.ID, nil)
}

func (s *Service) GetCurrentUser(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *Service) issueTokens(ctx context.Context, userID int64) (*TokenPair, error) {
	accessToken, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refreshRaw, expiresAt, err := s.jwt.GenerateRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Create(ctx, &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hashToken(refreshRaw),
		ExpiresAt: expiresAt,
	}); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshRaw}, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
