package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskflow/internal/domain"
	"taskflow/internal/pkg/jwt"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	if u != nil {
		u.ID = 1 // simulate DB insert
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type mockRefreshTokenRepo struct {
	mock.Mock
}

func (m *mockRefreshTokenRepo) Create(ctx context.Context, t *domain.RefreshToken) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) FindActive(ctx context.Context, hash string, userID int64) (*domain.RefreshToken, error) {
	args := m.Called(ctx, hash, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockRefreshTokenRepo) Revoke(ctx context.Context, id int64, replacedByID *int64) error {
	args := m.Called(ctx, id, replacedByID)
	return args.Error(0)
}

func (m *mockRefreshTokenRepo) Rotate(ctx context.Context, oldID int64, replacement *domain.RefreshToken) error {
	args := m.Called(ctx, oldID, replacement)
	return args.Error(0)
}

func newTestService(users *mockUserRepo, tokens *mockRefreshTokenRepo) *Service {
	return NewService(users, tokens, jwt.New("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour))
}

func TestService_Register_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	userRepo.On("ExistsByEmail", mock.Anything, "test@example.com").Return(false, nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	result, err := service.Register(context.Background(), RegisterRequest{
		Name:     "Test User",
		Email:    "Test@Example.COM",
		Password: "securepass123",
	})

	require.NoError(t, err)
	assert.Equal(t, "test@example.com", result.User.Email)
	assert.Empty(t, result.User.PasswordHash)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)

	userRepo.AssertExpectations(t)
	tokenRepo.AssertExpectations(t)
}

func TestService_Register_AccessTokenMatchesRefreshOwner(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	userRepo.On("ExistsByEmail", mock.Anything, mock.Anything).Return(false, nil)
	userRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	var persisted *domain.RefreshToken
	tokenRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		persisted = args.Get(1).(*domain.RefreshToken)
	}).Return(nil)

	issuer := jwt.New("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	service := NewService(userRepo, tokenRepo, issuer)

	result, err := service.Register(context.Background(), RegisterRequest{
		Name:     "Owner",
		Email:    "owner@example.com",
		Password: "securepass123",
	})
	require.NoError(t, err)
	require.NotNil(t, persisted)

	claims, err := issuer.ValidateAccessToken(result.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, persisted.UserID, claims.UserID)
}

func TestService_Register_EmailExists(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	userRepo.On("ExistsByEmail", mock.Anything, "exists@example.com").Return(true, nil)

	service := newTestService(userRepo, tokenRepo)

	_, err := service.Register(context.Background(), RegisterRequest{
		Name:     "Dup",
		Email:    "exists@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestService_Login_Success(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	existingUser := &domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
	}

	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(existingUser, nil)
	tokenRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	result, err := service.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, result.Tokens.AccessToken)
	assert.NotEmpty(t, result.Tokens.RefreshToken)
}

func TestService_Login_SameErrorForBadEmailAndBadPassword(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.DefaultCost)
	existingUser := &domain.User{
		ID:           10,
		Email:        "user@example.com",
		PasswordHash: string(hashed),
	}

	userRepo.On("GetByEmail", mock.Anything, "user@example.com").Return(existingUser, nil)
	userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	service := newTestService(userRepo, tokenRepo)

	_, wrongPassErr := service.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	_, noUserErr := service.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})

	assert.ErrorIs(t, wrongPassErr, ErrInvalidCredentials)
	assert.ErrorIs(t, noUserErr, ErrInvalidCredentials)
	assert.Equal(t, wrongPassErr.Error(), noUserErr.Error())
}

func TestService_Refresh_RotatesToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	issuer := jwt.New("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	raw, expiresAt, err := issuer.GenerateRefreshToken(7)
	require.NoError(t, err)

	current := &domain.RefreshToken{ID: 33, UserID: 7, ExpiresAt: expiresAt}
	tokenRepo.On("FindActive", mock.Anything, mock.Anything, int64(7)).Return(current, nil)
	tokenRepo.On("Rotate", mock.Anything, int64(33), mock.Anything).Return(nil)

	service := NewService(userRepo, tokenRepo, issuer)

	tokens, err := service.Refresh(context.Background(), raw)
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEqual(t, raw, tokens.RefreshToken)

	tokenRepo.AssertExpectations(t)
}

func TestService_Refresh_RotatedTokenFails(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	issuer := jwt.New("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	raw, _, err := issuer.GenerateRefreshToken(7)
	require.NoError(t, err)

	// No active record: the token has already been rotated or revoked.
	tokenRepo.On("FindActive", mock.Anything, mock.Anything, int64(7)).Return(nil, nil)

	service := NewService(userRepo, tokenRepo, issuer)

	_, err = service.Refresh(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_Refresh_LoserOfRaceFails(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	issuer := jwt.New("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	raw, expiresAt, err := issuer.GenerateRefreshToken(7)
	require.NoError(t, err)

	current := &domain.RefreshToken{ID: 33, UserID: 7, ExpiresAt: expiresAt}
	tokenRepo.On("FindActive", mock.Anything, mock.Anything, int64(7)).Return(current, nil)
	// The concurrent winner revoked the record between lookup and rotate.
	tokenRepo.On("Rotate", mock.Anything, int64(33), mock.Anything).Return(gorm.ErrRecordNotFound)

	service := NewService(userRepo, tokenRepo, issuer)

	_, err = service.Refresh(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_Refresh_GarbageToken(t *testing.T) {
	service := newTestService(new(mockUserRepo), new(mockRefreshTokenRepo))

	_, err := service.Refresh(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestService_Logout_Idempotent(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	// Already revoked: FindActive sees nothing, logout still succeeds.
	tokenRepo.On("FindActive", mock.Anything, mock.Anything, int64(5)).Return(nil, nil)

	service := newTestService(userRepo, tokenRepo)

	assert.NoError(t, service.Logout(context.Background(), 5, "some-refresh-token"))
	assert.NoError(t, service.Logout(context.Background(), 5, "some-refresh-token"))
}

func TestService_Logout_RevokesActiveToken(t *testing.T) {
	userRepo := new(mockUserRepo)
	tokenRepo := new(mockRefreshTokenRepo)

	current := &domain.RefreshToken{ID: 44, UserID: 5, ExpiresAt: time.Now().Add(time.Hour)}
	tokenRepo.On("FindActive", mock.Anything, mock.Anything, int64(5)).Return(current, nil)
	tokenRepo.On("Revoke", mock.Anything, int64(44), (*int64)(nil)).Return(nil)

	service := newTestService(userRepo, tokenRepo)

	require.NoError(t, service.Logout(context.Background(), 5, "raw-token"))
	tokenRepo.AssertExpectations(t)
}
