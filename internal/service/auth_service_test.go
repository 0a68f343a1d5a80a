package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marketplace-backend/internal/config"
	"marketplace-backend/internal/domain"
	"marketplace-backend/internal/repository"
)

type stubUsers struct {
	byID map[int64]domain.User
}

func (s *stubUsers) Create(_ context.Context, p repository.CreateUserParams) (*domain.User, error) {
	for _, u := range s.byID {
		if u.Email == p.Email {
			return nil, repository.ErrConflict
		}
	}
	u := domain.User{ID: int64(len(s.byID) + 1), Name: p.Name, Email: p.Email, Role: p.Role, PasswordHash: p.PasswordHash}
	s.byID[u.ID] = u
	return &u, nil
}

func (s *stubUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *stubUsers) List(_ context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range s.byID {
		out = append(out, u)
	}
	return out, nil
}

func newAuthService() AuthService {
	return AuthService{
		Config: config.Config{JWTSecret: "test-secret", AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour},
		Users:  &stubUsers{byID: map[int64]domain.User{}},
	}
}

func TestCreateUserAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, CreateUserInput{Name: " Dilnoza ", Email: "Cashier@Bozor.uz", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCashier, u.Role)
	assert.Equal(t, "cashier@bozor.uz", u.Email)
	assert.Equal(t, "Dilnoza", u.Name)

	res, err := svc.Login(ctx, LoginInput{Email: "cashier@bozor.uz ", Password: "s3cretpass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEqual(t, res.AccessToken, res.RefreshToken)
	assert.Equal(t, u.ID, res.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "cashier@bozor.uz", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@bozor.uz", Password: "s3cretpass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, CreateUserInput{Email: "a@b.uz", Password: "short"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "a@b.uz", Password: "longenough", Role: "owner"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "a@b.uz", Password: "longenough", Role: domain.RoleManager})
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, CreateUserInput{Email: "A@b.uz", Password: "longenough"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRefresh(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()
	_, err := svc.CreateUser(ctx, CreateUserInput{Email: "admin@bozor.uz", Password: "adminpass", Role: domain.RoleAdmin})
	require.NoError(t, err)
	res, err := svc.Login(ctx, LoginInput{Email: "admin@bozor.uz", Password: "adminpass"})
	require.NoError(t, err)

	again, err := svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, again.User.Role)

	_, err = svc.Refresh(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token is not a refresh token")

	_, err = svc.Refresh(ctx, strings.Repeat("x", 20))
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := newAuthService()
	other.Config.JWTSecret = "another-secret"
	_, err = other.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
