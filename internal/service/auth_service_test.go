package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/coursehub-api/internal/models"
	appErrors "github.com/noah-isme/coursehub-api/pkg/errors"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeProfileRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("geheim123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newFakeProfileRepo(models.Profile{ID: "u1", Email: "max@example.com", FullName: "Max Mustermann", PasswordHash: string(hash), Role: models.RoleUser})
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "coursehub-api"})
	return svc, repo
}

func TestAuthServiceLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "max@example.com", Password: "geheim123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "u1", resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "max@example.com", claims.Email)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "max@example.com", Password: "falsch"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "geheim123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceRegister(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Register(context.Background(), models.RegisterRequest{Email: " Erika@Example.com ", Password: "langespasswort", FullName: "Erika Musterfrau"})
	require.NoError(t, err)
	assert.Equal(t, "erika@example.com", resp.User.Email)
	assert.Equal(t, models.RoleUser, resp.User.Role)

	stored := repo.profiles[resp.User.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("langespasswort")))

	_, err = svc.Register(context.Background(), models.RegisterRequest{Email: "short@example.com", Password: "kurz", FullName: "Kurz"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.createErr = fmt.Errorf("create profile: %w", &pq.Error{Code: "23505", Constraint: "profiles_email_key"})

	_, err := svc.Register(context.Background(), models.RegisterRequest{Email: "max@example.com", Password: "geheim123", FullName: "Max"})
	assert.ErrorIs(t, err, appErrors.ErrEmailTaken)
}

func TestAuthServiceMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	info, err := svc.Me(context.Background(), &models.JWTClaims{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "Max Mustermann", info.FullName)

	_, err = svc.Me(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthenticated)

	_, err = svc.Me(context.Background(), &models.JWTClaims{UserID: "deleted"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenRejections(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JWTClaims{UserID: "u1"})
	signed, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := svc.Login(context.Background(), models.LoginRequest{Email: "max@example.com", Password: "geheim123"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
