package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/aulora-api/internal/models"
	appErrors "github.com/noah-isme/aulora-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail    *models.User
	findByEmailErr error
	revoked        map[string]*models.RevokedToken
	revokeErr      error
	purgeErr       error
	purgeCalls     int
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	if m.userByEmail == nil || m.userByEmail.Email != email {
		return nil, sql.ErrNoRows
	}
	clone := *m.userByEmail
	return &clone, nil
}

func (m *mockAuthRepo) RevokeToken(ctx context.Context, token *models.RevokedToken) error {
	if m.revokeErr != nil {
		return m.revokeErr
	}
	if m.revoked == nil {
		m.revoked = map[string]*models.RevokedToken{}
	}
	m.revoked[token.JTI] = token
	return nil
}

func (m *mockAuthRepo) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	_, ok := m.revoked[jti]
	return ok, nil
}

func (m *mockAuthRepo) PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	m.purgeCalls++
	return 0, m.purgeErr
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	subject := "Math"
	repo := &mockAuthRepo{userByEmail: &models.User{
		ID:           "user-1",
		Email:        "ana@aulora.test",
		PasswordHash: string(hash),
		FullName:     "Ana",
		Role:         models.RoleTeacher,
		AccountType:  models.AccountFree,
		Subject:      &subject,
		Active:       true,
	}}
	svc := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "aulora-test",
	})
	return svc, repo
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "ana@aulora.test", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, models.RoleTeacher, resp.User.Role)
	assert.Equal(t, "Math", resp.User.Subject)

	claims, err := svc.ValidateToken(context.Background(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "Math", claims.TeacherSubject)
	assert.Equal(t, "aulora-test", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, models.LoginRequest{Email: "ana@aulora.test", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@aulora.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "x"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	repo.userByEmail.Active = false
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@aulora.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInactiveAccount)

	repo.userByEmail.Active = true
	repo.userByEmail.Role = models.Role("guest")
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@aulora.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	repo.findByEmailErr = errors.New("db down")
	_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@aulora.test", Password: "secret123"})
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	other := NewAuthService(&mockAuthRepo{}, nil, nil, AuthConfig{AccessTokenSecret: "other-secret"})
	token, _, err := other.IssueToken(&models.User{ID: "u", Role: models.RoleStudent})
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenRejectsUnknownRole(t *testing.T) {
	svc, _ := newAuthFixture(t)
	token, _, err := svc.IssueToken(&models.User{ID: "u", Role: models.Role("root")})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidateTokenExpired(t *testing.T) {
	svc, _ := newAuthFixture(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := svc.IssueToken(&models.User{ID: "u", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthServiceRevokeToken(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()
	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ana@aulora.test", Password: "secret123"})
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(ctx, claims))
	require.Contains(t, repo.revoked, claims.ID)
	assert.Equal(t, claims.ExpiresAt.Time, repo.revoked[claims.ID].ExpiresAt)
	assert.Equal(t, 1, repo.purgeCalls)

	_, err = svc.ValidateToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceRevokeTokenTolerantOfPurgeFailure(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.purgeErr = errors.New("timeout")

	err := svc.RevokeToken(context.Background(), &models.JWTClaims{UserID: "user-1", RegisteredClaims: jwt.RegisteredClaims{ID: "jti-1"}})
	require.NoError(t, err)
	assert.Contains(t, repo.revoked, "jti-1")

	assert.ErrorIs(t, svc.RevokeToken(context.Background(), &models.JWTClaims{}), appErrors.ErrUnauthorized)
}
