package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/subtrackr/subtrackr-backend/internal/tenants"
	"github.com/subtrackr/subtrackr-backend/internal/users"
	pkgauth "github.com/subtrackr/subtrackr-backend/pkg/auth"
	"github.com/subtrackr/subtrackr-backend/pkg/auth/session"
	"github.com/subtrackr/subtrackr-backend/pkg/config"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	pkgerrors "github.com/subtrackr/subtrackr-backend/pkg/errors"
)

type fakeSessionManager struct {
	generated map[string]string
	revoked   []string
	rotateErr error
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{generated: map[string]string{}}
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	f.generated[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateErr != nil {
		return "", "", f.rotateErr
	}
	stored, ok := f.generated[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.generated, oldAccessID)
	newID := session.NewAccessID()
	newToken := "refresh-" + newID
	f.generated[newID] = newToken
	return newID, newToken, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	f.revoked = append(f.revoked, accessID)
	delete(f.generated, accessID)
	return nil
}

type authTxRunner struct {
	db *gorm.DB
}

func (r authTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupAuthTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	tenantsTable := `
CREATE TABLE IF NOT EXISTS tenants (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  plan TEXT NOT NULL DEFAULT 'free',
  created_at DATETIME,
  updated_at DATETIME
);`
	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  full_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'member',
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(tenantsTable).Error)
	require.NoError(t, db.Exec(usersTable).Error)
	return db
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "subtrackr-test",
		ExpirationMinutes: 15,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func newAuthService(t *testing.T, db *gorm.DB, sessions *fakeSessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:    users.NewRepository(db),
		TenantRepo:  tenants.NewRepository(db),
		Tx:          authTxRunner{db: db},
		Session:     sessions,
		JWTConfig:   testJWTConfig(),
		PasswordCfg: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc
}

func registerOwner(t *testing.T, svc Service) *RegisterResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		TenantName: "Acme",
		FullName:   "Ada Owner",
		Email:      "Owner@Acme.Test",
		Password:   "correct horse battery",
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterProvisionsTenantAndOwner(t *testing.T) {
	db := setupAuthTestDB(t)
	sessions := newFakeSessionManager()
	svc := newAuthService(t, db, sessions)

	resp := registerOwner(t, svc)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "owner@acme.test", resp.User.Email)
	assert.Equal(t, enums.MemberRoleOwner, resp.User.Role)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, resp.User.TenantID, claims.TenantID)
	assert.Equal(t, enums.MemberRoleOwner, claims.Role)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newFakeSessionManager())

	registerOwner(t, svc)
	_, err := svc.Register(context.Background(), RegisterRequest{
		TenantName: "Other Co",
		FullName:   "Bob",
		Email:      "owner@acme.test",
		Password:   "another password!",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestLoginWithValidCredentials(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newFakeSessionManager())
	registerOwner(t, svc)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "owner@acme.test",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.WithinDuration(t, time.Now().UTC(), *resp.User.LastLoginAt, time.Minute)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newFakeSessionManager())
	registerOwner(t, svc)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "owner@acme.test",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLoginUnknownEmailLooksLikeBadCredentials(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newFakeSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@acme.test",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRefreshRotatesSession(t *testing.T) {
	db := setupAuthTestDB(t)
	sessions := newFakeSessionManager()
	svc := newAuthService(t, db, sessions)
	resp := registerOwner(t, svc)

	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, resp.RefreshToken, pair.RefreshToken)

	// Old refresh token must be dead after rotation.
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestRefreshRejectsForgedAccessToken(t *testing.T) {
	db := setupAuthTestDB(t)
	svc := newAuthService(t, db, newFakeSessionManager())

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "anything",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestLogoutRevokesSession(t *testing.T) {
	db := setupAuthTestDB(t)
	sessions := newFakeSessionManager()
	svc := newAuthService(t, db, sessions)
	resp := registerOwner(t, svc)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims.ID))
	assert.Contains(t, sessions.revoked, claims.ID)
}
