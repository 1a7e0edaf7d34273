package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackr/subtrackr-backend/internal/auth"
	"github.com/subtrackr/subtrackr-backend/internal/dashboard"
	"github.com/subtrackr/subtrackr-backend/internal/notifications"
	"github.com/subtrackr/subtrackr-backend/internal/subscriptions"
	pkgAuth "github.com/subtrackr/subtrackr-backend/pkg/auth"
	"github.com/subtrackr/subtrackr-backend/pkg/auth/session"
	"github.com/subtrackr/subtrackr-backend/pkg/config"
	"github.com/subtrackr/subtrackr-backend/pkg/db/models"
	"github.com/subtrackr/subtrackr-backend/pkg/enums"
	"github.com/subtrackr/subtrackr-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, auth.RegisterRequest) (*auth.RegisterResponse, error) {
	return &auth.RegisterResponse{}, nil
}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return &auth.LoginResponse{}, nil
}

func (stubAuthService) Refresh(context.Context, auth.RefreshRequest) (*auth.TokenPair, error) {
	return &auth.TokenPair{}, nil
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

type stubSubscriptionsService struct{}

func (stubSubscriptionsService) Create(context.Context, subscriptions.CreateInput) (*models.Subscription, error) {
	return &models.Subscription{}, nil
}

func (stubSubscriptionsService) Update(context.Context, subscriptions.UpdateInput) (*models.Subscription, error) {
	return &models.Subscription{}, nil
}

func (stubSubscriptionsService) Get(context.Context, uuid.UUID, uuid.UUID) (*models.Subscription, error) {
	return &models.Subscription{}, nil
}

func (stubSubscriptionsService) List(context.Context, subscriptions.ListParams) (*subscriptions.ListResult, error) {
	return &subscriptions.ListResult{}, nil
}

func (stubSubscriptionsService) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubRemindersService struct{}

func (stubRemindersService) ListForSubscription(context.Context, uuid.UUID, uuid.UUID) ([]models.Reminder, error) {
	return nil, nil
}

func (stubRemindersService) ListUpcoming(context.Context, uuid.UUID, int) ([]models.Reminder, error) {
	return nil, nil
}

func (stubRemindersService) DueForSubscription(context.Context, *models.Subscription, time.Time) (*models.Reminder, error) {
	return nil, nil
}

func (stubRemindersService) MarkSent(context.Context, uuid.UUID) error { return nil }

func (stubRemindersService) SweepOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (stubNotificationsService) MarkAllRead(context.Context, uuid.UUID) (int64, error) {
	return 0, nil
}

func (stubNotificationsService) DispatchReminder(context.Context, *models.Subscription, *models.Reminder) error {
	return nil
}

func (stubNotificationsService) SweepOlderThan(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type stubDashboardService struct{}

func (stubDashboardService) Summary(context.Context, uuid.UUID) (*dashboard.SummaryResult, error) {
	return &dashboard.SummaryResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:         cfg,
		Logger:         logg,
		DB:             stubPinger{},
		SessionChecker: stubSessionChecker{},
		Auth:           stubAuthService{},
		Subscriptions:  stubSubscriptionsService{},
		Reminders:      stubRemindersService{},
		Notifications:  stubNotificationsService{},
		Dashboard:      stubDashboardService{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: uuid.New(),
		Role:     role,
		JTI:      session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{
		"/api/v1/subscriptions",
		"/api/v1/reminders/upcoming",
		"/api/v1/notifications",
		"/api/v1/dashboard/summary",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 without token for %s got %d", path, resp.Code)
		}
	}
}

func TestProtectedGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, enums.MemberRoleOwner)

	for _, path := range []string{
		"/api/v1/subscriptions",
		"/api/v1/reminders/upcoming",
		"/api/v1/notifications",
		"/api/v1/dashboard/summary",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 with token for %s got %d", path, resp.Code)
		}
	}
}

func TestRegisterRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestRegisterAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"tenant_name":"Acme","full_name":"Zed Doe","email":"zed@example.com","password":"longenoughpass"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for valid payload got %d", resp.Code)
	}
}

func TestSubscriptionCreateValidatesRenewalDate(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := buildToken(t, cfg, enums.MemberRoleOwner)

	body := `{"name":"Figma","renewal_date":"31-03-2025"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed renewal date got %d", resp.Code)
	}
}
