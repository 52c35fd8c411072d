package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/checker"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/notify"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/provider"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/scheduler"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db
	t.Cleanup(func() {
		database.DB = nil
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		AdminEmails:      "admin@example.com",
		CronSecret:       "cron-secret",
		CORSOrigins:      "*",
	}

	manager := provider.NewDefaultManager(time.Second, 7)
	params := pricing.DefaultParams()
	priceChecker := checker.New(manager, checker.NewGormStore(db), notify.NewDispatcher(nil), checker.Options{
		Params:       params,
		NotifyPolicy: config.NotifyEveryCheck,
	})
	runner := checker.NewRunner(priceChecker, 0)
	sched, err := scheduler.New("", runner)
	require.NoError(t, err)

	app := fiber.New()
	Setup(app, cfg, db, Handlers{
		Auth:          handlers.NewAuthHandler(services.NewAuthService(db, cfg)),
		Health:        handlers.NewHealthHandler(runner, sched, nil),
		Search:        handlers.NewSearchHandler(services.NewSearchService(manager, nil, 0)),
		Tracking:      handlers.NewTrackingHandler(services.NewTrackingService(db, priceChecker, params)),
		Notifications: handlers.NewNotificationHandler(services.NewNotificationService(db)),
		Preferences:   handlers.NewPreferencesHandler(services.NewPreferencesService(db)),
		PriceCheck:    handlers.NewPriceCheckHandler(runner),
		Admin:         handlers.NewAdminHandler(services.NewAdminService(db)),
	})
	return app, cfg
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}, headers ...string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func register(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	status, body := call(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{
		Email: email, Password: "correct-horse", Name: "Jane",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var auth dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &auth))
	require.NotEmpty(t, auth.AccessToken)
	return auth.AccessToken
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := call(t, app, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, status)

	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.DB)
	assert.Equal(t, "disabled", health.Scheduler)
	assert.Equal(t, "disabled", health.Cache)
	assert.False(t, health.Checking)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app, _ := newTestApp(t)

	for _, path := range []string{"/api/flights/track", "/api/notifications", "/api/user/preferences", "/api/auth/me"} {
		status, _ := call(t, app, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}
	status, _ := call(t, app, http.MethodGet, "/api/flights/track", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthFlow(t *testing.T) {
	app, _ := newTestApp(t)
	token := register(t, app, "jane@example.com")

	status, _ := call(t, app, http.MethodPost, "/api/auth/register", "", dto.RegisterRequest{Email: "JANE@example.com", Password: "correct-horse"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "jane@example.com", Password: "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := call(t, app, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	var me struct {
		User dto.UserResponse `json:"user"`
	}
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, "jane@example.com", me.User.Email)

	status, _ = call(t, app, http.MethodDelete, "/api/auth/account", token, dto.DeleteAccountRequest{Password: "wrong-horse"})
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(t, app, http.MethodDelete, "/api/auth/account", token, dto.DeleteAccountRequest{})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = call(t, app, http.MethodDelete, "/api/auth/account", token, dto.DeleteAccountRequest{Password: "correct-horse"})
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuthLimiterOnlyGuardsCredentialEndpoints(t *testing.T) {
	app, _ := newTestApp(t)
	token := register(t, app, "jane@example.com")

	for i := 0; i < 15; i++ {
		status, _ := call(t, app, http.MethodGet, "/api/auth/me", token, nil)
		require.Equal(t, http.StatusOK, status, "me call %d", i+1)
	}

	// register above used one of the ten credential slots
	for i := 0; i < 9; i++ {
		status, _ := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "jane@example.com", Password: "wrong-horse"})
		require.Equal(t, http.StatusUnauthorized, status, "login call %d", i+1)
	}
	status, _ := call(t, app, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "jane@example.com", Password: "correct-horse"})
	assert.Equal(t, http.StatusTooManyRequests, status)
	status, _ = call(t, app, http.MethodPost, "/api/auth/refresh", "", dto.RefreshRequest{RefreshToken: "x"})
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = call(t, app, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodPost, "/api/auth/logout", token, dto.LogoutRequest{RefreshToken: "x"})
	assert.NotEqual(t, http.StatusTooManyRequests, status)
}

func TestTrackingFlow(t *testing.T) {
	app, _ := newTestApp(t)
	token := register(t, app, "jane@example.com")

	status, body := call(t, app, http.MethodPost, "/api/flights/track", token, map[string]interface{}{
		"origin":         "STN",
		"destination":    "VLC",
		"target_price":   90,
		"departure_date": "2026-05-10",
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	var created dto.TrackFlightResponse
	require.NoError(t, json.Unmarshal(body, &created))
	id := created.TrackedFlight.ID.String()
	assert.Contains(t, created.Message, "STN → VLC")

	status, body = call(t, app, http.MethodPost, "/api/flights/track", token, map[string]interface{}{
		"origin": "STN", "destination": "VLC", "target_price": 90,
	})
	assert.Equal(t, http.StatusBadRequest, status, string(body))

	status, body = call(t, app, http.MethodGet, "/api/flights/track", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list dto.TrackedFlightsResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.TrackedFlights, 1)
	assert.Equal(t, "108", list.TrackedFlights[0].CurrentPrice.String())

	status, body = call(t, app, http.MethodPost, "/api/flights/track/"+id+"/check", token, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var checked struct {
		Result checker.Result `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &checked))
	assert.Equal(t, created.TrackedFlight.ID, checked.Result.TrackedFlightID)
	require.NotNil(t, checked.Result.PreviousPrice)
	assert.Equal(t, "108", checked.Result.PreviousPrice.String())

	status, _ = call(t, app, http.MethodGet, "/api/flights/track/"+id, token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodGet, "/api/flights/track/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	other := register(t, app, "eve@example.com")
	status, _ = call(t, app, http.MethodGet, "/api/flights/track/"+id, other, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, app, http.MethodDelete, "/api/flights/track/"+id, token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodPost, "/api/flights/track/"+id+"/check", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNotificationsAndPreferences(t *testing.T) {
	app, _ := newTestApp(t)
	token := register(t, app, "jane@example.com")

	status, body := call(t, app, http.MethodGet, "/api/notifications", token, nil)
	require.Equal(t, http.StatusOK, status)
	var notes dto.NotificationsResponse
	require.NoError(t, json.Unmarshal(body, &notes))
	assert.Empty(t, notes.Notifications)

	status, _ = call(t, app, http.MethodPut, "/api/notifications", token, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = call(t, app, http.MethodPatch, "/api/notifications/5b0e9b0c-6c7e-4b43-9d4e-2f1d2a3b4c5d/read", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = call(t, app, http.MethodGet, "/api/user/preferences", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `"email_notifications":true`)

	status, body = call(t, app, http.MethodPut, "/api/user/preferences", token, map[string]interface{}{
		"email_notifications": false,
		"currency":            "gbp",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), `"email_notifications":false`)
	assert.Contains(t, string(body), `"currency":"GBP"`)

	status, _ = call(t, app, http.MethodPut, "/api/user/preferences", token, map[string]interface{}{"currency": "euro"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSearchEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := call(t, app, http.MethodGet, "/api/flights/search?origin=STN&destination=VLC&date=2026-05-10&adults=2", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var resp dto.SearchResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Flights)
	assert.Equal(t, 2, resp.Search.Passengers.Adults)
	for i := 1; i < len(resp.Flights); i++ {
		assert.False(t, resp.Flights[i].Price.LessThan(resp.Flights[i-1].Price), "flights are sorted by price")
	}

	status, _ = call(t, app, http.MethodGet, "/api/flights/search?origin=STN&destination=JFK", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCronCheckPrices(t *testing.T) {
	app, _ := newTestApp(t)
	token := register(t, app, "jane@example.com")
	status, _ := call(t, app, http.MethodPost, "/api/flights/track", token, map[string]interface{}{
		"origin": "STN", "destination": "VLC", "target_price": 90, "departure_date": "2026-05-10",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = call(t, app, http.MethodGet, "/api/cron/check-prices", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = call(t, app, http.MethodGet, "/api/cron/check-prices", "", nil, "X-Cron-Secret", "guess")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := call(t, app, http.MethodGet, "/api/cron/check-prices", "", nil, "X-Cron-Secret", "cron-secret")
	require.Equal(t, http.StatusOK, status, string(body))
	var resp dto.PriceCheckResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Skipped)
	assert.Equal(t, 1, resp.Checked)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestAdminRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	user := register(t, app, "jane@example.com")
	admin := register(t, app, "admin@example.com")

	status, _ := call(t, app, http.MethodGet, "/api/admin/price-updates", user, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = call(t, app, http.MethodPost, "/api/flights/track", user, map[string]interface{}{
		"origin": "LGW", "destination": "TIA", "target_price": 80, "departure_date": "2026-05-10",
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := call(t, app, http.MethodPost, "/api/admin/check-prices", admin, nil)
	require.Equal(t, http.StatusOK, status, string(body))

	status, body = call(t, app, http.MethodGet, "/api/admin/price-updates", admin, nil)
	require.Equal(t, http.StatusOK, status)
	var feed struct {
		PriceUpdates []dto.PriceUpdateFeedItem `json:"price_updates"`
		Total        int                       `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &feed))
	assert.Equal(t, 2, feed.Total, "initial sample plus one checked sample")
	assert.Equal(t, "jane@example.com", feed.PriceUpdates[0].UserEmail)
	assert.Equal(t, "LGW → TIA", feed.PriceUpdates[0].Route)
}
