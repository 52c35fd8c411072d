package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/checker"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedRunner struct{ sum checker.Summary }

func (r fixedRunner) Run(context.Context) checker.Summary { return r.sum }

func runPriceCheck(t *testing.T, sum checker.Summary) (int, dto.PriceCheckResponse) {
	t.Helper()
	app := fiber.New()
	app.Get("/check", NewPriceCheckHandler(fixedRunner{sum: sum}).Run)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/check", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body dto.PriceCheckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestPriceCheckCompleted(t *testing.T) {
	status, body := runPriceCheck(t, checker.Summary{
		Success:       true,
		Checked:       3,
		Notifications: 1,
		Results:       []checker.Result{{Route: "STN → VLC"}, {Route: "LGW → TIA"}, {Route: "STN → VCE", Error: "boom"}},
	})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Price check completed", body.Message)
	assert.Equal(t, 3, body.Checked)
	assert.Equal(t, 1, body.Notifications)
	assert.Len(t, body.Results, 3)
}

func TestPriceCheckSkippedIsOK(t *testing.T) {
	status, body := runPriceCheck(t, checker.Summary{Skipped: true, Results: []checker.Result{}})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Skipped)
	assert.False(t, body.Success)
	assert.Equal(t, "Price check already running", body.Message)
}

func TestPriceCheckFailure(t *testing.T) {
	status, body := runPriceCheck(t, checker.Summary{Error: "failed to list active subscriptions", Results: []checker.Result{}})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.False(t, body.Success)
	assert.Contains(t, body.Message, "failed to list active subscriptions")
}
