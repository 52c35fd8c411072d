package services

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig())

	resp, err := svc.Register(&dto.RegisterRequest{Email: " Jane@Example.com ", Password: "hunter22", Name: "Jane"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "jane@example.com", resp.User.Email)
	assert.Equal(t, "Jane", resp.User.Name)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (interface{}, error) { return []byte("test-secret"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, resp.User.ID.String(), claims["sub"])
	assert.Equal(t, "user", claims["role"])

	_, err = svc.Register(&dto.RegisterRequest{Email: "jane@example.com", Password: "hunter22"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(&dto.RegisterRequest{Email: "bob@example.com", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakCredentials)

	_, err = svc.Login(&dto.LoginRequest{Email: "jane@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(&dto.LoginRequest{Email: "JANE@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)
}

func TestRefreshRotatesToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig())

	resp, err := svc.Register(&dto.RegisterRequest{Email: "jane@example.com", Password: "hunter22"})
	require.NoError(t, err)

	next, err := svc.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, resp.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: resp.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken, "a used refresh token is revoked")

	require.NoError(t, svc.Logout(&dto.LogoutRequest{RefreshToken: next.RefreshToken}))
	_, err = svc.Refresh(&dto.RefreshRequest{RefreshToken: next.RefreshToken})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDeleteAccountRemovesOwnedData(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, testConfig())

	resp, err := svc.Register(&dto.RegisterRequest{Email: "jane@example.com", Password: "hunter22"})
	require.NoError(t, err)
	userID := resp.User.ID

	flight := models.TrackedFlight{UserID: userID, Origin: "STN", Destination: "VLC", TargetPrice: dec("90"), IsActive: true}
	require.NoError(t, db.Create(&flight).Error)
	require.NoError(t, db.Create(&models.PriceUpdate{TrackedFlightID: flight.ID, Price: dec("100")}).Error)
	require.NoError(t, db.Create(&models.Notification{UserID: userID, TrackedFlightID: flight.ID, Message: "m", Type: models.NotificationPriceDrop}).Error)

	assert.ErrorIs(t, svc.DeleteAccount(userID, ""), ErrPasswordRequired)
	assert.ErrorIs(t, svc.DeleteAccount(userID, "nope-nope"), ErrInvalidCredentials)
	require.NoError(t, svc.DeleteAccount(userID, "hunter22"))

	for _, m := range []interface{}{&models.TrackedFlight{}, &models.PriceUpdate{}, &models.Notification{}, &models.RefreshToken{}} {
		var n int64
		require.NoError(t, db.Model(m).Count(&n).Error)
		assert.Zero(t, n, "%T left behind", m)
	}

	_, err = svc.Me(userID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = svc.Register(&dto.RegisterRequest{Email: "jane@example.com", Password: "hunter22"})
	assert.NoError(t, err, "email is free again")
}
