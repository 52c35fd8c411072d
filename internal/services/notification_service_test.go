package services

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedNotifications(t *testing.T, db *gorm.DB, user models.User, n int) (models.TrackedFlight, []models.Notification) {
	t.Helper()
	flight := models.TrackedFlight{UserID: user.ID, Origin: "STN", Destination: "VLC", TargetPrice: dec("90"), IsActive: true}
	require.NoError(t, db.Create(&flight).Error)

	base := time.Now().UTC()
	notes := make([]models.Notification, n)
	for i := range notes {
		notes[i] = models.Notification{
			UserID:          user.ID,
			TrackedFlightID: flight.ID,
			Message:         "Price dropped!",
			Type:            models.NotificationPriceDrop,
			SentViaInApp:    true,
			CreatedAt:       base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(&notes[i]).Error)
	}
	return flight, notes
}

func TestNotificationListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "jane@example.com")
	other := createUser(t, db, "bob@example.com")
	flight, notes := seedNotifications(t, db, user, 3)
	seedNotifications(t, db, other, 2)

	resp, err := svc.List(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, int64(3), resp.Unread)
	require.Len(t, resp.Notifications, 3)
	assert.Equal(t, notes[2].ID, resp.Notifications[0].ID)
	require.NotNil(t, resp.Notifications[0].TrackedFlight)
	assert.Equal(t, flight.ID, resp.Notifications[0].TrackedFlight.ID)
	assert.Equal(t, "VLC", resp.Notifications[0].TrackedFlight.Destination)
}

func TestNotificationMarkRead(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "jane@example.com")
	intruder := createUser(t, db, "eve@example.com")
	_, notes := seedNotifications(t, db, user, 3)

	assert.ErrorIs(t, svc.MarkRead(intruder.ID, notes[0].ID), ErrNotificationNotFound)
	require.NoError(t, svc.MarkRead(user.ID, notes[0].ID))
	require.NoError(t, svc.MarkRead(user.ID, notes[0].ID), "marking twice is a no-op")

	resp, err := svc.List(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Unread)

	updated, err := svc.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	updated, err = svc.MarkAllRead(user.ID)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestNotificationDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewNotificationService(db)
	user := createUser(t, db, "jane@example.com")
	intruder := createUser(t, db, "eve@example.com")
	_, notes := seedNotifications(t, db, user, 2)

	assert.ErrorIs(t, svc.Delete(intruder.ID, notes[0].ID), ErrNotificationNotFound)
	assert.ErrorIs(t, svc.Delete(user.ID, uuid.New()), ErrNotificationNotFound)
	require.NoError(t, svc.Delete(user.ID, notes[0].ID))

	resp, err := svc.List(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, notes[1].ID, resp.Notifications[0].ID)
}
