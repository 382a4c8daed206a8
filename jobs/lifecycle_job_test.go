package jobs

import (
	"testing"
	"time"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupJobsDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Space{}, &models.Booking{}, &models.Payment{}))

	database.DB = db
	return db
}

func seedFinishedBooking(t *testing.T, db *gorm.DB, paymentStatus string) (*models.User, *models.Booking) {
	t.Helper()

	owner := &models.User{FullName: "Olive Owner", Email: "olive@example.com", Password: "x", Role: "owner"}
	renter := &models.User{FullName: "Rita Renter", Email: "rita@example.com", Password: "x"}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(renter).Error)

	space := &models.Space{
		OwnerID:         owner.ID,
		Title:           "Garage on 5th",
		SpaceType:       "garage",
		Address:         "5th Avenue 12",
		City:            "Nairobi",
		PricePerHour:    5.00,
		MinBookingHours: 1,
		MaxBookingDays:  30,
		Status:          "active",
	}
	require.NoError(t, db.Create(space).Error)

	booking := &models.Booking{
		SpaceID:       space.ID,
		RenterID:      renter.ID,
		OwnerID:       owner.ID,
		StartTime:     time.Now().Add(-4 * time.Hour),
		EndTime:       time.Now().Add(-1 * time.Hour),
		TotalPrice:    15.00,
		PlatformFee:   2.25,
		OwnerPayout:   12.75,
		Currency:      "USD",
		Status:        "active",
		PaymentStatus: paymentStatus,
		ReferenceCode: "PK-JOB001",
	}
	require.NoError(t, db.Create(booking).Error)

	return owner, booking
}

func TestCompleteFinishedBookingsCreditsOwnerOnce(t *testing.T) {
	db := setupJobsDB(t)
	owner, booking := seedFinishedBooking(t, db, "paid")

	CompleteFinishedBookings()

	var reloadedBooking models.Booking
	require.NoError(t, db.First(&reloadedBooking, "id = ?", booking.ID).Error)
	assert.Equal(t, "completed", reloadedBooking.Status)
	assert.True(t, reloadedBooking.PayoutCredited)

	var reloadedOwner models.User
	require.NoError(t, db.First(&reloadedOwner, "id = ?", owner.ID).Error)
	assert.InDelta(t, 12.75, reloadedOwner.Balance, 1e-9)

	// A slow run can overlap the next trigger: the second run listed the
	// booking as active before the first one finished. Replaying completion
	// against the already-credited row must not pay the owner again.
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", booking.ID).Update("status", "active").Error)

	CompleteFinishedBookings()

	require.NoError(t, db.First(&reloadedBooking, "id = ?", booking.ID).Error)
	assert.Equal(t, "completed", reloadedBooking.Status)

	require.NoError(t, db.First(&reloadedOwner, "id = ?", owner.ID).Error)
	assert.InDelta(t, 12.75, reloadedOwner.Balance, 1e-9, "owner payout must be credited exactly once")
}

func TestCompleteFinishedBookingsSkipsUnpaidPayout(t *testing.T) {
	db := setupJobsDB(t)
	owner, booking := seedFinishedBooking(t, db, "pending")

	CompleteFinishedBookings()

	var reloadedBooking models.Booking
	require.NoError(t, db.First(&reloadedBooking, "id = ?", booking.ID).Error)
	assert.Equal(t, "completed", reloadedBooking.Status)
	assert.False(t, reloadedBooking.PayoutCredited)

	var reloadedOwner models.User
	require.NoError(t, db.First(&reloadedOwner, "id = ?", owner.ID).Error)
	assert.Zero(t, reloadedOwner.Balance)
}

func TestActivateStartedBookings(t *testing.T) {
	db := setupJobsDB(t)
	_, booking := seedFinishedBooking(t, db, "paid")
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", booking.ID).Updates(map[string]interface{}{
		"status":     "confirmed",
		"start_time": time.Now().Add(-10 * time.Minute),
		"end_time":   time.Now().Add(2 * time.Hour),
	}).Error)

	ActivateStartedBookings()

	var reloaded models.Booking
	require.NoError(t, db.First(&reloaded, "id = ?", booking.ID).Error)
	assert.Equal(t, "active", reloaded.Status)
}

func TestExpireUnpaidBookings(t *testing.T) {
	db := setupJobsDB(t)
	_, stale := seedFinishedBooking(t, db, "pending")
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", stale.ID).Updates(map[string]interface{}{
		"status":     "pending",
		"created_at": time.Now().Add(-time.Hour),
	}).Error)

	fresh := &models.Booking{
		SpaceID:       stale.SpaceID,
		RenterID:      stale.RenterID,
		OwnerID:       stale.OwnerID,
		StartTime:     time.Now().Add(2 * time.Hour),
		EndTime:       time.Now().Add(4 * time.Hour),
		TotalPrice:    10.00,
		PlatformFee:   1.50,
		OwnerPayout:   8.50,
		Currency:      "USD",
		Status:        "pending",
		PaymentStatus: "pending",
		ReferenceCode: "PK-JOB002",
	}
	require.NoError(t, db.Create(fresh).Error)

	ExpireUnpaidBookings()

	var reloadedStale models.Booking
	require.NoError(t, db.First(&reloadedStale, "id = ?", stale.ID).Error)
	assert.Equal(t, "cancelled", reloadedStale.Status)

	var reloadedFresh models.Booking
	require.NoError(t, db.First(&reloadedFresh, "id = ?", fresh.ID).Error)
	assert.Equal(t, "pending", reloadedFresh.Status, "a booking inside the payment hold window must not be expired")
}
