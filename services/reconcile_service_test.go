package services

import (
	"testing"
	"time"

	"github.com/otienojr/park_space/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupReconcileDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Space{}, &models.Booking{}, &models.Payment{}))
	return db
}

func seedPendingBooking(t *testing.T, db *gorm.DB) (*models.Booking, *models.Payment) {
	t.Helper()

	booking := &models.Booking{
		SpaceID:       uuid.New(),
		RenterID:      uuid.New(),
		OwnerID:       uuid.New(),
		StartTime:     time.Now().Add(2 * time.Hour),
		EndTime:       time.Now().Add(5 * time.Hour),
		TotalPrice:    15.00,
		PlatformFee:   2.25,
		OwnerPayout:   12.75,
		Currency:      "USD",
		Status:        "pending",
		PaymentStatus: "pending",
		ReferenceCode: "PK-TEST01",
	}
	require.NoError(t, db.Create(booking).Error)

	payment := &models.Payment{
		BookingID: &booking.ID,
		UserID:    booking.RenterID,
		Amount:    booking.TotalPrice,
		Currency:  "USD",
		Provider:  "stripe",
		Status:    "pending",
	}
	require.NoError(t, db.Create(payment).Error)

	return booking, payment
}

func TestApplyProviderStatusSucceeded(t *testing.T) {
	db := setupReconcileDB(t)
	booking, payment := seedPendingBooking(t, db)

	txnID := "ch_abc123"
	require.NoError(t, ApplyProviderStatus(db, payment, ProviderStatusSucceeded, &txnID))

	assert.Equal(t, "succeeded", payment.Status)
	require.NotNil(t, payment.ProviderTxnID)
	assert.Equal(t, txnID, *payment.ProviderTxnID)

	var reloaded models.Booking
	require.NoError(t, db.First(&reloaded, "id = ?", booking.ID).Error)
	assert.Equal(t, "paid", reloaded.PaymentStatus)
	assert.Equal(t, "confirmed", reloaded.Status)
}

func TestApplyProviderStatusSucceededIsIdempotent(t *testing.T) {
	db := setupReconcileDB(t)
	booking, payment := seedPendingBooking(t, db)

	txnID := "ch_abc123"
	require.NoError(t, ApplyProviderStatus(db, payment, ProviderStatusSucceeded, &txnID))

	// The booking moves on after confirmation; a replayed webhook must not
	// drag it back.
	require.NoError(t, db.Model(&models.Booking{}).Where("id = ?", booking.ID).Update("status", "active").Error)

	otherTxn := "ch_replay"
	require.NoError(t, ApplyProviderStatus(db, payment, ProviderStatusSucceeded, &otherTxn))

	assert.Equal(t, txnID, *payment.ProviderTxnID, "replay must not overwrite the transaction id")

	var reloaded models.Booking
	require.NoError(t, db.First(&reloaded, "id = ?", booking.ID).Error)
	assert.Equal(t, "active", reloaded.Status)
	assert.Equal(t, "paid", reloaded.PaymentStatus)
}

func TestApplyProviderStatusFailedLeavesBookingPending(t *testing.T) {
	db := setupReconcileDB(t)
	booking, payment := seedPendingBooking(t, db)

	require.NoError(t, ApplyProviderStatus(db, payment, ProviderStatusFailed, nil))

	assert.Equal(t, "failed", payment.Status)

	var reloaded models.Booking
	require.NoError(t, db.First(&reloaded, "id = ?", booking.ID).Error)
	assert.Equal(t, "pending", reloaded.Status)
	assert.Equal(t, "pending", reloaded.PaymentStatus)
}

func TestApplyProviderStatusRefunds(t *testing.T) {
	cases := []struct {
		providerStatus    string
		wantBookingStatus string
	}{
		{ProviderStatusRefunded, "refunded"},
		{ProviderStatusPartialRefund, "partial_refund"},
	}

	for _, tc := range cases {
		t.Run(tc.providerStatus, func(t *testing.T) {
			db := setupReconcileDB(t)
			booking, payment := seedPendingBooking(t, db)

			txnID := "ch_abc123"
			require.NoError(t, ApplyProviderStatus(db, payment, ProviderStatusSucceeded, &txnID))
			require.NoError(t, ApplyProviderStatus(db, payment, tc.providerStatus, nil))

			assert.Equal(t, "refunded", payment.Status)

			var reloaded models.Booking
			require.NoError(t, db.First(&reloaded, "id = ?", booking.ID).Error)
			assert.Equal(t, tc.wantBookingStatus, reloaded.PaymentStatus)
		})
	}
}

func TestApplyProviderStatusMismatch(t *testing.T) {
	db := setupReconcileDB(t)

	err := ApplyProviderStatus(db, nil, ProviderStatusSucceeded, nil)
	assert.ErrorIs(t, err, ErrPaymentMismatch)

	orphan := &models.Payment{Status: "pending"}
	err = ApplyProviderStatus(db, orphan, ProviderStatusSucceeded, nil)
	assert.ErrorIs(t, err, ErrPaymentMismatch, "payment without a booking id")

	missingID := uuid.New()
	dangling := &models.Payment{BookingID: &missingID, Status: "pending"}
	err = ApplyProviderStatus(db, dangling, ProviderStatusSucceeded, nil)
	assert.ErrorIs(t, err, ErrPaymentMismatch, "payment pointing at a booking that does not exist")
}

func TestApplyProviderStatusRejectsUnknownStatus(t *testing.T) {
	db := setupReconcileDB(t)
	_, payment := seedPendingBooking(t, db)

	err := ApplyProviderStatus(db, payment, "requires_capture", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrPaymentMismatch)
}
