package services

import (
	"errors"
	"fmt"

	"github.com/otienojr/park_space/models"
	"gorm.io/gorm"
)

// Provider-reported payment statuses the reconciler understands.
const (
	ProviderStatusSucceeded     = "succeeded"
	ProviderStatusFailed        = "failed"
	ProviderStatusCancelled     = "cancelled"
	ProviderStatusRefunded      = "refunded"
	ProviderStatusPartialRefund = "partial_refund"
)

// ApplyProviderStatus maps a provider-reported payment status onto the
// payment row and its booking, keeping the two in agreement. It must run
// inside the caller's transaction. Terminal statuses are idempotent:
// re-delivered webhooks leave the records unchanged.
func ApplyProviderStatus(tx *gorm.DB, payment *models.Payment, providerStatus string, providerTxnID *string) error {
	if payment == nil || payment.BookingID == nil {
		return ErrPaymentMismatch
	}

	var booking models.Booking
	if err := tx.First(&booking, "id = ?", payment.BookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPaymentMismatch
		}
		return err
	}

	switch providerStatus {
	case ProviderStatusSucceeded:
		if payment.Status == "succeeded" {
			return nil
		}
		payment.Status = "succeeded"
		if providerTxnID != nil {
			payment.ProviderTxnID = providerTxnID
		}
		booking.PaymentStatus = "paid"
		if booking.Status == "pending" && CanTransitionBooking(booking.Status, "confirmed") {
			booking.Status = "confirmed"
		}

	case ProviderStatusFailed, ProviderStatusCancelled:
		if payment.Status == providerStatus {
			return nil
		}
		payment.Status = providerStatus
		// The booking's payment status stays pending; cancelling the
		// booking itself is the caller's policy call.

	case ProviderStatusRefunded:
		payment.Status = "refunded"
		booking.PaymentStatus = "refunded"

	case ProviderStatusPartialRefund:
		payment.Status = "refunded"
		booking.PaymentStatus = "partial_refund"

	default:
		return fmt.Errorf("unknown provider payment status %q", providerStatus)
	}

	if err := tx.Save(payment).Error; err != nil {
		return err
	}
	return tx.Save(&booking).Error
}
