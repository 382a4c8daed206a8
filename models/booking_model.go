package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking reserves a space for the half-open interval [StartTime, EndTime).
// Status and PaymentStatus evolve independently: the first follows the
// booking lifecycle, the second mirrors what the payment provider reported.
type Booking struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SpaceID  uuid.UUID `gorm:"not null;index" json:"space_id"`
	RenterID uuid.UUID `gorm:"not null" json:"renter_id"`
	OwnerID  uuid.UUID `gorm:"not null" json:"owner_id"`

	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	TotalPrice  float64 `gorm:"type:numeric(10,2);not null" json:"total_price"`
	PlatformFee float64 `gorm:"type:numeric(10,2);not null" json:"platform_fee"`
	OwnerPayout float64 `gorm:"type:numeric(10,2);not null" json:"owner_payout"`
	Currency    string  `gorm:"size:3" json:"currency"`

	Status        string `gorm:"size:20;not null;default:'pending'" json:"status"`
	PaymentStatus string `gorm:"size:20;not null;default:'pending'" json:"payment_status"`

	ReferenceCode string  `gorm:"size:12;unique" json:"reference_code"`
	VehiclePlate  *string `gorm:"size:20" json:"vehicle_plate"`

	// Set once the owner's balance has been credited for this booking,
	// so a rerun of the completion job cannot pay out twice.
	PayoutCredited bool `gorm:"default:false" json:"-"`

	Space  Space `gorm:"foreignkey:SpaceID" json:"space,omitempty"`
	Renter User  `gorm:"foreignkey:RenterID" json:"renter,omitempty"`
	Owner  User  `gorm:"foreignkey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
