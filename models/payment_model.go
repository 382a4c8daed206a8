package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Payment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	BookingID *uuid.UUID `gorm:"unique" json:"booking_id"`
	UserID    uuid.UUID  `gorm:"not null" json:"user_id"`

	Amount   float64 `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency string  `gorm:"size:3" json:"currency"`
	Provider string  `gorm:"size:50;not null" json:"provider"`

	ProviderIntentID *string `gorm:"size:255;unique" json:"provider_intent_id"`
	ProviderTxnID    *string `gorm:"size:255;unique" json:"provider_txn_id"`

	Status       string  `gorm:"size:20;not null" json:"status"`
	RefundStatus *string `gorm:"size:20" json:"refund_status"`
	RefundReason *string `gorm:"type:text" json:"refund_reason"`

	Booking Booking `gorm:"foreignkey:BookingID" json:"booking,omitempty"`
	User    User    `gorm:"foreignkey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
