package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PayoutRequest rolls the owner's accrued completed-booking earnings into a
// single transfer record for an admin to settle.
type PayoutRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID     uuid.UUID  `gorm:"not null" json:"owner_id"`
	Amount      float64    `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status      string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	AdminNotes  *string    `gorm:"type:text" json:"admin_notes"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	ProcessedAt *time.Time `json:"processed_at"`

	Owner User `gorm:"foreignkey:OwnerID" json:"owner,omitempty"`
}

func (p *PayoutRequest) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
