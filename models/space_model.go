package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Space is a bookable parking listing: a driveway, garage, single spot or
// a whole car park. Listings start out "pending" until an admin approves
// them, after which the owner can pause and resume them at will.
type Space struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID     uuid.UUID `gorm:"not null" json:"owner_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description *string   `gorm:"type:text" json:"description"`
	SpaceType   string    `gorm:"size:20;not null" json:"space_type"`

	Address   string   `gorm:"size:255;not null" json:"address"`
	City      string   `gorm:"size:100;not null" json:"city"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	PricePerHour float64 `gorm:"type:numeric(10,2);not null" json:"price_per_hour"`
	PricePerDay  float64 `gorm:"type:numeric(10,2)" json:"price_per_day"`

	MinBookingHours int `gorm:"not null;default:1" json:"min_booking_hours"`
	MaxBookingDays  int `gorm:"not null;default:30" json:"max_booking_days"`

	Status    string         `gorm:"size:20;not null;default:'pending'" json:"status"`
	Amenities datatypes.JSON `json:"amenities"`
	Photos    datatypes.JSON `json:"photos"`
	AvgRating float32        `gorm:"default:0" json:"avg_rating"`

	Owner User `gorm:"foreignkey:OwnerID" json:"owner,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Space) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
