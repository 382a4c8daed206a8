package handlers

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/otienojr/park_space/services"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CreateSpaceRequest struct {
	Title           string   `json:"title" validate:"required,min=5"`
	Description     *string  `json:"description,omitempty"`
	SpaceType       string   `json:"space_type" validate:"required,oneof=driveway garage parking_spot car_park"`
	Address         string   `json:"address" validate:"required"`
	City            string   `json:"city" validate:"required"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	PricePerHour    float64  `json:"price_per_hour" validate:"required,gt=0"`
	PricePerDay     float64  `json:"price_per_day" validate:"omitempty,gt=0"`
	MinBookingHours int      `json:"min_booking_hours" validate:"omitempty,min=1"`
	MaxBookingDays  int      `json:"max_booking_days" validate:"omitempty,min=1"`
	Amenities       []string `json:"amenities" validate:"omitempty,dive,oneof=cctv covered ev_charging lighting secure_gate disabled_access"`
	Photos          []string `json:"photos" validate:"omitempty,dive,url"`
}

func CreateSpace(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID, _ := uuid.Parse(claims["user_id"].(string))

	var req CreateSpaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	minHours := 1
	if req.MinBookingHours > 1 {
		minHours = req.MinBookingHours
	}
	maxDays := 30
	if req.MaxBookingDays > 0 {
		maxDays = req.MaxBookingDays
	}

	amenitiesJSON, _ := json.Marshal(req.Amenities)
	photosJSON, _ := json.Marshal(req.Photos)

	newSpace := models.Space{
		OwnerID:         ownerID,
		Title:           req.Title,
		Description:     req.Description,
		SpaceType:       req.SpaceType,
		Address:         req.Address,
		City:            req.City,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		PricePerHour:    req.PricePerHour,
		PricePerDay:     req.PricePerDay,
		MinBookingHours: minHours,
		MaxBookingDays:  maxDays,
		Amenities:       datatypes.JSON(amenitiesJSON),
		Photos:          datatypes.JSON(photosJSON),
	}

	if err := database.DB.Create(&newSpace).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create space listing"})
	}

	return c.Status(fiber.StatusCreated).JSON(newSpace)
}

func GetMySpaces(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID := claims["user_id"].(string)

	var spaces []models.Space
	database.DB.Where("owner_id = ?", ownerID).Order("created_at desc").Find(&spaces)

	return c.JSON(spaces)
}

type UpdateSpaceRequest struct {
	Title           *string  `json:"title,omitempty"`
	Description     *string  `json:"description,omitempty"`
	Address         *string  `json:"address,omitempty"`
	PricePerHour    *float64 `json:"price_per_hour,omitempty"`
	PricePerDay     *float64 `json:"price_per_day,omitempty"`
	MinBookingHours *int     `json:"min_booking_hours,omitempty"`
	MaxBookingDays  *int     `json:"max_booking_days,omitempty"`
	Amenities       []string `json:"amenities,omitempty" validate:"omitempty,dive,oneof=cctv covered ev_charging lighting secure_gate disabled_access"`
	Photos          []string `json:"photos,omitempty" validate:"omitempty,dive,url"`
}

func UpdateMySpace(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID, _ := uuid.Parse(claims["user_id"].(string))
	spaceID := c.Params("spaceId")

	var space models.Space
	if err := database.DB.First(&space, "id = ?", spaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Space not found"})
	}
	if space.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the owner of this space"})
	}

	var req UpdateSpaceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if req.Title != nil {
		space.Title = *req.Title
	}
	if req.Description != nil {
		space.Description = req.Description
	}
	if req.Address != nil {
		space.Address = *req.Address
	}
	if req.PricePerHour != nil {
		space.PricePerHour = *req.PricePerHour
	}
	if req.PricePerDay != nil {
		space.PricePerDay = *req.PricePerDay
	}
	if req.MinBookingHours != nil {
		space.MinBookingHours = *req.MinBookingHours
	}
	if req.MaxBookingDays != nil {
		space.MaxBookingDays = *req.MaxBookingDays
	}
	if req.Amenities != nil {
		amenitiesJSON, _ := json.Marshal(req.Amenities)
		space.Amenities = datatypes.JSON(amenitiesJSON)
	}
	if req.Photos != nil {
		photosJSON, _ := json.Marshal(req.Photos)
		space.Photos = datatypes.JSON(photosJSON)
	}

	if err := database.DB.Save(&space).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update space"})
	}

	return c.JSON(space)
}

// SetSpaceStatus lets an owner pause or resume an approved listing. Pending
// and rejected listings stay where the admin left them.
func SetSpaceStatus(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	ownerID, _ := uuid.Parse(claims["user_id"].(string))
	spaceID := c.Params("spaceId")

	type StatusRequest struct {
		Status string `json:"status" validate:"required,oneof=active paused"`
	}
	var req StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var space models.Space
	if err := database.DB.First(&space, "id = ?", spaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Space not found"})
	}
	if space.OwnerID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You are not the owner of this space"})
	}
	if space.Status != "active" && space.Status != "paused" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Only approved listings can be paused or resumed"})
	}

	space.Status = req.Status
	if err := database.DB.Save(&space).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update space status"})
	}

	return c.JSON(space)
}

func ListSpaces(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	offset := (page - 1) * pageSize

	query := database.DB.Where("status = ?", "active")

	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	if spaceType := c.Query("space_type"); spaceType != "" {
		query = query.Where("space_type = ?", spaceType)
	}
	if maxPrice := c.Query("max_price_per_hour"); maxPrice != "" {
		if price, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price_per_hour <= ?", price)
		}
	}

	var spaces []models.Space
	query.Order("avg_rating desc").Limit(pageSize).Offset(offset).Find(&spaces)

	return c.JSON(spaces)
}

func GetSpace(c *fiber.Ctx) error {
	spaceID := c.Params("spaceId")

	var space models.Space
	if err := database.DB.Preload("Owner").First(&space, "id = ?", spaceID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Space not found"})
	}

	// Prices are stored in USD; ?currency=EUR adds a display conversion.
	if currency := c.Query("currency"); currency != "" && currency != "USD" {
		hourly, err := services.ConvertUSD(space.PricePerHour, currency)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		daily, _ := services.ConvertUSD(space.PricePerDay, currency)

		return c.JSON(fiber.Map{
			"space": space,
			"converted_prices": fiber.Map{
				"currency":       currency,
				"price_per_hour": hourly,
				"price_per_day":  daily,
			},
		})
	}

	return c.JSON(space)
}

// GetSpaceAvailability returns the confirmed/active bookings overlapping the
// next N days so the front-end can grey out taken windows.
func GetSpaceAvailability(c *fiber.Ctx) error {
	spaceID := c.Params("spaceId")
	days, _ := strconv.Atoi(c.Query("days", "14"))

	now := time.Now()
	horizon := now.AddDate(0, 0, days)

	var bookings []models.Booking
	database.DB.
		Select("id", "start_time", "end_time").
		Where("space_id = ? AND status IN ? AND start_time < ? AND end_time > ?",
			spaceID, []string{"confirmed", "active"}, horizon, now).
		Order("start_time asc").
		Find(&bookings)

	return c.JSON(bookings)
}

func GetSpaceReviews(c *fiber.Ctx) error {
	spaceID := c.Params("spaceId")

	var reviews []models.Review
	database.DB.Preload("Renter").
		Where("space_id = ?", spaceID).
		Order("created_at desc").
		Find(&reviews)

	return c.JSON(reviews)
}
