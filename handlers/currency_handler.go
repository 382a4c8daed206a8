package handlers

import (
	"github.com/otienojr/park_space/services"
	"github.com/gofiber/fiber/v2"
)

// GetConversionRates exposes the cached USD rates so the front-end can show
// listing prices in the visitor's currency.
func GetConversionRates(c *fiber.Ctx) error {
	rates, err := services.FetchRates()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Could not fetch exchange rates"})
	}

	return c.JSON(fiber.Map{"base": "USD", "rates": rates})
}
