package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/otienojr/park_space/database"
	"github.com/otienojr/park_space/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))
	database.DB = db

	app := fiber.New()
	app.Post("/api/v1/auth/register", RegisterUser)
	return app
}

func TestRegisterUserDuplicateEmail(t *testing.T) {
	app := setupAuthApp(t)
	payload := `{"full_name":"Jane Renter","email":"jane@example.com","password":"secret123"}`

	req := httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	req = httptest.NewRequest("POST", "/api/v1/auth/register", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode, "a duplicate email must be rejected, not treated as a server error")
}
