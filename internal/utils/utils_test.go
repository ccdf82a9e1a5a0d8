package utils

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/gofiber/fiber/v2"
)

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/conflict", func(c *fiber.Ctx) error {
		return types.Conflict("Record already exists.", "user.create")
	})
	app.Get("/rows", func(c *fiber.Ctx) error {
		return types.InvalidArgument("Bad workbook.", "excel.import").WithErrors([]string{"Row 2: bad"})
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTooManyRequests, "Slow down.")
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("secret connection string")
	})

	tests := []struct {
		path    string
		status  int
		message string
		errors  int
	}{
		{"/conflict", fiber.StatusConflict, "Record already exists.", 0},
		{"/rows", fiber.StatusBadRequest, "Bad workbook.", 1},
		{"/fiber", fiber.StatusTooManyRequests, "Slow down.", 0},
		{"/boom", fiber.StatusInternalServerError, "An internal error occurred.", 0},
		{"/missing", fiber.StatusNotFound, "Cannot GET /missing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, resp.StatusCode)
			}
			var body ErrorResponseStruct
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body.Message != tt.message || body.Ok || body.Status != tt.status {
				t.Errorf("Unexpected body %+v", body)
			}
			if len(body.Errors) != tt.errors {
				t.Errorf("Expected %d row errors, got %v", tt.errors, body.Errors)
			}
		})
	}
}

func TestPingService(t *testing.T) {
	if err := PingService("::not a url", time.Second); err == nil {
		t.Error("Expected an invalid URL to fail")
	}
	if err := PingService("http://127.0.0.1:1", 200*time.Millisecond); err == nil {
		t.Error("Expected a closed port to fail")
	}
}
