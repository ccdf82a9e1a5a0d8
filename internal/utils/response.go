package utils

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a standard success response
func SuccessResponse(c *fiber.Ctx, data interface{}, status int) error {
	return c.Status(status).JSON(data)
}

// MessageResponse sends {message} with the given status
func MessageResponse(c *fiber.Ctx, message string, status int) error {
	return c.Status(status).JSON(MessageResponseStruct{Message: message})
}

// CreatedResponse sends 201 {id, message}
func CreatedResponse(c *fiber.Ctx, id uint, message string) error {
	return c.Status(fiber.StatusCreated).JSON(CreatedResponseStruct{ID: id, Message: message})
}

// ErrorResponse sends a standard error response
func ErrorResponse(c *fiber.Ctx, message string, status int, errorType string) error {
	return ErrorListResponse(c, message, status, errorType, nil)
}

// ErrorListResponse sends a standard error response carrying row level errors
func ErrorListResponse(c *fiber.Ctx, message string, status int, errorType string, errs []string) error {
	return c.Status(status).JSON(ErrorResponseStruct{
		Status:    status,
		Message:   message,
		Ok:        false,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		URL:       c.OriginalURL(),
		Type:      errorType,
		Errors:    errs,
	})
}

// NotFoundResponse sends a 404 not found response
func NotFoundResponse(c *fiber.Ctx, message string) error {
	return ErrorResponse(c, message, fiber.StatusNotFound, "notFound")
}

// ErrorResponseStruct defines the schema for error responses
type ErrorResponseStruct struct {
	Status    int      `json:"status"`
	Message   string   `json:"message"`
	Ok        bool     `json:"ok"`
	Timestamp string   `json:"timestamp"`
	URL       string   `json:"url"`
	Type      string   `json:"type,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// MessageResponseStruct defines the schema for plain message responses
type MessageResponseStruct struct {
	Message string `json:"message"`
}

// CreatedResponseStruct defines the schema for creation responses
type CreatedResponseStruct struct {
	ID      uint   `json:"id"`
	Message string `json:"message"`
}
