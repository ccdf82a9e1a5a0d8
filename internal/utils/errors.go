package utils

import (
	"errors"
	"log"

	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders every error returned by a handler or middleware
func ErrorHandler(c *fiber.Ctx, err error) error {
	if ce, ok := types.AsCustomError(err); ok {
		if ce.Code >= fiber.StatusInternalServerError && ce.Cause != nil {
			log.Printf("%s %s failed (%s): %v", c.Method(), c.OriginalURL(), ce.Type, ce.Cause)
		}
		return ErrorListResponse(c, ce.Message, ce.Code, ce.Type, ce.Errors)
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return ErrorResponse(c, fe.Message, fe.Code, "http")
	}

	log.Printf("%s %s failed: %v", c.Method(), c.OriginalURL(), err)
	return ErrorResponse(c, "An internal error occurred.", fiber.StatusInternalServerError, "unknown")
}
