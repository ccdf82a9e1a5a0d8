package middleware

import (
	"fmt"
	"strings"

	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"github.com/gofiber/fiber/v2"
)

// CurrentAPIVersion is assumed when the client sends no X-Api-Version
const CurrentAPIVersion = "1.0.0"

const apiVersionKey = "apiVersion"

// VersionMiddleware parses the X-Api-Version header, stores it in context and echoes it back.
// Only major version 1 is served.
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := normalizeVersion(c.Get("X-Api-Version", CurrentAPIVersion))
		if !strings.HasPrefix(version, "1.") {
			return types.InvalidArgument(fmt.Sprintf("Unsupported API version %s.", version), "api.version")
		}

		c.Locals(apiVersionKey, version)
		c.Set("X-Api-Version", version)

		return c.Next()
	}
}

// normalizeVersion expands "1" and "1.0" style aliases to major.minor.patch
func normalizeVersion(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	switch strings.Count(v, ".") {
	case 0:
		return v + ".0.0"
	case 1:
		return v + ".0"
	}
	return v
}

// APIVersion returns the version stored by VersionMiddleware
func APIVersion(c *fiber.Ctx) string {
	if v, ok := c.Locals(apiVersionKey).(string); ok {
		return v
	}
	return CurrentAPIVersion
}
