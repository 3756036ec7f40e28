package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const APIKeyHeader = "X-API-Key"

// APIKey guards every /api path with a shared secret header. An empty key
// disables the check; other paths such as /health always pass.
func APIKey(apiKey string, logger *zap.Logger) fiber.Handler {
	expected := []byte(apiKey)

	return func(c *fiber.Ctx) error {
		if apiKey == "" || !isAPIPath(c.Path()) {
			return c.Next()
		}

		got := []byte(c.Get(APIKeyHeader))
		if subtle.ConstantTimeCompare(got, expected) != 1 {
			logger.Warn("Rejected request with invalid API key",
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
				zap.Bool("header_present", len(got) > 0),
			)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or missing API key",
			})
		}

		return c.Next()
	}
}

// Routing is case-insensitive, so the prefix check is too.
func isAPIPath(p string) bool {
	return strings.HasPrefix(strings.ToLower(p), "/api")
}
