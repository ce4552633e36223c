// Package httpx holds small helpers shared by the fiber handlers.
package httpx

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/seuros/sleepboard/internal/logging"
)

// Error writes a standard error envelope.
func Error(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
	})
}

// Internal logs err with the request context and answers with a generic 500.
func Internal(c fiber.Ctx, message string, err error) error {
	logging.L().Error(message,
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return Error(c, fiber.StatusInternalServerError, message)
}

// QueryList splits a comma separated query parameter, dropping blanks.
func QueryList(c fiber.Ctx, key string) []string {
	return SplitList(c.Query(key))
}

// SplitList splits s on commas and trims each element.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
