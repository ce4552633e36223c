package cli

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/seuros/sleepboard/internal/logging"
)

// createFiberConfig returns Fiber configuration. Figures are recomputed per
// request, so write timeouts leave room for the larger SVG renders.
func createFiberConfig(appName string) fiber.Config {
	return fiber.Config{
		AppName:      appName,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
		ErrorHandler: jsonErrorHandler,
	}
}

// jsonErrorHandler renders unhandled errors in the same {"error": ...}
// envelope the API handlers use.
func jsonErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		logging.L().Error("unhandled request error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
