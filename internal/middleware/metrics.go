// Package middleware holds the fiber middleware shared by every route.
package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
)

// RequestObserver records finished requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics reports every request to obs, labelled by the matched route
// pattern rather than the raw path so label cardinality stays bounded.
func Metrics(obs RequestObserver) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		route := c.Route().Path
		if status == fiber.StatusNotFound && route == "/" && c.Path() != "/" {
			route = "unmatched"
		}
		obs.ObserveRequest(c.Method(), route, status, time.Since(start))
		return err
	}
}

// Version stamps every response with the running build.
func Version(version string) fiber.Handler {
	return func(c fiber.Ctx) error {
		c.Set("X-Sleepboard-Version", version)
		return c.Next()
	}
}
