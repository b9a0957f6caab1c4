package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
)

func rateLimiter(max int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return helper.JsonError(c, fiber.StatusTooManyRequests, message)
		},
	})
}

// Global limiter for every /api endpoint
func GlobalRateLimiter() fiber.Handler {
	return rateLimiter(100, time.Minute, "too many requests, try again later")
}

// ProvisionRateLimiter guards DDL heavy endpoints (table creation, onboarding, mismatch fixes).
func ProvisionRateLimiter() fiber.Handler {
	return rateLimiter(10, time.Minute, "too many provisioning requests, try again in a minute")
}
