package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	database "github.com/shahid-afrid/tutorlivework-sub001/internals/databases"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/metrics"
)

func BaseRoutes(app *fiber.App, db *gorm.DB, env string) {
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		dbStatus := "connected"
		serverStatus := "OK"
		httpStatus := fiber.StatusOK
		if db == nil || database.Ping(ctx, db) != nil {
			dbStatus = "database connection error"
			serverStatus = "DOWN"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":         serverStatus,
			"database":       dbStatus,
			"server_time":    time.Now().Format(time.RFC3339),
			"uptime_seconds": int(time.Since(startTime).Seconds()),
			"environment":    env,
		})
	})

	app.Get("/metrics", metrics.Handler())
}
