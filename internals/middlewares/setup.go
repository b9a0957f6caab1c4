package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares/logger"
)

type Options struct {
	AllowOrigins   string
	RequestTimeout time.Duration
	Log            *zap.Logger
}

// SetupMiddlewares installs the app wide chain: recovery first, then request
// context, access log and CORS.
func SetupMiddlewares(app *fiber.App, opt Options) {
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = 30 * time.Second
	}
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	app.Use(RecoveryMiddleware(log))
	app.Use(RequestContext(opt.RequestTimeout))
	app.Use(logger.LoggerMiddleware(log))
	app.Use(CorsMiddleware(opt.AllowOrigins))
}
