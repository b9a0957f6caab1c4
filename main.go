package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"go.uber.org/zap"

	"github.com/shahid-afrid/tutorlivework-sub001/internals/bootstrap"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/configs"
	database "github.com/shahid-afrid/tutorlivework-sub001/internals/databases"
	departmentController "github.com/shahid-afrid/tutorlivework-sub001/internals/features/departments/controller"
	tenantController "github.com/shahid-afrid/tutorlivework-sub001/internals/features/tenancy/controller"
	helper "github.com/shahid-afrid/tutorlivework-sub001/internals/helpers"
	"github.com/shahid-afrid/tutorlivework-sub001/internals/helpers/logger"
	middlewares "github.com/shahid-afrid/tutorlivework-sub001/internals/middlewares"
	routes "github.com/shahid-afrid/tutorlivework-sub001/internals/route"
)

func main() {
	configs.LoadEnv()
	log := logger.New(configs.AppEnv, configs.LogLevel)
	defer func() { _ = log.Sync() }()

	db, err := database.ConnectDB(configs.DatabaseDSN(), log)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	database.TunePool(db, log)
	defer database.Close(db)

	if configs.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), configs.DDLTimeout)
		err := database.Migrate(ctx, db, log)
		cancel()
		if err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
	}

	svc := bootstrap.Build(db, log, configs.DDLTimeout)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ProxyHeader:           fiber.HeaderXForwardedFor,
		ErrorHandler:          helper.NewErrorHandler(log.Named("http")),
	})
	app.Use(compress.New(compress.Config{Level: compress.LevelDefault}))
	app.Use(etag.New())
	middlewares.SetupMiddlewares(app, middlewares.Options{
		AllowOrigins:   configs.AllowOrigins,
		RequestTimeout: configs.RequestTimeout,
		Log:            log,
	})

	routes.SetupRoutes(app, routes.Deps{
		DB:          db,
		JWTSecret:   configs.JWTSecret,
		Env:         configs.AppEnv,
		Departments: departmentController.NewDepartmentController(svc.Onboarder, svc.Reconciler, svc.Provisioner, svc.Router, log),
		Tenants:     tenantController.NewTenantController(svc.Router, log),
		Log:         log,
	})

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = configs.DDLTimeout + 30*time.Second
	app.Server().IdleTimeout = 90 * time.Second

	go func() {
		log.Info("listening", zap.String("port", configs.Port))
		if err := app.Listen("0.0.0.0:" + configs.Port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
}
