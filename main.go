package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/phgsc/field-service-management-sub000/internal/shared/config"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"

	adminboot "github.com/phgsc/field-service-management-sub000/internal/admin/bootstrap"
	locationboot "github.com/phgsc/field-service-management-sub000/internal/location/bootstrap"
	visitboot "github.com/phgsc/field-service-management-sub000/internal/visit/bootstrap"
)

func main() {
	svc := flag.String("service", "visit", "visit|location|admin|all")
	flag.Parse()

	// .env is optional; config falls back to process env and yaml defaults.
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() { <-quit; cancel() }()

	switch *svc {
	case "visit":
		log := logger.NewLogger("visit-service")
		visitboot.Run(ctx, cfg, log)

	case "location":
		log := logger.NewLogger("location-service")
		locationboot.Run(ctx, cfg, log)

	case "admin":
		log := logger.NewLogger("admin-service")
		adminboot.Run(ctx, cfg, log)

	case "all":
		visitLog := logger.NewLogger("visit-service")
		locationLog := logger.NewLogger("location-service")
		adminLog := logger.NewLogger("admin-service")

		go visitboot.Run(ctx, cfg, visitLog)
		go locationboot.Run(ctx, cfg, locationLog)
		go adminboot.Run(ctx, cfg, adminLog)

	default:
		log := logger.NewLogger("bootstrap")
		log.Fatal(logger.Entry{Action: "invalid_service", Message: *svc})
	}

	<-ctx.Done()
}
