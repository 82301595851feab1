package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/phgsc/field-service-management-sub000/internal/admin/bootstrap"
	"github.com/phgsc/field-service-management-sub000/internal/shared/config"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewLogger("admin-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() { <-quit; cancel() }()

	bootstrap.Run(ctx, cfg, log)
}
