package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/phgsc/field-service-management-sub000/internal/location/adapter/in/transport"
	"github.com/phgsc/field-service-management-sub000/internal/location/adapter/out/out_amqp"
	"github.com/phgsc/field-service-management-sub000/internal/location/adapter/out/out_redis"
	"github.com/phgsc/field-service-management-sub000/internal/location/adapter/out/repo"
	"github.com/phgsc/field-service-management-sub000/internal/location/application/usecase"
	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/config"
	db_conn "github.com/phgsc/field-service-management-sub000/internal/shared/db"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/shared/mq"
)

// Run composes the location service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) {
	log.Info(logger.Entry{Action: "location_service_starting", Message: "initializing location service"})

	// infrastructure
	dbPool, err := db_conn.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer db_conn.Close(dbPool, log)

	if err := db_conn.Migrate(ctx, dbPool); err != nil {
		log.Fatal(logger.Entry{
			Action:  "db_migration_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	mqConn, err := mq.NewRabbitMQ(ctx, cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
	defer mqConn.Close()

	if err := mq.SetupTopology(ctx, mqConn, log); err != nil {
		log.Fatal(logger.Entry{
			Action:  "rabbitmq_topology_setup_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr(),
		DB:   cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatal(logger.Entry{
			Action:  "redis_connection_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryMinutes)

	// adapters
	sampleRepo := repo.NewSamplePgRepository(dbPool, log)
	latestCache := out_redis.NewRedisLatestCache(redisClient, log)
	samplePublisher := out_amqp.NewSamplePublisher(mqConn, log)

	// use cases
	recordUC := usecase.NewRecordSampleService(sampleRepo, latestCache, samplePublisher, log)
	latestUC := usecase.NewGetLatestService(sampleRepo, latestCache, log)
	historyUC := usecase.NewGetHistoryService(sampleRepo, log)

	// http
	httpHandler := transport.NewHTTPHandler(recordUC, latestUC, historyUC, transport.NewEngineerLimiter(), log)
	authMiddleware := auth.JWTMiddleware(jwtService, log)

	mux := http.NewServeMux()
	httpHandler.RegisterRoutes(mux, authMiddleware)
	mux.Handle("GET /metrics", metrics.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}).Handler(mux)

	addr := fmt.Sprintf(":%d", cfg.Services.LocationServicePort)
	server := &http.Server{
		Addr:              addr,
		Handler:           corsHandler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info(logger.Entry{
			Action:  "http_server_starting",
			Message: fmt.Sprintf("listening on %s", addr),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(logger.Entry{
				Action:  "http_server_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()

	<-ctx.Done()
	log.Info(logger.Entry{Action: "location_service_stopping", Message: "shutting down location service"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(logger.Entry{
			Action:  "http_server_shutdown_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	log.Info(logger.Entry{Action: "location_service_stopped", Message: "location service stopped"})
}
