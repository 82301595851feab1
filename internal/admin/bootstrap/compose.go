package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/phgsc/field-service-management-sub000/internal/admin/adapter/in/in_amqp"
	"github.com/phgsc/field-service-management-sub000/internal/admin/adapter/in/transport"
	"github.com/phgsc/field-service-management-sub000/internal/admin/adapter/out/repo"
	"github.com/phgsc/field-service-management-sub000/internal/admin/application/usecase"
	"github.com/phgsc/field-service-management-sub000/internal/shared/auth"
	"github.com/phgsc/field-service-management-sub000/internal/shared/config"
	db_conn "github.com/phgsc/field-service-management-sub000/internal/shared/db"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/shared/metrics"
	"github.com/phgsc/field-service-management-sub000/internal/shared/mq"
	"github.com/phgsc/field-service-management-sub000/internal/shared/user"
	"github.com/phgsc/field-service-management-sub000/internal/shared/ws"
)

// Run composes the admin service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config, log *logger.Logger) {
	log.Info(logger.Entry{Action: "admin_service_starting", Message: "initializing admin service"})

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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryMinutes)

	// websocket hub, the push channel for the dispatch dashboard
	hub := ws.NewHub(func(token string) (string, string, error) {
		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID, claims.Role, nil
	}, log)
	go hub.Run(ctx)

	// outbound adapters
	userRepo := user.NewPGRepository(dbPool)
	visitReader := repo.NewVisitPgReader(dbPool, log)
	scheduleRepo := repo.NewSchedulePgRepository(dbPool, log)
	ledgerReader := repo.NewLedgerPgReader(dbPool, log)

	// event feeds for the dashboard
	visitFeed := in_amqp.NewVisitFeedConsumer(mqConn, hub, log)
	locationFeed := in_amqp.NewLocationFeedConsumer(mqConn, hub, log)
	go func() {
		if err := visitFeed.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(logger.Entry{
				Action:  "visit_feed_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()
	go func() {
		if err := locationFeed.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(logger.Entry{
				Action:  "location_feed_failed",
				Message: err.Error(),
				Error:   &logger.ErrObj{Msg: err.Error()},
			})
		}
	}()

	// use cases
	useCases := transport.UseCases{
		Login:          usecase.NewLoginService(userRepo, jwtService, log),
		CreateEngineer: usecase.NewCreateEngineerService(userRepo, log),
		ListEngineers:  usecase.NewListEngineersService(userRepo, log),
		Overview:       usecase.NewGetOverviewService(visitReader, log),
		Calendar:       usecase.NewGetCalendarService(visitReader, scheduleRepo, log),
		CreateEntry:    usecase.NewCreateEntryService(scheduleRepo, log),
		ListEntries:    usecase.NewListEntriesService(scheduleRepo, log),
		TravelReport:   usecase.NewTravelReportService(userRepo, ledgerReader, log),
	}

	// http
	httpHandler := transport.NewHTTPHandler(useCases, log)
	authMiddleware := auth.JWTMiddleware(jwtService, log)

	mux := http.NewServeMux()
	httpHandler.RegisterRoutes(mux, authMiddleware)
	mux.HandleFunc("GET /ws", hub.ServeWS)
	mux.Handle("GET /metrics", metrics.Handler())

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}).Handler(mux)

	addr := fmt.Sprintf(":%d", cfg.Services.AdminServicePort)
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
	log.Info(logger.Entry{Action: "admin_service_stopping", Message: "shutting down admin service"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(logger.Entry{
			Action:  "http_server_shutdown_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}

	log.Info(logger.Entry{Action: "admin_service_stopped", Message: "admin service stopped"})
}
