package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/clientpulse/internal/config"
	"github.com/xavierca1/clientpulse/internal/infra/database"
	"github.com/xavierca1/clientpulse/internal/infra/export"
	"github.com/xavierca1/clientpulse/internal/infra/http/handlers"
	"github.com/xavierca1/clientpulse/internal/infra/http/middleware"
	"github.com/xavierca1/clientpulse/internal/infra/integration/crm"
	"github.com/xavierca1/clientpulse/internal/infra/mail"
	"github.com/xavierca1/clientpulse/internal/infra/queue"
	"github.com/xavierca1/clientpulse/internal/infra/worker"
	"github.com/xavierca1/clientpulse/internal/logging"
	"github.com/xavierca1/clientpulse/internal/usecase"
)

var version = "dev"

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "clientpulse api: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.ValidateAPI(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, "api")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(cfg.Database.URL, cfg.Database.Pool)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	defer rabbitMQ.Close()

	// 1. Repositories
	workspaceRepo := database.NewWorkspaceRepository(db)
	userRepo := database.NewUserRepository(db)
	signalRepo := database.NewSignalRepository(db)
	opportunityRepo := database.NewOpportunityRepository(db)

	// 2. Gateways and adapters
	producer := queue.NewProducer(rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(cfg.Mail)
	crmClient := newCRMRouter(cfg.CRM, logger)
	jwtAuth := middleware.NewJWTAuth(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// 3. Use cases
	createWorkspaceUC := usecase.NewCreateWorkspaceUseCase(workspaceRepo, producer, logger)
	reviewUC := usecase.NewReviewOpportunityUseCase(opportunityRepo, producer, logger)
	outreachUC := usecase.NewOutreachUseCase(opportunityRepo, producer, mailSender, cfg.CRM.DefaultSystem, logger)
	exportUC := usecase.NewExportOpportunityUseCase(opportunityRepo, export.NewPDFExporter(cfg.Export.FontPath))
	signalUC := usecase.NewSignalUseCase(signalRepo, producer, logger)
	authUC := usecase.NewAuthUseCase(userRepo, jwtAuth, logger)
	activationUC := usecase.NewCompleteActivationUseCase(opportunityRepo, crmClient, cfg.CRM.Retries, cfg.CRM.Backoff, logger)
	activationUC.OnOutcome = func(status string) { middleware.RecordCRMActivations(status, 1) }
	expireUC := usecase.NewExpireActivationsUseCase(opportunityRepo, cfg.CRM.Timeout, logger)

	// 4. Workers
	startWorker(ctx, queue.NewWorker(rabbitMQ.Ch, logger), queue.ActivationQueue, queue.ActivationMessages(activationUC), logger)
	startWorker(ctx, queue.NewWorker(rabbitMQ.Ch, logger), queue.SignalIngestionQueue, queue.SignalIngestionMessages(signalUC), logger)
	go worker.NewActivationReconciler(expireUC, cfg.CRM.ReconcileInterval, logger).Start(ctx)

	// 5. Handlers
	authHandler := handlers.NewAuthHandler(authUC, logger)
	workspaceHandler := handlers.NewWorkspaceHandler(createWorkspaceUC, logger)
	opportunityHandler := handlers.NewOpportunityHandler(reviewUC, outreachUC, exportUC, logger)
	signalHandler := handlers.NewSignalHandler(signalUC, logger)
	healthHandler := handlers.NewHealthHandler(db, rabbitMQ, version)

	// 6. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(middleware.Metrics)

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Limit)
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Authenticate)
			r.Post("/workspaces", workspaceHandler.Create)
			r.Route("/opportunities", opportunityHandler.Routes)
			r.Post("/signals", signalHandler.Create)
			r.Get("/signals", signalHandler.List)
		})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCRMRouter builds one client per configured CRM. With sync disabled
// every system is served by a LogClient.
func newCRMRouter(cfg config.CRMConfig, logger logging.Logger) *crm.Router {
	clients := map[string]crm.DealCreator{}
	systems := cfg.Systems
	if _, ok := systems[cfg.DefaultSystem]; !ok {
		systems = map[string]crm.SystemConfig{cfg.DefaultSystem: {}}
		for name, sc := range cfg.Systems {
			systems[name] = sc
		}
	}
	for name, sc := range systems {
		if cfg.Enabled {
			clients[name] = crm.NewClient(name, sc, logger)
		} else {
			clients[name] = crm.NewLogClient(name, logger)
		}
	}
	return crm.NewRouter(clients)
}

func startWorker(ctx context.Context, w *queue.Worker, queueName string, handler queue.Handler, logger logging.Logger) {
	go func() {
		if err := w.Start(ctx, queueName, handler); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("worker stopped", "queue", queueName, "error", err)
		}
	}()
}
