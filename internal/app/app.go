package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"school-health-service/internal/auth"
	"school-health-service/internal/authz"
	"school-health-service/internal/checkup"
	"school-health-service/internal/config"
	"school-health-service/internal/db"
	"school-health-service/internal/growth"
	"school-health-service/internal/health"
	"school-health-service/internal/logger"
	"school-health-service/internal/messaging"
	"school-health-service/internal/metrics"
	"school-health-service/internal/middleware"
	"school-health-service/internal/relation"
	"school-health-service/internal/student"
	"school-health-service/internal/user"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

type App struct {
	config   *config.Config
	router   chi.Router
	server   *http.Server
	logger   *slog.Logger
	database *bun.DB
	producer messaging.Producer
}

func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses JSON format
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	m, err := metrics.New(otel.Meter(ServiceName))
	if err != nil {
		log.Fatalf("failed to init metrics: %v", err)
	}

	database := db.New(cfg.Database)
	app.database = database

	ctx := context.Background()
	if err := db.RunMigrations(ctx, database,
		(*user.User)(nil),
		(*auth.Session)(nil),
		(*student.Student)(nil),
		(*relation.Relation)(nil),
		(*growth.Growth)(nil),
		(*checkup.Checkup)(nil),
	); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	// Apply CORS middleware globally
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(app.router)

	// Audit event producer (optional - service degrades to logging only)
	app.producer = newProducer(cfg.Messaging, slogLogger)

	// Session backend: in-process by default, database-backed when sessions
	// must survive restarts or be shared between replicas
	var sessions auth.SessionStore
	if cfg.Auth.SessionStore == "database" {
		sessions = auth.NewRepository(database, m)
	} else {
		sessions = auth.NewMemoryStore()
	}
	slogLogger.Info("session store initialized", "backend", cfg.Auth.SessionStore)

	// Auth setup
	userRepo := user.NewRepository(database, m)
	codec := auth.NewTokenCodec(cfg.Auth.JWTSecret)
	tokenTTL := time.Duration(cfg.Auth.TokenTTLHours) * time.Hour
	authService := auth.NewService(userRepo, sessions, codec, tokenTTL, slogLogger, m, app.producer)
	authHandler := auth.NewHandler(authService, slogLogger)
	authHandler.RegisterRoutes(app.router)

	// Access policy: one resolver shared by every record surface
	relationRepo := relation.NewRepository(database, m)
	studentRepo := student.NewRepository(database, m)
	schoolYear := func() int { return time.Now().Year() }
	resolver := authz.NewResolver(relationRepo, studentRepo, schoolYear, slogLogger, m, app.producer)

	studentService := student.NewService(studentRepo, resolver, slogLogger, app.producer)
	studentHandler := student.NewHandler(studentService, slogLogger, m)

	growthHandler := growth.NewHandler(growth.NewRepository(database, m), resolver, slogLogger)
	checkupHandler := checkup.NewHandler(checkup.NewRepository(database, m), resolver, slogLogger)
	relationHandler := relation.NewHandler(relationRepo, slogLogger)

	// Protected routes
	app.router.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(authService, slogLogger))
		studentHandler.RegisterRoutes(r)
		growthHandler.RegisterRoutes(r)
		checkupHandler.RegisterRoutes(r)
		relationHandler.RegisterRoutes(r)
	})

	slogLogger.Info("application initialized successfully")

	return app
}

func newProducer(cfg config.MessagingConfig, logger *slog.Logger) messaging.Producer {
	switch cfg.Driver {
	case "kafka":
		producer, err := messaging.NewKafkaProducer(cfg.Brokers, cfg.Topic, logger)
		if err != nil {
			logger.Warn("failed to initialize kafka producer", "error", err)
			return nil
		}
		return producer
	case "nats":
		producer, err := messaging.NewNATSProducer(cfg.URL, cfg.Subject, logger)
		if err != nil {
			logger.Warn("failed to initialize NATS producer", "error", err)
			return nil
		}
		return producer
	default:
		logger.Info("audit event producer disabled")
		return nil
	}
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close audit producer", "error", err)
		}
	}
	defer db.Close(a.database)
	return a.server.Shutdown(ctx)
}
