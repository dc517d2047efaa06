package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"

	"github.com/nicunursekatie/adhd-planner/internal/config"
	"github.com/nicunursekatie/adhd-planner/internal/gateway"
	"github.com/nicunursekatie/adhd-planner/internal/handlers"
	"github.com/nicunursekatie/adhd-planner/internal/logger"
	"github.com/nicunursekatie/adhd-planner/internal/middleware"
	"github.com/nicunursekatie/adhd-planner/internal/queue"
	"github.com/nicunursekatie/adhd-planner/internal/services/ai"
	"github.com/nicunursekatie/adhd-planner/internal/services/auth"
	"github.com/nicunursekatie/adhd-planner/internal/store"
	"github.com/nicunursekatie/adhd-planner/internal/telemetry"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.ServerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	zapLogger.Info("starting_server",
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.String("frontend_url", cfg.FrontendURL),
		zap.String("database_driver", cfg.DatabaseDriver),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(context.Background(), "adhd-planner-api", cfg.OTELEndpoint)
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer shutdownCancel()
					if err := tp.Shutdown(shutdownCtx); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	driver, dsn := cfg.DSN()
	gw, closeGateway, err := gateway.Open(driver, dsn)
	if err != nil {
		zapLogger.Fatal("failed_to_open_database", zap.Error(err))
	}
	defer func() {
		if err := closeGateway(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	zapLogger.Info("connected_to_database", zap.String("driver", driver))

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("invalid_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	// The job queue is optional; without it recurring-task generation
	// happens inline in the request path.
	var jobQueue queue.JobQueue
	if cfg.RabbitMQURL != "" {
		jobQueue, err = connectQueue(cfg.RabbitMQURL, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed_to_connect_to_rabbitmq_after_retries", zap.Error(err))
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")
	} else {
		zapLogger.Info("job_queue_disabled")
	}

	sessions := store.NewManager(gw, zapLogger)
	defer sessions.Close()

	// Sweep an owner's recurring templates the first time their session
	// loads, so tasks due while they were away appear on next login.
	if jobQueue != nil {
		sessions.OnFirstLoad(func(ownerID string) {
			job := queue.NewJob(queue.JobTypeOwnerSweep, ownerID, "")
			if err := jobQueue.Enqueue(context.Background(), job); err != nil {
				zapLogger.Warn("failed_to_enqueue_owner_sweep",
					zap.String("owner_id", ownerID),
					zap.Error(err))
			}
		})
	}

	if cfg.OIDCIssuer == "" {
		zapLogger.Fatal("oidc_issuer_not_configured")
	}
	verifier := auth.NewVerifier(cfg.OIDCIssuer, cfg.JWKSURL)

	var loginClient *auth.LoginClient
	if cfg.OIDCClientID != "" {
		loginClient = auth.NewLoginClient(cfg.OIDCIssuer, cfg.OIDCClientID, cfg.OIDCRedirectURL)
	}

	var generator ai.TextGenerator
	if cfg.OpenAIKey != "" {
		generator = ai.NewOpenAIGenerator(cfg.OpenAIKey, cfg.AIBaseURL, cfg.AIModel, zapLogger, debugMode)
		zapLogger.Info("ai_generator_initialized", zap.String("model", cfg.AIModel))
	} else {
		zapLogger.Info("ai_generator_disabled")
	}

	rateLimitMW, err := middleware.RateLimit(redisClient, cfg.RateLimit)
	if err != nil {
		zapLogger.Fatal("failed_to_create_rate_limiter", zap.Error(err))
	}

	authHandler := handlers.NewAuthHandler(loginClient)
	taskHandler := handlers.NewTaskHandler(sessions, generator, zapLogger)
	projectHandler := handlers.NewProjectHandler(sessions)
	categoryHandler := handlers.NewCategoryHandler(sessions)
	planHandler := handlers.NewPlanHandler(sessions)
	recurringHandler := handlers.NewRecurringHandler(sessions, jobQueue, zapLogger)
	miscHandler := handlers.NewMiscHandler(sessions)
	healthChecker := handlers.NewHealthChecker(gw, redisClient, jobQueue)

	r := mux.NewRouter()

	// Middleware runs in registration order, outermost first.
	if cfg.OTELEnabled {
		r.Use(otelmux.Middleware("adhd-planner-api"))
	}
	r.Use(middleware.SecurityHeaders(cfg.EnableHSTS))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.ErrorHandler(zapLogger))
	r.Use(middleware.Logging(zapLogger))

	// Public routes. The health check skips rate limiting.
	r.HandleFunc("/healthz", healthChecker.HealthCheck).Methods("GET")

	publicRouter := r.PathPrefix("/api/v1").Subrouter()
	publicRouter.Use(rateLimitMW)
	authHandler.RegisterPublicRoutes(publicRouter)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Auth(verifier, zapLogger))
	apiRouter.Use(rateLimitMW)

	authHandler.RegisterRoutes(apiRouter)
	taskHandler.RegisterRoutes(apiRouter.PathPrefix("/tasks").Subrouter())
	projectHandler.RegisterRoutes(apiRouter.PathPrefix("/projects").Subrouter())
	categoryHandler.RegisterRoutes(apiRouter.PathPrefix("/categories").Subrouter())
	planHandler.RegisterRoutes(apiRouter.PathPrefix("/plans").Subrouter())
	recurringHandler.RegisterRoutes(apiRouter.PathPrefix("/recurring").Subrouter())
	miscHandler.RegisterRoutes(apiRouter)

	// Preflight requests get a bare 204; the CORS middleware has already
	// set the headers.
	r.Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:           ":" + cfg.ServerPort,
		Handler:        r,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if dlqPurger, ok := jobQueue.(queue.DLQPurger); ok {
		dlqGC := queue.NewGarbageCollector(dlqPurger, 1*time.Hour, 24*time.Hour, zapLogger)
		go func() {
			if err := dlqGC.Start(bgCtx); err != nil && err != context.Canceled {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", 1*time.Hour),
			zap.Duration("retention", 24*time.Hour))
	}

	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server_failed_to_start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("server_shutting_down")
	bgCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server_forced_to_shutdown", zap.Error(err))
	}

	zapLogger.Info("server_exited")
}

// connectQueue dials RabbitMQ with exponential backoff; broker startup
// commonly lags the app in compose environments.
func connectQueue(amqpURL string, zapLogger *zap.Logger) (queue.JobQueue, error) {
	const maxRetries = 10
	const initialDelay = 2 * time.Second

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		jobQueue, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			return jobQueue, nil
		}
		lastErr = err

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}
		zapLogger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err))
		time.Sleep(delay)
	}
	return nil, lastErr
}
