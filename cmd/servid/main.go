package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/riandyrn/otelchi"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phbpx/sales-crm/cache"
	"github.com/phbpx/sales-crm/handler"
	"github.com/phbpx/sales-crm/postgres"
	"github.com/phbpx/sales-crm/realtime"
)

func main() {

	log, err := newLog("crm-api")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run("crm-api", log); err != nil {
		log.Errorw("startup", "err", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(serverName string, log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		Http struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			Host            string        `conf:"default:0.0.0.0:3000"`
		}
		DB struct {
			User           string        `conf:"default:crm"`
			Password       string        `conf:"default:crm,mask"`
			Host           string        `conf:"default:localhost"`
			Name           string        `conf:"default:crm"`
			MaxIdleConns   int           `conf:"default:0"`
			MaxOpenConns   int           `conf:"default:0"`
			DisableTLS     bool          `conf:"default:true"`
			MigrateTimeout time.Duration `conf:"default:30s"`
		}
		Redis struct {
			Addr     string        `conf:"default:localhost:6379"`
			Password string        `conf:"mask"`
			DB       int           `conf:"default:0"`
			TTL      time.Duration `conf:"default:5m"`
		}
		Auth struct {
			Secret string `conf:"required,mask"`
		}
		Realtime struct {
			Buffer       int           `conf:"default:64"`
			MinReconnect time.Duration `conf:"default:1s"`
			MaxReconnect time.Duration `conf:"default:1m"`
			PingInterval time.Duration `conf:"default:90s"`
			KeepAlive    time.Duration `conf:"default:30s"`
		}
		Jaeger struct {
			ReporterURI string  `conf:"default:http://localhost:14268/api/traces"`
			ServiceName string  `conf:"default:crm-api"`
			Probability float64 `conf:"default:0.5"`
		}
	}{}

	help, err := conf.Parse("CRM", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Database Support

	// Create connectivity to the database.
	log.Infow("startup", "status", "initializing database support", "host", cfg.DB.Host)

	dbCfg := postgres.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	}

	db, err := postgres.Open(dbCfg)
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}
	defer func() {
		log.Infow("shutdown", "status", "stopping database support", "host", cfg.DB.Host)
		db.Close()
	}()

	// =========================================================================
	// Update database schema

	log.Infow("startup", "status", "updating database schema", "database", cfg.DB.Name, "host", cfg.DB.Host)

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), cfg.DB.MigrateTimeout)
	defer cancelMigrate()

	if err := postgres.Migrate(migrateCtx, db); err != nil {
		return fmt.Errorf("updating database schema: %w", err)
	}

	// =========================================================================
	// Start Tracing Support

	log.Infow("startup", "status", "initializing OT/Jaeger tracing support")

	traceProvider, err := startTracing(
		cfg.Jaeger.ServiceName,
		cfg.Jaeger.ReporterURI,
		cfg.Jaeger.Probability,
	)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer traceProvider.Shutdown(context.Background())

	// =========================================================================
	// Start Change Feed

	log.Infow("startup", "status", "initializing change feed", "channel", postgres.ChangeChannel)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	hub := realtime.NewHub(cfg.Realtime.Buffer)
	defer func() {
		log.Infow("shutdown", "status", "closing change feed", "dropped", hub.Dropped())
		hub.Close()
	}()

	listener, err := postgres.NewListener(dbCfg, postgres.ListenerConfig{
		MinReconnect: cfg.Realtime.MinReconnect,
		MaxReconnect: cfg.Realtime.MaxReconnect,
		PingInterval: cfg.Realtime.PingInterval,
	}, hub, log)
	if err != nil {
		return fmt.Errorf("listening for changes: %w", err)
	}

	go func() {
		if err := listener.Run(bgCtx); err != nil {
			log.Errorw("listener", "error", err)
		}
	}()

	// =========================================================================
	// Cache Support

	log.Infow("startup", "status", "initializing redis cache", "addr", cfg.Redis.Addr)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		log.Infow("shutdown", "status", "stopping redis cache", "addr", cfg.Redis.Addr)
		rdb.Close()
	}()

	// A missing cache only costs latency, so startup goes on without it.
	if err := rdb.Ping(bgCtx).Err(); err != nil {
		log.Warnw("startup", "status", "redis unavailable", "error", err)
	}

	// =========================================================================
	// Create router

	log.Infow("startup", "status", "initializing router")

	otelLog := otelzap.New(log.Desugar(), otelzap.WithStackTrace(true)).Sugar()

	leadService := cache.NewLeadCache(postgres.NewLeadService(db), rdb, cfg.Redis.TTL, log)
	go leadService.Invalidate(bgCtx, hub)

	userService := postgres.NewUserService(db)
	activityService := postgres.NewActivityService(db)
	projectService := postgres.NewProjectService(db)
	teamService := postgres.NewTeamService(db)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(otelchi.Middleware(serverName, otelchi.WithChiRoutes(r)))

	r.Get("/health", handler.Health(db))

	handler.Routes(r, handler.API{
		Secret:   []byte(cfg.Auth.Secret),
		Users:    handler.NewUserHandler(userService, otelLog.SugaredLogger),
		Leads:    handler.NewLeadHandler(leadService, activityService, otelLog.SugaredLogger),
		Projects: handler.NewProjectHandler(projectService, otelLog.SugaredLogger),
		Teams:    handler.NewTeamHandler(teamService, otelLog.SugaredLogger),
		Reports:  handler.NewReportHandler(leadService, userService, projectService, teamService, otelLog.SugaredLogger),
		Changes:  handler.NewChangeHandler(hub, cfg.Realtime.KeepAlive, otelLog.SugaredLogger),
	})

	// =========================================================================
	// Start API Server

	log.Infow("startup", "status", "initializing http server")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{
		Addr:         cfg.Http.Host,
		Handler:      r,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Infow("startup", "status", "api router started", "host", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Streams block Shutdown until they end, so stop the feed first.
		stopBackground()
		hub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

func newLog(serviceName string) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"stdout"}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	config.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	log, err := config.Build()
	if err != nil {
		return nil, err
	}

	return log.Sugar(), nil
}

func startTracing(serviceName, reporterURL string, probability float64) (*tracesdk.TracerProvider, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(reporterURL)))
	if err != nil {
		return nil, fmt.Errorf("creating new exporter: %w", err)
	}

	tp := tracesdk.NewTracerProvider(
		tracesdk.WithSampler(tracesdk.TraceIDRatioBased(probability)),
		// Always be sure to batch in production.
		tracesdk.WithBatcher(exp,
			tracesdk.WithMaxExportBatchSize(tracesdk.DefaultMaxExportBatchSize),
			tracesdk.WithBatchTimeout(tracesdk.DefaultScheduleDelay*time.Millisecond),
		),
		// Record information about this application in a Resource.
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("exporter", "jaeger"),
		)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}
