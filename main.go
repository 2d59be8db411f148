package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/config"
	"github.com/Ramsey-B/clover/internal/repositories/commissionrecord"
	employeerepo "github.com/Ramsey-B/clover/internal/repositories/employee"
	"github.com/Ramsey-B/clover/pkg/backoffice"
	"github.com/Ramsey-B/clover/pkg/bullhorn"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/httpclient"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/routes/commission"
	"github.com/Ramsey-B/clover/pkg/routes/employee"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to read config: %v\n", err)
		os.Exit(1)
	}

	zapLogger, err := newZapLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync() // nolint:errcheck

	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	ctx := context.Background()

	shutdownTracing, err := setupTracing(ctx, &cfg)
	if err != nil {
		logger.WithError(err).Error("failed to set up tracing")
		os.Exit(1)
	}
	defer shutdownTracing(ctx)

	db, err := connectDatabase(&cfg)
	if err != nil {
		logger.WithError(err).Error("failed to connect to database")
		os.Exit(1)
	}
	defer db.Close()

	if err := runMigrations(&cfg, db, logger); err != nil {
		logger.WithError(err).Error("failed to run database migrations")
		os.Exit(1)
	}

	dbInstance := database.NewDatabaseInstance(db, logger)

	recordRepo := commissionrecord.NewRepository(dbInstance, logger)
	rosterRepo := employeerepo.NewRepository(dbInstance, logger)

	// Each source client gets its own HTTP client so the per-source timeout
	// settings do not bleed into each other.
	atsHTTP := httpclient.NewClient(httpclient.DefaultConfig(), logger)
	backOfficeHTTP := httpclient.NewClient(httpclient.DefaultConfig(), logger)

	atsClient := bullhorn.New(bullhorn.Config{
		Username:     cfg.ATSUsername,
		Password:     cfg.ATSPassword,
		ClientID:     cfg.ATSClientID,
		ClientSecret: cfg.ATSClientSecret,
		LoginInfoURL: cfg.ATSLoginInfoURL,
		Timeout:      cfg.ATSTimeout,
		PageSize:     cfg.ATSPageSize,
	}, atsHTTP, logger)

	backOfficeClient := backoffice.New(backoffice.Config{
		Username: cfg.BackOfficeUsername,
		Password: cfg.BackOfficePassword,
		APIKey:   cfg.BackOfficeAPIKey,
		BaseURL:  cfg.BackOfficeBaseURL,
		Timeout:  cfg.BackOfficeTimeout,
		PageSize: cfg.BackOfficePageSize,
	}, backOfficeHTTP, logger)

	var producer *kafka.Producer
	emitter := events.NewEmitter(nil, logger)
	if cfg.KafkaEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		emitter = events.NewEmitter(producer, logger)
	}

	imp := importer.New(recordRepo, rosterRepo, atsClient, backOfficeClient, emitter, logger)

	if err := registerDependencies(logger, dbInstance, recordRepo, rosterRepo, imp); err != nil {
		logger.WithError(err).Error("failed to register dependencies")
		os.Exit(1)
	}

	checker := health.NewChecker(db, backOfficeClient, version)

	e := newServer(&cfg, logger, checker)

	boot := startup.NewSequencer(logger, cfg.StartupMaxAttempts)
	boot.Add("database",
		func(ctx context.Context) error { return db.PingContext(ctx) },
		func(ctx context.Context) error { return db.Close() },
	)
	if producer != nil {
		boot.Add("kafka-producer", nil,
			func(ctx context.Context) error { return producer.Close() },
		)
	}

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.WithField("addr", addr).Infof("Starting %s on %s", cfg.AppName, addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server stopped unexpectedly")
			os.Exit(1)
		}
	}()
	checker.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to shut down server gracefully")
	}
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("failed to stop dependencies")
	}
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.PrettyLogs {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func setupTracing(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	res := sdkresource.NewSchemaless(
		attribute.String("service.name", cfg.AppName),
	)

	var exporter sdktrace.SpanExporter
	if cfg.OTLPEnabled {
		otlpExporter, err := exporters.NewOTLPExporter(ctx, exporters.OTLPConfig{
			Endpoint: cfg.OTLPEndpoint,
			Protocol: cfg.OTLPProtocol,
			Insecure: cfg.OTLPInsecure,
			Timeout:  10 * time.Second,
		})
		if err != nil {
			return nil, err
		}
		exporter = otlpExporter
	} else {
		exporter = &exporters.ConsoleExporter{}
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return provider.Shutdown, nil
}

func connectDatabase(cfg *config.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseUserName,
		cfg.DatabasePassword,
		cfg.DatabaseName,
		cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	return db, nil
}

func runMigrations(cfg *config.Config, db *sqlx.DB, logger ectologger.Logger) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	migrationService := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	return migrationService.Migrate(cfg.DatabaseName, driver)
}

func registerDependencies(
	logger ectologger.Logger,
	db database.DB,
	recordRepo *commissionrecord.Repository,
	rosterRepo *employeerepo.Repository,
	imp *importer.Importer,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[database.DB](container, db); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*commissionrecord.Repository](container, recordRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*employeerepo.Repository](container, rosterRepo); err != nil {
		return err
	}
	return ectoinject.RegisterInstance[*importer.Importer](container, imp)
}

func newServer(cfg *config.Config, logger ectologger.Logger, checker *health.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(echomiddleware.Recover())
	e.HTTPErrorHandler = middleware.Error(logger)

	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	commission.Register(api.Group("/commissions"))
	employee.Register(api.Group("/employees"))

	return e
}
