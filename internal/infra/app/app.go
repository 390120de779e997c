// Package app wires configuration, storage, and services into a runnable
// HTTP application.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/core/port"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/config"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/database"
	kafkainfra "github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/kafka"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/logger"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/mail"
	redisinfra "github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/redis"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/infra/security"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/ratelimit"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/kvjson"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/memory"
	postgresrepo "github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/postgres"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/repository/redisblob"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/transport/http/handlers"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/transport/http/middleware"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/transport/http/routes"
	"github.com/sirigireddyreddaiahh/urlsclickearn/internal/usecase"
)

// Application owns the process lifecycle: the HTTP server, the background
// janitor, and the connections that must be closed on shutdown.
type Application struct {
	cfg         *config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	pool        *pgxpool.Pool
	redis       *redisinfra.Client
	producer    *kafkainfra.Producer
	maintenance *usecase.MaintenanceService
}

// New builds the application from configuration. The blob store backend,
// mail provider, and event publisher are all selected here by config,
// never by probing.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &Application{cfg: cfg, logger: log}

	store, err := app.initBlobStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var limitStore ratelimit.Store
	if app.redis != nil {
		limitStore = redisblob.NewCounterStore(app.redis.Client(), cfg.Redis.RateLimitPrefix)
	} else {
		limitStore = ratelimit.NewMemoryStore()
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			app.producer = producer
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	mailService, err := initMail(cfg, log)
	if err != nil {
		app.closeConnections()
		return nil, err
	}

	hasher := security.NewPasswordHasher(cfg.Security.BcryptCost)
	validator := security.DefaultPasswordValidator(cfg.Security.MinPasswordBits)
	signer := security.NewTokenSigner(cfg.JWT.Secret)

	users := kvjson.NewUserRepository(store)
	sessions := kvjson.NewSessionRepository(store)
	attempts := kvjson.NewAttemptRepository(store)

	sessionService := usecase.NewSessionService(sessions, users, signer, eventPublisher, log,
		cfg.JWT.SessionTTL, cfg.JWT.RememberTTL)
	lockout := usecase.NewLockoutPolicy(users, attempts, log, cfg.Lockout.Threshold, cfg.Lockout.Duration)
	authService := usecase.NewAuthService(users, sessionService, lockout, hasher, mailService, eventPublisher, log)
	registrationService := usecase.NewRegistrationService(users, hasher, validator, mailService, eventPublisher, log)
	resetService := usecase.NewPasswordResetService(users, sessionService, hasher, validator, mailService, eventPublisher, log)
	userService := usecase.NewUserService(users, sessions)
	app.maintenance = usecase.NewMaintenanceService(sessions, attempts, log)

	var oauthService *usecase.OAuthService
	if cfg.OAuth.GitHub.ClientID != "" || cfg.OAuth.Google.ClientID != "" {
		oauthService = usecase.NewOAuthService(users, sessionService, hasher, eventPublisher, log,
			cfg.OAuth, cfg.App.BaseURL)
	}

	limiters := handlers.FlowLimiters{
		Signup:       ratelimit.New(limitStore, cfg.RateLimit.SignupAttempts, cfg.RateLimit.SignupWindow),
		Verify:       ratelimit.New(limitStore, cfg.RateLimit.VerifyAttempts, cfg.RateLimit.VerifyWindow),
		ResetRequest: ratelimit.New(limitStore, cfg.RateLimit.ResetRequestAttempts, cfg.RateLimit.ResetRequestWindow),
		ResetRedeem:  ratelimit.New(limitStore, cfg.RateLimit.ResetRedeemAttempts, cfg.RateLimit.ResetRedeemWindow),
	}

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		app.closeConnections()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	app.engine = routes.Register(routes.Dependencies{
		Config: cfg,
		Logger: log,
		Services: routes.ServiceSet{
			Auth:         authService,
			Registration: registrationService,
			Reset:        resetService,
			Sessions:     sessionService,
			OAuth:        oauthService,
			Users:        userService,
		},
		Limiters: limiters,
		Store:    store,
		Metrics:  metrics,
	})

	return app, nil
}

func (a *Application) initBlobStore(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (port.BlobStore, error) {
	switch cfg.Storage.Backend {
	case "memory", "":
		log.Warn("using in-memory blob store, data is lost on restart")
		return memory.NewBlobStore(), nil
	case "redis":
		client, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.redis = client
		return redisblob.NewBlobStore(client.Client(), cfg.Storage.Prefix), nil
	case "postgres":
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, fmt.Errorf("init postgres: %w", err)
		}
		a.pool = pool
		return postgresrepo.NewBlobStore(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func initMail(cfg *config.AppConfig, log *zap.Logger) (*mail.Service, error) {
	var mailer port.Mailer
	switch cfg.Mail.Provider {
	case "brevo":
		brevo, err := mail.NewBrevoMailer(cfg.Mail, log)
		if err != nil {
			return nil, fmt.Errorf("init brevo mailer: %w", err)
		}
		mailer = brevo
	case "log", "":
		log.Info("mail provider not configured, logging outbound email")
		mailer = mail.NewLogMailer(log)
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}

	if cfg.Mail.Retries > 1 {
		mailer = mail.NewRetryMailer(mailer, cfg.Mail.Retries, cfg.Mail.RetryDelay, log)
	}

	return mail.NewService(mailer, cfg.App.BaseURL), nil
}

// Run starts the HTTP server and the expiry janitor, blocking until the
// context is cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closeConnections()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go a.maintenance.Run(janitorCtx, a.cfg.Janitor.Interval)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting accounts API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
		zap.String("storage", a.cfg.Storage.Backend),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func (a *Application) closeConnections() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("close kafka producer", zap.Error(err))
		}
		a.producer = nil
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
