package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xavierca1/raccordement-leads/internal/config"
	"github.com/xavierca1/raccordement-leads/internal/infra/auth"
	"github.com/xavierca1/raccordement-leads/internal/infra/cache"
	"github.com/xavierca1/raccordement-leads/internal/infra/database"
	"github.com/xavierca1/raccordement-leads/internal/infra/export"
	"github.com/xavierca1/raccordement-leads/internal/infra/http/handlers"
	"github.com/xavierca1/raccordement-leads/internal/infra/http/middleware"
	"github.com/xavierca1/raccordement-leads/internal/infra/http/router"
	"github.com/xavierca1/raccordement-leads/internal/infra/logger"
	"github.com/xavierca1/raccordement-leads/internal/infra/mail"
	"github.com/xavierca1/raccordement-leads/internal/infra/mailbridge"
	"github.com/xavierca1/raccordement-leads/internal/infra/payment"
	"github.com/xavierca1/raccordement-leads/internal/infra/queue"
	"github.com/xavierca1/raccordement-leads/internal/infra/worker"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("❌ logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Fatal("❌ server stopped with error", zap.Error(err))
	}
	zl.Info("👋 server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	// 1. Infra
	db, err := database.NewDBConnection(cfg.Database.URL, database.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := database.Migrate(ctx, db, zl); err != nil {
		return err
	}

	redisClient := cache.NewRedisClient(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	defer redisClient.Close()
	draftCache := cache.NewDraftCache(redisClient, cfg.Redis.DraftTTL)

	rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		return err
	}
	defer rabbitMQ.Close()

	// Canal próprio para o consumidor; o principal fica para publicação.
	consumerCh, err := rabbitMQ.Conn.Channel()
	if err != nil {
		return err
	}
	defer consumerCh.Close()
	if err := consumerCh.Qos(5, 0, false); err != nil {
		return err
	}

	gateway, err := payment.New(cfg.Payment, zl)
	if err != nil {
		return err
	}

	// 2. Repositórios
	leadRepo := database.NewLeadRepository(db)
	requestRepo := database.NewServiceRequestRepository(db)
	userRepo := database.NewUserRepository(db)
	templateRepo := database.NewTemplateRepository(db)
	emailLogRepo := database.NewEmailLogRepository(db)
	contactRepo := database.NewContactRepository(db)
	automationRepo := database.NewAutomationRepository(db)

	// 3. Adapters
	producer := queue.NewProducer(rabbitMQ.Ch)
	mailSender := mail.NewEmailSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	bridge := mailbridge.NewClient(cfg.MailBridge.BaseURL, cfg.MailBridge.APIKey, cfg.MailBridge.Timeout, zl)
	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// 4. UseCases
	outbox := usecase.NewOutbox(emailLogRepo, producer, zl)
	automationUC := usecase.NewAutomationUseCase(automationRepo, zl)
	checkout := &usecase.Checkout{
		Requests:    requestRepo,
		Payments:    gateway,
		Templates:   templateRepo,
		Outbox:      outbox,
		Automations: automationUC,
		Logger:      zl,
	}
	leadUC := usecase.NewLeadUseCase(leadRepo, requestRepo, draftCache, checkout, zl)
	requestUC := usecase.NewServiceRequestUseCase(requestRepo, leadRepo, userRepo, checkout, export.NewXLSXWriter(), zl)
	contactUC := usecase.NewContactUseCase(contactRepo, templateRepo, outbox, automationUC, cfg.App.AdminEmail, zl)
	userUC := usecase.NewUserUseCase(userRepo, auth.NewBcryptHasher(), tokens, zl)
	emailUC := usecase.NewEmailUseCase(bridge, templateRepo, requestRepo, emailLogRepo, outbox, zl)
	reminderUC := usecase.NewDraftReminderUseCase(
		leadRepo, templateRepo, outbox, automationUC,
		cfg.App.PublicBaseURL,
		cfg.Workers.DraftReminder.IdleAfter,
		cfg.Workers.DraftReminder.BatchSize,
		zl,
	)

	// 5. Workers
	emailWorker := queue.NewEmailWorker(consumerCh, mailSender, userRepo, emailLogRepo, zl)
	reminderWorker := worker.NewDraftReminderWorker(reminderUC, cfg.Workers.DraftReminder.Interval, zl)

	// 6. Router
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, cfg.RateLimit.TrustProxy, zl)
	handler := router.New(router.Handlers{
		Health: handlers.NewHealthHandler(version, map[string]handlers.Checker{
			"database": handlers.CheckerFunc(db.PingContext),
			"redis":    draftCache,
			"rabbitmq": rabbitMQ,
		}),
		Leads:          handlers.NewLeadHandler(leadUC, zl),
		Requests:       handlers.NewServiceRequestHandler(requestUC, zl),
		PaymentWebhook: handlers.NewPaymentWebhookHandler(gateway, requestUC, cfg.Payment.Provider, zl),
		Contact:        handlers.NewContactHandler(contactUC, zl),
		Users:          handlers.NewUserHandler(userUC, zl),
		Emails:         handlers.NewEmailHandler(emailUC, zl),
		Automations:    handlers.NewAutomationHandler(automationUC, zl),
	}, router.Options{
		AllowedOrigins: cfg.App.AllowedOrigins,
		Tokens:         tokens,
		Users:          userUC,
		RateLimiter:    limiter,
		Logger:         zl,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zl.Info("🔥 raccordement API listening", zap.String("addr", srv.Addr), zap.String("payment_provider", cfg.Payment.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zl.Info("🛑 shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return emailWorker.Run(gctx)
	})

	g.Go(func() error {
		return reminderWorker.Start(gctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	})

	return g.Wait()
}
