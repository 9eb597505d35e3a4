// cmd/api-server/main.go
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

	"go.uber.org/zap"

	"loanbridge/internal/action"
	"loanbridge/internal/auth"
	"loanbridge/internal/common/config"
	"loanbridge/internal/common/database"
	httpclient "loanbridge/internal/common/http"
	"loanbridge/internal/common/logger"
	"loanbridge/internal/common/observability"
	"loanbridge/internal/notify"
	"loanbridge/internal/partners"
	"loanbridge/internal/repository"
	"loanbridge/internal/search"
	"loanbridge/internal/server"
	"loanbridge/internal/store"
	"loanbridge/internal/submit"
	"loanbridge/internal/wizard"
	"loanbridge/internal/workflow"

	awsclients "loanbridge/internal/common/aws"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting api server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("api-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional) ---
	var indexer *search.Indexer
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Warn("elasticsearch unavailable, admin search disabled", zap.Error(err))
		} else {
			indexer = search.NewIndexer(esClient.Client, cfg.Database.Elasticsearch.IndexName, log)
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Repositories ---
	users := repository.NewUserRepository(pg.DB)
	apps := repository.NewApplicationRepository(pg.DB)

	// --- Auth services ---
	tokens := auth.NewTokenService(rdb,
		time.Duration(cfg.Auth.AccessTokenTTL)*time.Minute,
		time.Duration(cfg.Auth.RefreshTokenTTL)*time.Minute,
	)

	var otpSender auth.SMSSender = auth.LogSMSSender{Logger: log}
	var smsSender notify.SMSSender
	if cfg.Integrations.AWS.SNS.Enabled && !cfg.Auth.OTP.DevMode {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		otpSender = snsClient
		smsSender = snsClient
	}
	otp := auth.NewOTPService(rdb, otpSender,
		time.Duration(cfg.Auth.OTP.TTL)*time.Second,
		cfg.Auth.OTP.Length, cfg.Auth.OTP.MaxAttempts, log,
	)

	// --- Notifications ---
	var emailSender notify.EmailSender
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		emailSender = sesClient
	}
	notifier := notify.NewNotifier(emailSender, smsSender, cfg.Notifications.Email.FromEmail, log)

	// --- Partner CRM (optional) ---
	var crm server.DealPusher
	if cfg.Integrations.PartnerCRM.Enabled {
		crm = partners.NewCRMClient(
			cfg.Integrations.PartnerCRM.BaseURL,
			cfg.Integrations.PartnerCRM.APIKey,
			cfg.Integrations.PartnerCRM.AuthToken,
		)
	}

	// --- Review workflow (optional) ---
	var publisher *workflow.Publisher
	if cfg.Workflow.Enabled {
		publisher, err = workflow.NewPublisher(
			cfg.Workflow.BrokerAddress,
			cfg.Workflow.ProcessID,
			config.GetDuration(cfg.Workflow.RequestTimeout),
			log,
		)
		if err != nil {
			zapLog.Warn("review workflow unavailable", zap.Error(err))
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	// --- Wizard engine ---
	sessions := wizard.NewSessionStore(rdb, time.Duration(cfg.Wizard.SessionTTL)*time.Second)
	verifier := wizard.CannedVerifier{
		Income: "45,000 / month",
		Delay:  config.GetDuration(cfg.Wizard.IncomeVerifyDelay),
	}

	appStore := store.New()
	actions := action.NewFactory(httpclient.NewClient(config.GetDuration(cfg.Origination.Timeout)), appStore)
	pipeline := submit.NewPipeline(actions,
		cfg.Origination.BaseURL,
		config.GetDuration(cfg.Wizard.BannerClearDelay),
		log,
	)

	srv := server.New(server.Options{
		Config:   cfg,
		Logger:   log,
		Users:    users,
		Apps:     apps,
		Tokens:   tokens,
		OTP:      otp,
		Sessions: sessions,
		Pipeline: pipeline,
		Verifier: verifier,
		Indexer:  indexer,
		Notifier: notifier,
		CRM:      crm,
		Workflow: publisher,
		Obs:      obs,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Wait for shutdown signal ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zapLog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
