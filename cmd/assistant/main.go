// cmd/assistant/main.go
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

	"careescapes-workers/internal/api"
	"careescapes-workers/internal/clients/gemini"
	"careescapes-workers/internal/clients/genai"
	awsclients "careescapes-workers/internal/common/aws"
	"careescapes-workers/internal/common/camunda"
	"careescapes-workers/internal/common/config"
	"careescapes-workers/internal/common/database"
	"careescapes-workers/internal/common/logger"
	"careescapes-workers/internal/common/observability"
	"careescapes-workers/internal/conversation/assistant"
	"careescapes-workers/internal/conversation/classifier"
	"careescapes-workers/internal/conversation/handlers"
	"careescapes-workers/internal/conversation/matcher"
	"careescapes-workers/internal/conversation/router"
	"careescapes-workers/internal/knowledge"
	"careescapes-workers/internal/notify"
	"careescapes-workers/internal/session"
	"careescapes-workers/internal/store/careapi"
	"careescapes-workers/internal/store/postgres"

	rm "careescapes-workers/internal/workers/assistant/route-message"
)

const routeMessageWorker = "route-message"

// backend is the CRUD collaborator: either the PostgreSQL store or the REST API client.
type backend interface {
	handlers.ClinicSearcher
	handlers.BookingService
	handlers.UserDirectory
	notify.UserLookup
	database.Pinger
}

// completer is implemented by both GenAI providers.
type completer interface {
	classifier.Completer
	knowledge.Generator
}

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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assistant...",
		zap.String("environment", cfg.App.Environment),
		zap.String("backend", cfg.Assistant.Backend),
		zap.String("sessionStore", cfg.Assistant.SessionStore),
		zap.String("genaiProvider", cfg.APIs.GenAI.Provider),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]database.Pinger{}

	// --- Redis (sessions and FAQ cache) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = redisClient
		zapLog.Info("Redis connected successfully")
	}

	// --- CRUD backend ---
	var store backend
	switch cfg.Assistant.Backend {
	case config.BackendREST:
		store = careapi.New(cfg.APIs.CareAPI.BaseURL, config.GetDuration(cfg.APIs.CareAPI.Timeout))
		zapLog.Info("Using CareEscapes REST API", zap.String("baseURL", cfg.APIs.CareAPI.BaseURL))
	default:
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
		store = postgres.New(pg, cfg.Assistant.ClinicSearchLimit)
		zapLog.Info("PostgreSQL connected successfully")
	}
	checks["backend"] = store

	// --- Text completion ---
	var llm completer
	switch cfg.APIs.GenAI.Provider {
	case config.GenAIProviderGemini:
		gc, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.APIs.GenAI.APIKey,
			Model:       cfg.APIs.GenAI.Model,
			Temperature: cfg.APIs.GenAI.Temperature,
			MaxTokens:   cfg.APIs.GenAI.MaxTokens,
			Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
		})
		if err != nil {
			zapLog.Fatal("gemini client failed", zap.Error(err))
		}
		defer gc.Close()
		llm = gc
	default:
		llm = genai.New(genai.Config{
			BaseURL:     cfg.APIs.GenAI.BaseURL,
			APIKey:      cfg.APIs.GenAI.APIKey,
			Model:       cfg.APIs.GenAI.Model,
			Temperature: cfg.APIs.GenAI.Temperature,
			MaxTokens:   cfg.APIs.GenAI.MaxTokens,
			Timeout:     config.GetDuration(cfg.APIs.GenAI.Timeout),
			MaxRetries:  2,
		})
	}

	// --- FAQ retrieval ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	checks["elasticsearch"] = esClient
	zapLog.Info("Elasticsearch connected successfully")

	faqCfg := knowledge.Config{
		Index:    cfg.Assistant.FAQ.Index,
		TopK:     cfg.Assistant.FAQ.TopK,
		CacheTTL: time.Duration(cfg.Assistant.FAQ.CacheTTL) * time.Second,
	}
	var faq *knowledge.Answerer
	if redisClient != nil {
		faq = knowledge.NewAnswerer(faqCfg, esClient.Client, llm, redisClient.Client, log)
	} else {
		faq = knowledge.NewAnswerer(faqCfg, esClient.Client, llm, nil, log)
	}

	// --- Bookings, optionally with confirmations ---
	var bookings handlers.BookingService = store
	if cfg.Notifications.Enabled {
		messaging, err := awsclients.NewClients(ctx, cfg.Notifications.Region)
		if err != nil {
			zapLog.Fatal("aws clients failed", zap.Error(err))
		}
		bookings = notify.NewBookingNotifier(store, store, messaging.SES, messaging.SNS, notify.Config{
			EmailEnabled:      cfg.Notifications.Email.Enabled,
			FromEmail:         cfg.Notifications.Email.FromEmail,
			SMSEnabled:        cfg.Notifications.SMS.Enabled,
			SenderID:          cfg.Notifications.SMS.SenderID,
			PlaceholderDomain: cfg.Assistant.PlaceholderEmailDomain,
		}, log)
		zapLog.Info("Booking notifications enabled", zap.String("region", cfg.Notifications.Region))
	}

	// --- Conversation pipeline ---
	h := handlers.New(handlers.Dependencies{
		Clinics:  store,
		Bookings: bookings,
		Users:    store,
		FAQ:      faq,
	}, handlers.Options{
		DefaultAppointmentHour: &cfg.Assistant.DefaultAppointmentHour,
		PlaceholderEmailDomain: cfg.Assistant.PlaceholderEmailDomain,
		Clock:                  handlers.SystemClock,
	}, log)

	clf := classifier.New(llm, config.GetDuration(cfg.Assistant.ClassifierTimeout), log)
	rt := router.New(matcher.New(), clf, h, obs, log)

	var sessions assistant.SessionStore
	if cfg.Assistant.SessionStore == config.SessionStoreMemory {
		sessions = session.NewMemoryStore()
	} else {
		sessions = session.NewRedisStore(redisClient.Client, time.Duration(cfg.Assistant.SessionTTL)*time.Second)
	}
	svc := assistant.NewService(rt, sessions, log)

	// --- Camunda worker ---
	var zeebe *camunda.Client
	var jobWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, routeMessageWorker) {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")

		wcfg := config.GetWorkerConfig(cfg, routeMessageWorker)
		handler := rm.NewHandler(rm.LoadConfig(wcfg), svc, log)
		jobWorker = camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      rm.TaskType,
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler.Handle, zapLog)
	}

	// --- HTTP API ---
	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           api.NewServer(svc, checks, log).Routes(),
		ReadHeaderTimeout: config.GetDuration(cfg.Server.ReadTimeout),
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			cancel()
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP shutdown failed", zap.Error(err))
	}
	if jobWorker != nil {
		jobWorker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Assistant stopped gracefully")
}
