package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/bowerhall/mediaqa/internal/alerts"
	"github.com/bowerhall/mediaqa/internal/bot"
	"github.com/bowerhall/mediaqa/internal/config"
	"github.com/bowerhall/mediaqa/internal/cron"
	"github.com/bowerhall/mediaqa/internal/extract"
	"github.com/bowerhall/mediaqa/internal/ingest"
	"github.com/bowerhall/mediaqa/internal/interaction"
	"github.com/bowerhall/mediaqa/internal/llm"
	"github.com/bowerhall/mediaqa/internal/logger"
	"github.com/bowerhall/mediaqa/internal/proxy"
	"github.com/bowerhall/mediaqa/internal/server"
	"github.com/bowerhall/mediaqa/internal/session"
	"github.com/bowerhall/mediaqa/internal/storage"
	"github.com/bowerhall/mediaqa/internal/transcribe"
	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func openStore(ctx context.Context, cfg config.StoreConfig) (interaction.Store, error) {
	switch cfg.Driver {
	case "mongo":
		return interaction.NewMongoStore(ctx, cfg.MongoURI, cfg.Database, cfg.Collection)
	case "memory":
		return interaction.NewMemoryStore(), nil
	case "sqlite", "":
		return interaction.OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	dispatcher, err := llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		logger.Fatal("failed to create llm", "error", err)
	}
	logger.Info("llm configured", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storeCtx, storeCancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := openStore(storeCtx, cfg.Store)
	storeCancel()
	if err != nil {
		logger.Fatal("failed to open interaction store", "driver", cfg.Store.Driver, "error", err)
	}
	defer store.Close()
	logger.Info("interaction store ready", "driver", cfg.Store.Driver)

	// transcription service (optional)
	var transcriber extract.Transcriber
	if cfg.Transcribe.Enabled {
		client, err := transcribe.New(transcribe.Config{
			APIKey:       cfg.Transcribe.APIKey,
			BaseURL:      cfg.Transcribe.BaseURL,
			PollInterval: cfg.Transcribe.PollInterval,
			Timeout:      cfg.Transcribe.Timeout,
		})
		if err != nil {
			logger.Error("failed to create transcription client", "error", err)
		} else {
			transcriber = client
			logger.Info("transcription enabled", "base_url", cfg.Transcribe.BaseURL)
		}
	}

	// minio staging for local videos (optional)
	var storageClient *storage.Client
	var stager extract.Stager
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			LinkTTL:   cfg.Storage.LinkTTL,
		})
		if err != nil {
			logger.Error("failed to create storage client", "error", err)
		} else {
			initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
			if err := client.Init(initCtx); err != nil {
				logger.Error("failed to init storage bucket", "error", err)
			} else {
				storageClient = client
				stager = client
				logger.Info("storage enabled", "endpoint", cfg.Storage.Endpoint, "bucket", client.Bucket())
			}
			initCancel()
		}
	}

	alerter := alerts.New(nil, time.Hour)

	svc := proxy.New(dispatcher, store, transcriber, alerter)
	sessions := session.NewStore()
	extractor := extract.New(transcriber, stager, cfg.MaxUploadBytes)
	pipeline := ingest.New(sessions, extractor, svc)

	var bots []bot.Bot

	if cfg.Bots.Telegram.Enabled {
		b, err := bot.NewTelegram(cfg.Bots.Telegram.Token, pipeline, cfg.OwnerChatID)
		if err != nil {
			logger.Fatal("failed to create telegram bot", "error", err)
		}

		bots = append(bots, b)
		go b.Start(ctx)
		logger.Info("telegram bot started")
	}

	if cfg.Bots.Discord.Enabled {
		b, err := bot.NewDiscord(cfg.Bots.Discord.Token, pipeline)
		if err != nil {
			logger.Fatal("failed to create discord bot", "error", err)
		}

		bots = append(bots, b)
		go b.Start(ctx)
		logger.Info("discord bot started")
	}

	if len(bots) > 0 && cfg.OwnerChatID != 0 {
		notifyBot := bots[0]
		alerter.SetNotify(func(message string) {
			if err := notifyBot.Send(cfg.OwnerChatID, message); err != nil {
				logger.Error("notification failed", "error", err, "chatID", cfg.OwnerChatID)
			}
		})
		logger.Info("error alerting enabled", "chatID", cfg.OwnerChatID)
	}

	janitor := cron.NewJanitor()
	if err := janitor.Add("sessions", cfg.Janitor.Schedule, func(ctx context.Context) (int, error) {
		return sessions.Sweep(cfg.Janitor.SessionIdleTTL), nil
	}); err != nil {
		logger.Fatal("invalid janitor schedule", "schedule", cfg.Janitor.Schedule, "error", err)
	}
	if storageClient != nil {
		janitor.Add("staged-media", cfg.Janitor.Schedule, func(ctx context.Context) (int, error) {
			return storageClient.DeleteExpired(ctx, cfg.Janitor.ObjectMaxAge)
		})
	}
	go janitor.Run(ctx)

	api := server.New(svc, pipeline, cfg.MaxUploadBytes)
	if storageClient != nil {
		api.SetStorage(storageClient)
	}

	port := strconv.Itoa(cfg.Port)
	httpServer := &http.Server{
		Addr:        ":" + port,
		Handler:     api.Handler(),
		ReadTimeout: 30 * time.Second,
		// transcription polls can run for minutes
		WriteTimeout: cfg.Transcribe.Timeout + time.Minute,
	}

	go func() {
		logger.Info("mediaqa proxy starting", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
