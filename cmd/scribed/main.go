package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/scribeai/scribe/internal/config"
	"github.com/scribeai/scribe/internal/gdrive"
	"github.com/scribeai/scribe/internal/server"
	"github.com/scribeai/scribe/internal/session"
	"github.com/scribeai/scribe/internal/storage"
	"github.com/scribeai/scribe/internal/summary"
	"github.com/scribeai/scribe/internal/transcribe"
)

func main() {
	log.Println("scribed: starting")

	_ = godotenv.Load()

	configPath := os.Getenv(config.EnvPrefix + "CONFIG")
	if configPath == "" {
		configPath = "scribe.yaml"
	}

	cfg, warnings, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, w := range warnings {
		log.Printf("warning: %s", w)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	transcriber, err := transcribe.New(ctx, cfg.TranscriptionProvider, cfg.TranscriptionAPIKey(), cfg.TranscriptionModel)
	if err != nil {
		log.Fatalf("transcriber init failed: %v", err)
	}

	summarizer, err := summary.NewFromModel(cfg.SummaryModel, cfg.SummaryAPIKey())
	if err != nil {
		log.Fatalf("summarizer init failed: %v", err)
	}

	hub := server.NewHub()
	registry := session.NewRegistry(store)
	pipeline := session.NewPipeline(registry, transcriber, hub, cfg.ParsedTranscribeTimeout())
	finalizer := session.NewFinalizer(registry, store, summarizer, hub, cfg.ParsedSummarizeTimeout())
	engine := session.NewEngine(registry, pipeline, finalizer)

	engine.StartReaper(ctx, cfg.ParsedReapTimeout())

	if cfg.GDriveFolderID != "" {
		syncer, syncErr := gdrive.NewSyncer(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if syncErr != nil {
			log.Printf("warning: gdrive sync disabled: %v", syncErr)
		} else {
			go func() {
				ticker := time.NewTicker(5 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						date := time.Now().UTC().Format("2006-01-02")
						if err := syncer.Sync(cfg.DBPath, date); err != nil {
							log.Printf("gdrive sync error: %v", err)
						}
					}
				}
			}()
		}
	}

	handler := server.Handler(hub, engine, store, server.StatusHooks{
		ActiveSessions: engine.Active,
		Warnings:       func() []string { return warnings },
		LiveTranscript: engine.Transcript,
	})

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	go func() {
		log.Printf("scribed: listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("scribed: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Seal and finalize whatever is still recording so transcripts are not
	// lost; late transcription results are discarded by the pipeline.
	engine.Shutdown(shutdownCtx)

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: http shutdown failed: %v", err)
	}
}
