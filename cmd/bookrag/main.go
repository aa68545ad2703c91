package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bookrag/internal/chunker"
	"bookrag/internal/config"
	"bookrag/internal/embedding"
	"bookrag/internal/embedding/gemini"
	"bookrag/internal/embedding/openai"
	"bookrag/internal/generate"
	"bookrag/internal/ingest"
	"bookrag/internal/progress"
	"bookrag/internal/server"
	"bookrag/internal/service"
	"bookrag/internal/stocks"
	"bookrag/internal/store/sqlite"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config YAML (default: ./config.yaml, then ~/.config/bookrag/config.yaml)")
	flag.Parse()

	// Secrets come from the environment; .env is a convenience for local runs.
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	secret := os.Getenv(cfg.Auth.UploadSecretEnv)
	if secret == "" {
		log.Printf("warning: %s is not set, uploads will be rejected", cfg.Auth.UploadSecretEnv)
	}

	// Assemble components via interfaces
	var emb embedding.Embedder
	switch cfg.Embedder.Type {
	case "gemini", "":
		emb, err = gemini.NewClient(gemini.Config{
			BaseURL:   cfg.Embedder.Gemini.BaseURL,
			APIKeyEnv: cfg.Embedder.Gemini.APIKeyEnv,
			Model:     cfg.Embedder.Gemini.Model,
			Timeout:   time.Duration(cfg.Embedder.Gemini.TimeoutSecs) * time.Second,
		})
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			log.Fatalf("openai embedder config missing")
		}
		emb, err = openai.NewClient(openai.Config{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}
	if err != nil {
		log.Fatalf("failed to create embedder: %v", err)
	}
	if cfg.Embedder.RateLimitRPS > 0 {
		emb = embedding.RateLimited(emb, cfg.Embedder.RateLimitRPS)
	}

	gen, err := generate.NewClient(generate.Config{
		BaseURL:   cfg.Generator.BaseURL,
		APIKeyEnv: cfg.Generator.APIKeyEnv,
		Model:     cfg.Generator.Model,
		Timeout:   time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to create generator: %v", err)
	}

	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open store at %s: %v", cfg.Store.Path, err)
	}
	defer store.Close()

	wc, err := chunker.NewWordChunker(cfg.Chunker.WordsPerChunk)
	if err != nil {
		log.Fatalf("invalid chunker config: %v", err)
	}

	tracker := progress.NewTracker()
	stockTimeout := time.Duration(cfg.Stocks.TimeoutSecs) * time.Second

	srv := server.New(server.Options{
		Secret:    secret,
		Pipeline:  ingest.NewPipeline(wc, emb, store, tracker, cfg.Ingest.Concurrency),
		Tracker:   tracker,
		Reports:   service.NewReportService(emb, store, gen, cfg.Retrieve.TopK),
		Chunks:    store,
		Plans:     store,
		Stocks:    stocks.NewCacheService(stocks.NewYahooClient("", stockTimeout), store),
		StockData: store,
		Search:    stocks.NewFinnhubClient("", cfg.Stocks.FinnhubAPIKeyEnv, stockTimeout),
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("listening on %s (embedder=%s, store=%s)", cfg.Server.Addr, emb.Name(), cfg.Store.Path)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
