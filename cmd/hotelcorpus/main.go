// Command hotelcorpus is the process entrypoint: it wires config, the
// database, the LLM client, the crawler, and the bucket collector, then
// runs the driver loop over every hotel due for a pass. Connection
// wiring is a plain sqlx.Connect plus a schema-bootstrap step for each
// of this module's tables.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/usercommon/hotelcorpus/internal/bucket"
	"github.com/usercommon/hotelcorpus/internal/config"
	"github.com/usercommon/hotelcorpus/internal/crawler"
	"github.com/usercommon/hotelcorpus/internal/hotel"
	"github.com/usercommon/hotelcorpus/internal/llmclient"
	"github.com/usercommon/hotelcorpus/internal/pipeline"
	"github.com/usercommon/hotelcorpus/internal/store"
)

func main() {
	cfg := config.Load()

	log := newLogger(cfg.Development)
	defer log.Sync()

	db, err := connectDB()
	if err != nil {
		log.Fatal("fatal: db pool could not initialize", zap.Error(err))
	}
	defer db.Close()

	pages, err := store.NewPageStore(db, cfg.HotelPageDataTable)
	if err != nil {
		log.Fatal("fatal: invalid page table", zap.Error(err))
	}
	market, err := store.NewMarketDataStore(db, cfg.MarketDataTable)
	if err != nil {
		log.Fatal("fatal: invalid market data table", zap.Error(err))
	}
	hotels, err := hotel.NewPostgresService(db, "hotels")
	if err != nil {
		log.Fatal("fatal: invalid hotels table", zap.Error(err))
	}

	ctx := context.Background()
	if err := pages.EnsureSchema(ctx); err != nil {
		log.Fatal("fatal: could not ensure page schema", zap.Error(err))
	}
	if err := market.EnsureSchema(ctx); err != nil {
		log.Fatal("fatal: could not ensure market data schema", zap.Error(err))
	}
	if err := hotels.EnsureSchema(ctx); err != nil {
		log.Fatal("fatal: could not ensure hotels schema", zap.Error(err))
	}

	llm, err := llmclient.New(cfg.PerplexityAPIKey, "")
	if err != nil {
		log.Fatal("fatal: could not initialize llm client", zap.Error(err))
	}

	crawlerOpts := crawler.Options{
		MaxDepth:       cfg.CrawlerMaxDepth,
		MaxConcurrency: cfg.CrawlerMaxConcurrency,
		MaxRetries:     cfg.CrawlerMaxRetries,
		RequestTimeout: time.Duration(cfg.CrawlerTimeoutSeconds) * time.Second,
		Headless:       !cfg.Development,
	}
	c := crawler.New(crawlerOpts, pages, log)
	collector := bucket.New(pages, market, llm, cfg.CrawlerMaxRetries, log)

	p := pipeline.New(c, collector, hotels, log)
	mode := pipeline.ModeFromEnv(cfg.UnitTest, cfg.UnitTestModule)

	if err := p.RunAll(ctx, mode); err != nil {
		log.Fatal("fatal: driver loop failed", zap.Error(err))
	}
}

func connectDB() (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		envOrDefault("DB_HOST", "localhost"),
		envOrDefault("DB_PORT", "5432"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
	)
	return sqlx.Connect("postgres", dsn)
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger(development bool) *zap.Logger {
	var log *zap.Logger
	var err error
	if development {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		log = zap.NewNop()
	}
	return log
}
