package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_listings/internal/adapters/catalog"
	"hotel_listings/internal/adapters/observability"
	redisad "hotel_listings/internal/adapters/redis"
	"hotel_listings/internal/app"
	"hotel_listings/internal/domain"
	"hotel_listings/internal/shared"
	"hotel_listings/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	source := cfg.ImportSource
	if len(os.Args) > 1 {
		source = os.Args[1]
	}
	if source == "" {
		log.Fatal().Msg("no import source: set IMPORT_SOURCE or pass a file path or URL")
	}
	log.Info().
		Str("source", source).
		Str("driver", cfg.StoreDriver).
		Int("workers", cfg.ImportWorkers).
		Msg("importer starting")

	records, err := loadRecords(ctx, source, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load records failed")
	}
	log.Info().Int("records", len(records)).Msg("records loaded")

	repo, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer closeStore()

	// bump the list generation so the API drops cached pages
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}

	cmd := app.NewCommandService(repo, cache, cfg.StoreTimeout)
	ing := app.NewIngestionService(cmd, repo)

	workers := cfg.ImportWorkers
	if workers < 1 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg                 sync.WaitGroup
		created, dup, fail atomic.Int64
	)
	start := time.Now()

	for i, rec := range records {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("import interrupted")
			break
		}
		wg.Add(1)
		go func(idx int, rec map[string]any) {
			defer wg.Done()
			defer sem.Release(1)

			h, err := ing.IngestRecord(ctx, rec)
			var verr *domain.ValidationError
			switch {
			case err == nil:
				created.Add(1)
				log.Debug().Int("index", idx).Str("id", h.ID).Str("name", h.Name).Msg("import ok")
			case errors.Is(err, domain.ErrDuplicateName):
				dup.Add(1)
				log.Info().Int("index", idx).Msg("import skipped: name exists")
			case errors.As(err, &verr):
				fail.Add(1)
				log.Warn().Int("index", idx).Strs("errors", verr.Messages()).Msg("import rejected")
			default:
				fail.Add(1)
				log.Warn().Int("index", idx).Err(err).Msg("import failed")
			}
		}(i, rec)
	}

	wg.Wait()
	log.Info().
		Int64("created", created.Load()).
		Int64("duplicates", dup.Load()).
		Int64("failed", fail.Load()).
		Dur("took", time.Since(start)).
		Msg("import completed")
}

func loadRecords(ctx context.Context, source string, cfg shared.Config) ([]map[string]any, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return catalog.New(cfg.ImportAPIKey, cfg.ImportRPS).FetchRecords(ctx, source)
	}
	b, err := os.ReadFile(source)
	if err != nil {
		return nil, err
	}
	return catalog.DecodeRecords(b)
}
