// Package storage selects and opens the configured HotelRepository.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"hotel_listings/internal/domain"
	"hotel_listings/internal/shared"
	boltrepo "hotel_listings/internal/storage/bolt"
	"hotel_listings/internal/storage/metered"
	mongorepo "hotel_listings/internal/storage/mongo"
	mysqlrepo "hotel_listings/internal/storage/mysql"
)

// Open connects the driver named by cfg.StoreDriver and wraps it with
// store metrics. The returned func releases the connection.
func Open(ctx context.Context, cfg shared.Config) (domain.HotelRepository, func() error, error) {
	switch cfg.StoreDriver {
	case shared.DriverMongo:
		client, err := mongorepo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		repo := mongorepo.New(client.Database(cfg.MongoDB))
		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("db", cfg.MongoDB).Msg("mongo connection ok")
		closeFn := func() error {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(dctx)
		}
		return metered.Wrap(repo), closeFn, nil

	case shared.DriverBolt:
		repo, err := boltrepo.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("path", cfg.BoltPath).Msg("bolt store opened")
		return metered.Wrap(repo), repo.Close, nil

	default:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		db.SetMaxOpenConns(20)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		return metered.Wrap(mysqlrepo.New(db)), db.Close, nil
	}
}
