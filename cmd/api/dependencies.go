package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"exercise-tracker/internal/cache"
	"exercise-tracker/internal/config"
	"exercise-tracker/internal/database"
	"exercise-tracker/internal/events"
	"exercise-tracker/internal/store"
	"exercise-tracker/internal/store/memory"
	"exercise-tracker/internal/store/mongostore"
	"exercise-tracker/internal/store/sqlstore"
)

type dependencies struct {
	store     store.Store
	userCache cache.UserCache
	publisher events.Publisher
	closers   []func() error
}

func openDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	deps := &dependencies{
		userCache: cache.Nop{},
		publisher: events.Nop{},
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.store = st
	deps.closers = append(deps.closers, st.Close)

	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisConnection(ctx, cfg.RedisURL)
		if err != nil {
			deps.Close(logger)
			return nil, err
		}
		deps.userCache = cache.NewRedisUserCache(redisClient)
		deps.closers = append(deps.closers, redisClient.Close)
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		deps.publisher = publisher
		deps.closers = append(deps.closers, publisher.Close)
	}

	return deps, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case "", "memory":
		return memory.New(), nil
	case "mongo":
		client, err := database.NewMongoConnection(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		st, err := mongostore.New(ctx, client, cfg.MongoDatabase)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return st, nil
	default:
		dialect, err := database.DialectFor(cfg.StoreDriver)
		if err != nil {
			return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
		}
		db, err := database.NewConnection(ctx, dialect, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return sqlstore.New(db, dialect), nil
	}
}

// Close releases everything in reverse order of acquisition.
func (d *dependencies) Close(logger *zap.Logger) {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			logger.Warn("failed to close dependency", zap.Error(err))
		}
	}
	d.closers = nil
}
