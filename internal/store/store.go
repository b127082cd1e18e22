package store

import (
	"context"
	"fmt"
	"log/slog"

	"zapbridge/internal/config"
	"zapbridge/internal/domain"
)

// Open builds the message store selected by the config. The returned
// adapter is one of two interchangeable backends; callers never
// special-case the driver.
func Open(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (domain.MessageStore, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath, logger)
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}
