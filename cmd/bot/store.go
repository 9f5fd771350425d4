package main

import (
	"context"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/config"
	"github.com/PancyStudios/PancyTrials/pkg/database"
	"github.com/PancyStudios/PancyTrials/pkg/database/memstore"
	"github.com/PancyStudios/PancyTrials/pkg/database/sqlstore"
	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
)

// moderationStore is a moderation.Store that can report its health
type moderationStore interface {
	moderation.Store
	GetStatus() (string, bool)
}

// openStore builds the store selected by storeDriver. The returned func
// releases its connections.
func openStore(cfg *config.Config) (moderationStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
		if err != nil {
			// The driver keeps reconnecting in the background
			logger.Error(fmt.Sprintf("Error conectando a MongoDB: %v", err), "Main")
		}
		// Indexes are ensured on each connection; writes wait for them
		store := database.NewModerationStore(db)
		if db.Connected() && !store.Indexed() {
			return nil, nil, fmt.Errorf("índices de moderación no disponibles")
		}
		return store, func() {
			if err := db.Disconnect(); err != nil {
				logger.Error(fmt.Sprintf("Error desconectando MongoDB: %v", err), "Main")
			}
		}, nil

	case config.StoreSQLite, config.StoreMySQL, config.StorePostgres:
		gdb, err := sqlstore.Open(cfg.StoreDriver, cfg.SQLDsn)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := sqlstore.RunMigrations(ctx, gdb, cfg.StoreDriver); err != nil {
			return nil, nil, fmt.Errorf("migraciones: %w", err)
		}
		store := sqlstore.New(gdb)
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error(fmt.Sprintf("Error cerrando la base de datos: %v", err), "Main")
			}
		}, nil

	case config.StoreMemory:
		logger.Warn("Usando almacenamiento en memoria: los casos se pierden al reiniciar", "Main")
		return memstore.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("storeDriver %q no soportado", cfg.StoreDriver)
}
