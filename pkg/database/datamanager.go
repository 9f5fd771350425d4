// Package database provides the DataManager for cached database operations.
package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotConnected is returned while the database is offline
var ErrNotConnected = errors.New("database not connected")

// DataManagerOptions contains configuration for a DataManager
type DataManagerOptions struct {
	MaxCacheSize int
}

// DefaultDataManagerOptions returns default options for DataManager
func DefaultDataManagerOptions() DataManagerOptions {
	return DataManagerOptions{
		MaxCacheSize: 1000,
	}
}

// DataManager provides typed access to a MongoDB collection.
// Get reads through an LRU cache; everything else goes straight to the server.
type DataManager[T any] struct {
	name       string
	dbInstance *Database
	options    DataManagerOptions
	cache      *lru.Cache[string, *T]
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database, opts ...DataManagerOptions) *DataManager[T] {
	dmOptions := DefaultDataManagerOptions()
	if len(opts) > 0 {
		dmOptions = opts[0]
	}
	if dmOptions.MaxCacheSize <= 0 {
		dmOptions.MaxCacheSize = 1
	}

	cache, err := lru.New[string, *T](dmOptions.MaxCacheSize)
	if err != nil {
		// Only fails on a non-positive size, which is ruled out above
		panic(err)
	}

	return &DataManager[T]{
		name:       collectionName,
		dbInstance: db,
		options:    dmOptions,
		cache:      cache,
	}
}

// collection resolves the collection lazily so a DataManager survives reconnects
func (dm *DataManager[T]) collection() (*mongo.Collection, error) {
	if !dm.dbInstance.Connected() {
		return nil, ErrNotConnected
	}
	col := dm.dbInstance.GetCollection(dm.name)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

// generateCacheKey creates a unique, deterministic key from a query
// It sorts the keys to ensure consistent ordering regardless of map iteration order
func (dm *DataManager[T]) generateCacheKey(query bson.M) string {
	keys := make([]string, 0, len(query))
	for k := range query {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, query[k]))
	}

	return fmt.Sprintf("%s:{%s}", dm.name, strings.Join(parts, ","))
}

// Get retrieves a document from cache or database. It returns nil, nil when nothing matches.
// Only use it for documents that never change once written.
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	cacheKey := dm.generateCacheKey(query)
	if v, ok := dm.cache.Get(cacheKey); ok {
		return v, nil
	}

	result, err := dm.Find(ctx, query)
	if err != nil || result == nil {
		return result, err
	}
	dm.cache.Add(cacheKey, result)
	return result, nil
}

// Find reads a single document without touching the cache
func (dm *DataManager[T]) Find(ctx context.Context, query bson.M) (*T, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	var result T
	err = col.FindOne(ctx, query).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		logger.Warn(fmt.Sprintf("Fallo al leer de la DB (%s)", dm.name), "DataManager")
		return nil, err
	}
	return &result, nil
}

// GetAll retrieves all documents matching a query from the database
func (dm *DataManager[T]) GetAll(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]*T, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx, query, opts...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", dm.name, err)
		}
		results = append(results, &doc)
	}
	return results, cursor.Err()
}

// Insert writes a new document
func (dm *DataManager[T]) Insert(ctx context.Context, doc *T) error {
	col, err := dm.collection()
	if err != nil {
		return err
	}
	_, err = col.InsertOne(ctx, doc)
	return err
}

// Update applies update to the first document matching filter
func (dm *DataManager[T]) Update(ctx context.Context, filter, update bson.M) (*mongo.UpdateResult, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}
	dm.cache.Remove(dm.generateCacheKey(filter))
	return col.UpdateOne(ctx, filter, update)
}

// Modify applies update with upsert and returns the resulting document
func (dm *DataManager[T]) Modify(ctx context.Context, filter, update bson.M) (*T, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}
	dm.cache.Remove(dm.generateCacheKey(filter))

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	if err := col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		logger.Error(fmt.Sprintf("Error en 'modify' sobre '%s'", dm.name), "DataManager")
		return nil, err
	}
	return &result, nil
}

// EnsureIndex creates an index over keys if it does not exist yet
func (dm *DataManager[T]) EnsureIndex(ctx context.Context, keys bson.D, unique bool) error {
	col, err := dm.collection()
	if err != nil {
		return err
	}
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(unique),
	})
	return err
}

// Invalidate drops the cached entry for query
func (dm *DataManager[T]) Invalidate(query bson.M) {
	dm.cache.Remove(dm.generateCacheKey(query))
}

// ClearCache clears the entire cache
func (dm *DataManager[T]) ClearCache() {
	dm.cache.Purge()
}

// CacheSize returns the current cache size
func (dm *DataManager[T]) CacheSize() int {
	return dm.cache.Len()
}

// PrimeCache logs that the cache is ready (caches are filled on demand)
func (dm *DataManager[T]) PrimeCache() {
	logger.System(fmt.Sprintf("Caché para '%s' preparada (tamaño máx: %d). Se llenará bajo demanda.", dm.name, dm.options.MaxCacheSize), "DataManager")
}
