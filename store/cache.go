package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"milkbook/models"
)

// Cache is the durable on-device mirror of each owner's dataset. One badger
// key holds the whole serialized AppData aggregate for an owner, so a save
// always replaces the full document.
type Cache struct {
	db *badger.DB
}

// OpenCache opens (or creates) the cache directory.
func OpenCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache at %s: %w", dir, err)
	}
	return &Cache{db: db}, nil
}

// OpenCacheInMemory opens a cache that lives only for the process. Used by
// tests.
func OpenCacheInMemory() (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying badger database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func cacheKey(userID string) []byte {
	return []byte("appdata/" + userID)
}

// Load reads the cached dataset for an owner. The second return value is
// false when no slot exists yet; the returned AppData is then empty.
func (c *Cache) Load(userID string) (models.AppData, bool, error) {
	var data models.AppData
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &data); err != nil {
				return fmt.Errorf("decode cached dataset: %w", err)
			}
			found = true
			return nil
		})
	})
	if err != nil {
		return models.AppData{}, false, err
	}
	return data, found, nil
}

// Save overwrites the owner's slot with the given dataset.
func (c *Cache) Save(userID string, data models.AppData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cacheKey(userID), raw)
	})
}
