package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var responsesBucket = []byte("responses")

// BoltCache persists entries in a single bbolt file so they survive across runs
type BoltCache struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

type boltEntry struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OpenBoltCache opens (or creates) dir/responses.db
func OpenBoltCache(dir string, ttl time.Duration) (*BoltCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "responses.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(responsesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &BoltCache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *BoltCache) Get(key string) ([]byte, bool) {
	var entry boltEntry
	found := false

	_ = c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(responsesBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		// raw is only valid inside the transaction; Unmarshal copies it
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})

	if !found {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		_ = c.Delete(key)
		return nil, false
	}
	return entry.Data, true
}

// Set stores value; a zero ttl uses the cache default
func (c *BoltCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.ttl
	}

	raw, err := json.Marshal(boltEntry{Data: value, ExpiresAt: c.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(responsesBucket).Put([]byte(key), raw)
	})
}

func (c *BoltCache) Delete(key string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(responsesBucket).Delete([]byte(key))
	})
}

func (c *BoltCache) Clear() error {
	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(responsesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(responsesBucket)
		return err
	})
}

// Close releases the database file lock
func (c *BoltCache) Close() error {
	return c.db.Close()
}
