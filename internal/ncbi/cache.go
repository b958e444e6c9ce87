package ncbi

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"gopkg.in/vmihailenco/msgpack.v2"
)

// DefaultTTL is how long a fetched record is served from the cache.
const DefaultTTL = 7 * 24 * time.Hour

var bucketRecords = []byte("genbank")

type cachedEntry struct {
	Record      string `msgpack:"record"`
	RetrievedAt int64  `msgpack:"retrieved_at"`
}

// Cache stores fetched flat files keyed by accession in a bbolt database.
// A zero TTL keeps entries forever.
type Cache struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// DefaultCachePath returns a per-user location for the cache database.
func DefaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		p := filepath.Join(dir, "genex")
		if err := os.MkdirAll(p, 0o755); err == nil {
			return filepath.Join(p, "ncbi_cache.db")
		}
	}
	return filepath.Join(os.TempDir(), "genex_ncbi_cache.db")
}

// OpenCache opens (or creates) the cache database at path.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("ncbi: open cache %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ncbi: init cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached flat file for accession if present and fresh.
func (c *Cache) Get(accession string) (string, bool, error) {
	var e cachedEntry
	found := false
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketRecords).Get([]byte(accession))
		if data == nil {
			return nil
		}
		found = true
		return msgpack.Unmarshal(data, &e)
	})
	if err != nil {
		return "", false, fmt.Errorf("ncbi: cache get %s: %w", accession, err)
	}
	if !found {
		return "", false, nil
	}
	if c.ttl > 0 && c.now().Unix()-e.RetrievedAt > int64(c.ttl/time.Second) {
		return "", false, nil
	}
	return e.Record, true, nil
}

// Put stores record under accession, stamped with the current time.
func (c *Cache) Put(accession, record string) error {
	if accession == "" || record == "" {
		return nil
	}
	data, err := msgpack.Marshal(cachedEntry{Record: record, RetrievedAt: c.now().Unix()})
	if err != nil {
		return fmt.Errorf("ncbi: encode cache entry: %w", err)
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Put([]byte(accession), data)
	})
}

// Close releases the database file lock.
func (c *Cache) Close() error { return c.db.Close() }
