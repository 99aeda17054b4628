// Package cache persists local content digests between runs so repeated
// content diffs do not re-read unchanged files.
//
// Entries are keyed by absolute path and are only returned when the file's
// size and modification time still match what was recorded.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "digests"

// Entry is the stored state for one file.
type Entry struct {
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
	Digest  string    `json:"digest"`
}

// DigestCache is a bbolt-backed digest store.
type DigestCache struct {
	db *bbolt.DB
}

// Open opens or creates the cache database at path.
func Open(path string) (*DigestCache, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open %q: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: create bucket: %w", err)
	}

	return &DigestCache{db: db}, nil
}

// Close closes the underlying database.
func (c *DigestCache) Close() error {
	return c.db.Close()
}

// Get returns the cached digest for path when size and modTime match.
func (c *DigestCache) Get(path string, size int64, modTime time.Time) (string, bool) {
	var entry Entry
	found := false

	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(path))
		if v == nil {
			return nil
		}
		if err := json.Unmarshal(v, &entry); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil || !found {
		return "", false
	}

	if entry.Size != size || !entry.ModTime.Equal(modTime) {
		return "", false
	}
	return entry.Digest, true
}

// Put records digest for path at the given size and modTime.
func (c *DigestCache) Put(path string, size int64, modTime time.Time, digest string) error {
	data, err := json.Marshal(Entry{Size: size, ModTime: modTime, Digest: digest})
	if err != nil {
		return fmt.Errorf("cache: encode %q: %w", path, err)
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(path), data)
	})
}

// Delete forgets path.
func (c *DigestCache) Delete(path string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(path))
	})
}
