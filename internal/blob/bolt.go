package blob

import (
	"bytes"
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	dataBucket = []byte("blobs")
	typeBucket = []byte("content_types")
)

// BoltStore keeps blobs in a single embedded bolt file.
type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{dataBucket, typeBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create blob buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Put stores data at key. Rewriting identical bytes is skipped.
func (s *BoltStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(dataBucket)
		if existing := b.Get([]byte(key)); existing != nil && bytes.Equal(existing, data) {
			return nil
		}
		if err := b.Put([]byte(key), data); err != nil {
			return fmt.Errorf("failed to put blob %s: %w", key, err)
		}
		return tx.Bucket(typeBucket).Put([]byte(key), []byte(contentType))
	})
}

func (s *BoltStore) Get(ctx context.Context, key string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var obj Object
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(dataBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		obj.Data = append([]byte(nil), v...)
		obj.ContentType = string(tx.Bucket(typeBucket).Get([]byte(key)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &obj, nil
}
