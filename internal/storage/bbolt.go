package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pasco/internal/attempts"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const FileName = "attempts.db"

// lockTimeout bounds the wait for another process holding the database
var lockTimeout = 5 * time.Second

// Bucket names
var (
	ConfigBucket   = []byte("config")   // version, created, device id
	AttemptsBucket = []byte("attempts") // fingerprint -> attempts.Record
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigDeviceID = []byte("device_id")
)

var (
	ErrNotInitialized = errors.New("storage not initialized")
	ErrBusy           = errors.New("attempt database is in use by another process")
)

// Storage provides BBolt-based storage for attempt counters
type Storage struct {
	db *bolt.DB
}

var _ attempts.Store = (*Storage)(nil)

// Open opens or creates the database at path and makes sure the bucket
// structure exists.
func Open(path string) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: lockTimeout})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("%w: %s", ErrBusy, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

func (s *Storage) initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, AttemptsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}

		if err := config.Put(ConfigVersion, []byte("1")); err != nil {
			return err
		}
		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigDeviceID, []byte(uuid.NewString()))
	})
}

// DeviceID returns the random identifier generated when this database was
// created. It never leaves the device.
func (s *Storage) DeviceID() (string, error) {
	var id string
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigDeviceID)
		if data == nil {
			return fmt.Errorf("device_id not found")
		}
		parsed, err := uuid.ParseBytes(data)
		if err != nil {
			return fmt.Errorf("corrupt device_id: %w", err)
		}
		id = parsed.String()
		return nil
	})
	return id, err
}

// Created returns the database creation time
func (s *Storage) Created() (time.Time, error) {
	var created time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return ErrNotInitialized
		}
		data := config.Get(ConfigCreated)
		if data == nil {
			return fmt.Errorf("created time not found")
		}
		return created.UnmarshalBinary(data)
	})
	return created, err
}

func readRecord(bucket *bolt.Bucket, fingerprint string) (attempts.Record, error) {
	record := attempts.Record{Fingerprint: fingerprint}
	data := bucket.Get([]byte(fingerprint))
	if data == nil {
		return record, nil
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("corrupt attempt record for %s: %w", fingerprint, err)
	}
	record.Fingerprint = fingerprint
	return record, nil
}

// Update implements attempts.Store. fn runs inside the write transaction.
func (s *Storage) Update(ctx context.Context, fingerprint string, fn func(attempts.Record) (attempts.Record, error)) (attempts.Record, error) {
	if err := ctx.Err(); err != nil {
		return attempts.Record{}, err
	}

	var (
		result attempts.Record
		fnErr  error
	)
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(AttemptsBucket)
		if bucket == nil {
			return ErrNotInitialized
		}

		current, err := readRecord(bucket, fingerprint)
		if err != nil {
			return err
		}

		result, fnErr = fn(current)
		if fnErr != nil {
			// Roll back; nothing was written
			return fnErr
		}
		result.Fingerprint = fingerprint

		if result.Failures <= 0 {
			result = attempts.Record{Fingerprint: fingerprint}
			return bucket.Delete([]byte(fingerprint))
		}

		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(fingerprint), data)
	})
	if fnErr != nil {
		return result, fnErr
	}
	if err != nil {
		return attempts.Record{}, fmt.Errorf("failed to update attempts: %w", err)
	}
	return result, nil
}

// Get implements attempts.Store.
func (s *Storage) Get(ctx context.Context, fingerprint string) (attempts.Record, error) {
	if err := ctx.Err(); err != nil {
		return attempts.Record{}, err
	}

	var record attempts.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(AttemptsBucket)
		if bucket == nil {
			return ErrNotInitialized
		}
		var err error
		record, err = readRecord(bucket, fingerprint)
		return err
	})
	return record, err
}

// List implements attempts.Store. Records come back in fingerprint order.
func (s *Storage) List(ctx context.Context) ([]attempts.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []attempts.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(AttemptsBucket)
		if bucket == nil {
			return ErrNotInitialized
		}
		return bucket.ForEach(func(k, v []byte) error {
			var record attempts.Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("corrupt attempt record for %s: %w", k, err)
			}
			record.Fingerprint = string(k)
			records = append(records, record)
			return nil
		})
	})
	return records, err
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after many counters were reset.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	// Create new database
	dst, err := bolt.Open(tmpPath, 0600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("failed to create compact database: %w", err)
	}

	// Copy all buckets
	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy data: %w", err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close compact database: %w", err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close source database: %w", err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return fmt.Errorf("failed to backup original: %w", err)
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return fmt.Errorf("failed to replace database: %w", err)
	}
	os.Remove(backupPath)

	// Reopen database
	s.db, err = bolt.Open(srcPath, 0600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("failed to reopen database: %w", err)
	}

	return nil
}
