package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/illarion/pasco/internal/attempts"
)

func openTestDB(t *testing.T) *Storage {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state", FileName))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func increment(r attempts.Record) (attempts.Record, error) {
	r.Failures++
	r.LastAttempt = time.Now()
	return r, nil
}

func TestOpenCreatesDeviceID(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, FileName)

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	id, err := db.DeviceID()
	if err != nil {
		t.Fatalf("Failed to get device id: %v", err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("Device id is not a UUID: %s", id)
	}
	if _, err := db.Created(); err != nil {
		t.Errorf("Failed to get created time: %v", err)
	}
	db.Close()

	// Reopening keeps the same identity
	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()
	again, err := db.DeviceID()
	if err != nil {
		t.Fatalf("Failed to get device id: %v", err)
	}
	if again != id {
		t.Errorf("Device id changed on reopen: %s -> %s", id, again)
	}
}

func TestAttemptRecordsPersist(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), FileName)

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := db.Update(ctx, "abc", increment); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	record, err := db.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Failures != 3 {
		t.Errorf("Failures mismatch: got %d, want 3", record.Failures)
	}
	if record.Fingerprint != "abc" {
		t.Errorf("Fingerprint mismatch: got %s", record.Fingerprint)
	}
	if record.LastAttempt.IsZero() {
		t.Error("LastAttempt should be set")
	}
}

func TestUpdateZeroDeletes(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if _, err := db.Update(ctx, "abc", increment); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := db.Update(ctx, "def", increment); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	_, err := db.Update(ctx, "abc", func(attempts.Record) (attempts.Record, error) {
		return attempts.Record{}, nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	records, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 || records[0].Fingerprint != "def" {
		t.Errorf("Expected only def, got %+v", records)
	}
}

func TestUpdateErrorRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	boom := errors.New("boom")

	_, err := db.Update(ctx, "abc", func(r attempts.Record) (attempts.Record, error) {
		r.Failures = 4
		return r, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	record, err := db.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Failures != 0 {
		t.Errorf("Rolled back update was stored: %+v", record)
	}
}

func TestUpdateHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	db := openTestDB(t)

	if _, err := db.Update(ctx, "abc", increment); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	const workers = 40
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := db.Update(ctx, "abc", increment); err != nil {
				t.Errorf("Update failed: %v", err)
			}
		}()
	}
	wg.Wait()

	record, err := db.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if record.Failures != workers {
		t.Errorf("Lost increments: got %d, want %d", record.Failures, workers)
	}
}

func TestPolicyOverStorage(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	policy := attempts.New(db)

	for i := 0; i < attempts.DefaultMaxAttempts; i++ {
		a, err := policy.Begin(ctx, "abc")
		if err != nil {
			t.Fatalf("Begin failed: %v", err)
		}
		a.Fail()
	}
	if _, err := policy.Begin(ctx, "abc"); !errors.Is(err, attempts.ErrLocked) {
		t.Errorf("Expected ErrLocked, got %v", err)
	}
}

func TestCompact(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.DeviceID()
	if err != nil {
		t.Fatalf("Failed to get device id: %v", err)
	}
	if _, err := db.Update(ctx, "abc", increment); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	record, err := db.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("Get after compact failed: %v", err)
	}
	if record.Failures != 1 {
		t.Errorf("Failures mismatch after compact: got %d, want 1", record.Failures)
	}
	again, err := db.DeviceID()
	if err != nil || again != id {
		t.Errorf("Device id changed after compact: %s -> %s (%v)", id, again, err)
	}
}

func TestOpenReportsBusyDatabase(t *testing.T) {
	saved := lockTimeout
	lockTimeout = 100 * time.Millisecond
	t.Cleanup(func() { lockTimeout = saved })

	dbPath := filepath.Join(t.TempDir(), FileName)
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// The file lock is per open file, so a second handle in this process
	// waits like another process would
	second, err := Open(dbPath)
	if err == nil {
		second.Close()
		t.Fatal("Expected second open to fail while the database is held")
	}
	if !errors.Is(err, ErrBusy) {
		t.Errorf("Expected ErrBusy, got %v", err)
	}
}
