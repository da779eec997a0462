package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xandme/xandme-backend/internal/domain"
)

func newIdempotencyDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("idempotency_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestCreateIdempotency_ThenGet(t *testing.T) {
	db := newIdempotencyDB(t)
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "u1", "contact:ex_1", "key-1", "cr_42", 201, time.Hour)
	if err != nil {
		t.Fatalf("CreateIdempotency: %v", err)
	}
	if rec.ResultID != "cr_42" || rec.Status != 201 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	got, err := GetIdempotency(ctx, db, "u1", "contact:ex_1", "key-1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.ResultID != "cr_42" {
		t.Fatalf("lookup mismatch: %+v", got)
	}
}

func TestCreateIdempotency_DuplicateTuple(t *testing.T) {
	db := newIdempotencyDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "s", "k", "r1", 201, time.Hour); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := CreateIdempotency(ctx, db, "u1", "s", "k", "r2", 201, time.Hour)
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	// Different scope, same key: allowed.
	if _, err := CreateIdempotency(ctx, db, "u1", "other", "k", "r3", 201, time.Hour); err != nil {
		t.Fatalf("distinct scope: %v", err)
	}
}

func TestGetIdempotency_ExpiredAndBlankScope(t *testing.T) {
	db := newIdempotencyDB(t)
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u1", "s", "k", "r1", 201, time.Millisecond); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := GetIdempotency(ctx, db, "u1", "s", "k", time.Now().UTC().Add(time.Second))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record should be ErrNotFound, got %v", err)
	}

	if _, err := GetIdempotency(ctx, db, "u1", "  ", "k", time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("blank scope should be ErrNotFound, got %v", err)
	}
}
