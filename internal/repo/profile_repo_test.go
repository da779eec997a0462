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

func newProfileRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("profile_repo_test_%d.db", time.Now().UnixNano()))
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
	if err := db.AutoMigrate(&domain.Profile{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestUpsertProfile_CreatesWithZeroCredits(t *testing.T) {
	db := newProfileRepoDB(t)

	p, err := UpsertProfile(context.Background(), db, "u1", "a@b.fr", "+33600000000")
	if err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if p.Credits != 0 || p.Email != "a@b.fr" || p.Phone != "+33600000000" {
		t.Fatalf("unexpected profile: %+v", p)
	}
}

func TestUpsertProfile_UpdateKeepsCreditsAndSkipsEmptyFields(t *testing.T) {
	db := newProfileRepoDB(t)

	if _, err := UpsertProfile(context.Background(), db, "u1", "a@b.fr", "+33600000000"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Grant some credits out of band.
	if err := db.Model(&domain.Profile{}).Where("user_id = ?", "u1").
		Update("credits", 3).Error; err != nil {
		t.Fatalf("seed credits: %v", err)
	}

	// Empty phone must leave the stored phone alone; credits must survive.
	p, err := UpsertProfile(context.Background(), db, "u1", "new@b.fr", "")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if p.Email != "new@b.fr" {
		t.Fatalf("email not updated: %+v", p)
	}
	if p.Phone != "+33600000000" {
		t.Fatalf("phone should be untouched: %+v", p)
	}
	if p.Credits != 3 {
		t.Fatalf("credits must not be reset by upsert: %+v", p)
	}
}

func TestDebitCredit_SucceedsThenRefusesAtZero(t *testing.T) {
	db := newProfileRepoDB(t)

	if _, err := UpsertProfile(context.Background(), db, "u1", "", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.Model(&domain.Profile{}).Where("user_id = ?", "u1").
		Update("credits", 1).Error; err != nil {
		t.Fatalf("seed credits: %v", err)
	}

	ok, err := DebitCredit(context.Background(), db, "u1")
	if err != nil || !ok {
		t.Fatalf("first debit should succeed: ok=%v err=%v", ok, err)
	}
	ok, err = DebitCredit(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("second debit errored: %v", err)
	}
	if ok {
		t.Fatalf("debit at zero balance must report false")
	}

	p, err := GetProfile(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Credits != 0 {
		t.Fatalf("balance must stay at zero, got %d", p.Credits)
	}
}

func TestDebitCredit_MissingProfile(t *testing.T) {
	db := newProfileRepoDB(t)

	ok, err := DebitCredit(context.Background(), db, "ghost")
	if err != nil {
		t.Fatalf("DebitCredit: %v", err)
	}
	if ok {
		t.Fatalf("debit without a profile must report false")
	}
}

func TestAddCredit(t *testing.T) {
	db := newProfileRepoDB(t)

	if _, err := UpsertProfile(context.Background(), db, "u1", "", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := AddCredit(context.Background(), db, "u1"); err != nil {
			t.Fatalf("AddCredit #%d: %v", i, err)
		}
	}
	p, err := GetProfile(context.Background(), db, "u1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Credits != 3 {
		t.Fatalf("expected 3 credits, got %d", p.Credits)
	}

	if err := AddCredit(context.Background(), db, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing profile, got %v", err)
	}
}

func TestDeleteProfile_IdempotentOnMissing(t *testing.T) {
	db := newProfileRepoDB(t)

	if _, err := UpsertProfile(context.Background(), db, "u1", "", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := DeleteProfile(context.Background(), db, "u1"); err != nil {
		t.Fatalf("DeleteProfile: %v", err)
	}
	if _, err := GetProfile(context.Background(), db, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("profile should be gone, got %v", err)
	}
	// Second delete is a no-op, not an error.
	if err := DeleteProfile(context.Background(), db, "u1"); err != nil {
		t.Fatalf("repeat DeleteProfile: %v", err)
	}
}
