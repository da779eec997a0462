package repo

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xandme/xandme-backend/internal/domain"
)

func newMessageRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("message_repo_test_%d.db", time.Now().UnixNano()))
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
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateMessage_PersistsAssistantPayload(t *testing.T) {
	db := newMessageRepoDB(t, &domain.Chat{}, &domain.Message{})

	if err := db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}

	suggestions := []string{"Quel est votre budget ?", "Dans quelle région ?"}
	experts := []domain.ExpertSummary{{IDExpert: "ex_1", Prenom: "Claire", Nom: "Durand", Ville: "Lyon"}}
	sources := []string{"https://example.fr/etude-marche"}

	m, err := CreateMessage(db, "c1", "assistant", "Voici des pistes.", suggestions, experts, sources)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if m.ID == "" || m.Role != "assistant" {
		t.Fatalf("unexpected message: %+v", m)
	}

	var got domain.Message
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.Suggestions) != 2 || got.Suggestions[0] != suggestions[0] {
		t.Fatalf("suggestions round-trip: %+v", got.Suggestions)
	}
	if len(got.SuggestedExperts) != 1 || got.SuggestedExperts[0].IDExpert != "ex_1" {
		t.Fatalf("suggested experts round-trip: %+v", got.SuggestedExperts)
	}
	if len(got.Sources) != 1 {
		t.Fatalf("sources round-trip: %+v", got.Sources)
	}
}

func TestCreateMessage_UserMessageNilExtras(t *testing.T) {
	db := newMessageRepoDB(t, &domain.Chat{}, &domain.Message{})

	if err := db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	m, err := CreateMessage(db, "c1", "user", "bonjour", nil, nil, nil)
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	var got domain.Message
	if err := db.First(&got, "id = ?", m.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Suggestions != nil || got.SuggestedExperts != nil || got.Sources != nil {
		t.Fatalf("extras should stay nil: %+v", got)
	}
}

func TestListMessages_DeterministicOrderAndLimit(t *testing.T) {
	db := newMessageRepoDB(t, &domain.Chat{}, &domain.Message{})

	if err := db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := domain.Message{
			ID: fmt.Sprintf("m%d", i), ChatID: "c1", Role: "user",
			Content: fmt.Sprintf("msg %d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed m%d: %v", i, err)
		}
	}

	all, err := ListMessages(db, "c1", 0)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(all) != 3 || all[0].ID != "m0" || all[2].ID != "m2" {
		t.Fatalf("unexpected order: %+v", all)
	}

	limited, err := ListMessages(db, "c1", 2)
	if err != nil {
		t.Fatalf("ListMessages limited: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(limited))
	}
}

func TestCountMessages_Error_NoTable(t *testing.T) {
	db := newMessageRepoDB(t /* no migrations */)
	if _, err := CountMessages(db, "c1"); err == nil {
		t.Fatalf("expected error when table missing")
	}
}

func TestListMessagesPage(t *testing.T) {
	db := newMessageRepoDB(t, &domain.Chat{}, &domain.Message{})

	if err := db.Create(&domain.Chat{ID: "c1", UserID: "u1", Title: "t"}).Error; err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	base := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := domain.Message{
			ID: fmt.Sprintf("m%d", i), ChatID: "c1", Role: "user",
			Content: "x", CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	page, err := ListMessagesPage(db, "c1", 2, 2)
	if err != nil {
		t.Fatalf("ListMessagesPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "m2" || page[1].ID != "m3" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
