// File: internal/services/chat/helpers_test.go
package chat

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/navidsh/go-ragchat/internal/domain"
	chatrepo "github.com/navidsh/go-ragchat/internal/repository/chat"
	messagerepo "github.com/navidsh/go-ragchat/internal/repository/message"
)

// nopLogger satisfies the chat Logger without output.
type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (nopLogger) Warn(msg string, keysAndValues ...interface{})  {}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.CompletionURL = "http://completion.invalid"
	cfg.CompletionAPIKey = "test-key"
	cfg.Model = "test-model"
	cfg.RetrievalURL = "http://retrieval.invalid"
	cfg.EnableRetrieval = false
	return cfg
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&domain.Chat{}, &domain.Message{}, &domain.Attachment{}, &domain.Document{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedChat(t *testing.T, db *gorm.DB, chatID string, userID uint) *domain.Chat {
	t.Helper()

	record, err := chatrepo.NewChatRepository(db).Create(context.Background(), &domain.Chat{
		ID:         chatID,
		UserID:     userID,
		Title:      "seed",
		Visibility: domain.VisibilityPrivate,
	})
	if err != nil {
		t.Fatalf("seed chat: %v", err)
	}
	return record
}

func seedMessage(t *testing.T, db *gorm.DB, chatID, role, content string) *domain.Message {
	t.Helper()

	msg, err := messagerepo.NewMessageRepository(db).Create(context.Background(), &domain.Message{
		ChatID:  chatID,
		Role:    role,
		Content: content,
		Date:    "2026-08-28",
	})
	if err != nil {
		t.Fatalf("seed message: %v", err)
	}
	return msg
}
