// File: internal/repository/message/message_repository_test.go
package message

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/navidsh/go-ragchat/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Chat{}, &domain.Message{}, &domain.Attachment{}))
	return db
}

func seedChat(t *testing.T, db *gorm.DB, chatID string) {
	t.Helper()
	require.NoError(t, db.Create(&domain.Chat{
		ID:         chatID,
		UserID:     1,
		Title:      "seed",
		Visibility: domain.VisibilityPrivate,
	}).Error)
}

func TestCreateWithTitleUpdatesChat(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1")
	repo := NewMessageRepository(db)

	msg, err := repo.CreateWithTitle(context.Background(), &domain.Message{
		ChatID:  "chat-1",
		Role:    domain.RoleUser,
		Content: "hello",
	}, "new title")

	require.NoError(t, err)
	assert.NotZero(t, msg.ID)

	var record domain.Chat
	require.NoError(t, db.First(&record, "id = ?", "chat-1").Error)
	assert.Equal(t, "new title", record.Title)
}

func TestCreateWithTitleRollsBackOnMissingChat(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)

	_, err := repo.CreateWithTitle(context.Background(), &domain.Message{
		ChatID:  "no-such-chat",
		Role:    domain.RoleUser,
		Content: "hello",
	}, "title")
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&domain.Message{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFindRecentBeforeWindowAndOrder(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1")
	repo := NewMessageRepository(db)

	var ids []uint
	for i := 0; i < 25; i++ {
		msg, err := repo.Create(context.Background(), &domain.Message{
			ChatID:  "chat-1",
			Role:    domain.RoleUser,
			Content: fmt.Sprintf("message %d", i),
		})
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	// Window of 10 before the last message: messages 14..23, oldest first.
	recent, err := repo.FindRecentBefore(context.Background(), "chat-1", ids[24], 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, "message 14", recent[0].Content)
	assert.Equal(t, "message 23", recent[9].Content)

	for i := 1; i < len(recent); i++ {
		assert.Greater(t, recent[i].ID, recent[i-1].ID)
	}
}

func TestFindRecentBeforeClampsBadLimit(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1")
	repo := NewMessageRepository(db)

	var lastID uint
	for i := 0; i < 30; i++ {
		msg, err := repo.Create(context.Background(), &domain.Message{
			ChatID:  "chat-1",
			Role:    domain.RoleAssistant,
			Content: "m",
		})
		require.NoError(t, err)
		lastID = msg.ID
	}

	recent, err := repo.FindRecentBefore(context.Background(), "chat-1", lastID+1, 0)
	require.NoError(t, err)
	assert.Len(t, recent, 20)

	recent, err = repo.FindRecentBefore(context.Background(), "chat-1", lastID+1, 500)
	require.NoError(t, err)
	assert.Len(t, recent, 20)
}

func TestDeleteScopedToChat(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1")
	seedChat(t, db, "chat-2")
	repo := NewMessageRepository(db)

	msg, err := repo.Create(context.Background(), &domain.Message{
		ChatID: "chat-1", Role: domain.RoleUser, Content: "mine",
	})
	require.NoError(t, err)

	// Wrong chat id must not delete the message.
	err = repo.Delete(context.Background(), msg.ID, "chat-2")
	assert.ErrorIs(t, err, ErrUnauthorizedMessageAccess)

	require.NoError(t, repo.Delete(context.Background(), msg.ID, "chat-1"))
}

func TestAddAttachment(t *testing.T) {
	db := newTestDB(t)
	seedChat(t, db, "chat-1")
	repo := NewMessageRepository(db)

	msg, err := repo.Create(context.Background(), &domain.Message{
		ChatID: "chat-1", Role: domain.RoleUser, Content: "with file",
	})
	require.NoError(t, err)

	require.NoError(t, repo.AddAttachment(context.Background(), &domain.Attachment{
		MessageID: msg.ID,
		Type:      "image/png",
		Content:   "/storage/attachments/1/scan.png",
	}))

	stored, err := repo.FindByID(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Len(t, stored.Attachments, 1)
	assert.Equal(t, "image/png", stored.Attachments[0].Type)
}
