package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"edu-chatbot/internal/config"
	"edu-chatbot/internal/database"
	"edu-chatbot/internal/model"
)

// openTestDB 连接 TEST_DATABASE_URL 指向的库，未设置时跳过
// 每个测试在独立的 schema 中运行，结束后删除
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	db, err := database.Open(config.DatabaseConfig{URL: dsn, MaxIdleConns: 2, MaxOpenConns: 2, MaxLifetime: 60}, "release", zap.NewNop())
	require.NoError(t, err)

	// 单连接保证 search_path 对后续语句生效
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	schema := "test_" + time.Now().UTC().Format("20060102150405")
	require.NoError(t, db.Exec("CREATE SCHEMA "+schema).Error)
	require.NoError(t, db.Exec("SET search_path TO "+schema).Error)

	t.Cleanup(func() {
		db.Exec("DROP SCHEMA " + schema + " CASCADE")
		_ = database.Close(db)
	})

	require.NoError(t, database.Migrate(context.Background(), db, database.Migrations, zap.NewNop()))
	return db
}

func TestChatTurnRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewChatTurnRepository(db)
	ctx := context.Background()

	t.Run("empty table", func(t *testing.T) {
		turns, err := repo.ListRecent(ctx, 10)
		require.NoError(t, err)
		assert.NotNil(t, turns)
		assert.Empty(t, turns)
	})

	t.Run("newest first and bounded", func(t *testing.T) {
		for _, msg := range []string{"one", "two", "three", "four"} {
			require.NoError(t, repo.Create(ctx, &model.ChatTurn{UserMessage: msg, BotResponse: "re: " + msg}))
		}

		turns, err := repo.ListRecent(ctx, 3)
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "four", turns[0].UserMessage)
		assert.Equal(t, "three", turns[1].UserMessage)
		assert.Equal(t, "two", turns[2].UserMessage)
		for i := 1; i < len(turns); i++ {
			assert.False(t, turns[i].Timestamp.After(turns[i-1].Timestamp))
		}

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	t.Run("migrations are idempotent", func(t *testing.T) {
		assert.NoError(t, database.Migrate(ctx, db, database.Migrations, zap.NewNop()))

		applied, err := database.Applied(ctx, db)
		require.NoError(t, err)
		for _, m := range database.Migrations {
			assert.True(t, applied[m.Version], m.Version)
		}
	})
}
