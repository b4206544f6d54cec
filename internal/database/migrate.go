package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"edu-chatbot/internal/model"
)

// Migration 一次有版本号的表结构变更
type Migration struct {
	Version string
	Name    string
	Up      func(tx *gorm.DB) error
}

// schemaMigration 记录已执行的迁移
type schemaMigration struct {
	Version   string    `gorm:"primaryKey;size:32"`
	Name      string    `gorm:"size:200;not null"`
	AppliedAt time.Time `gorm:"not null"`
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// Migrations 按顺序执行的全部迁移，新增迁移只能追加在末尾
var Migrations = []Migration{
	{
		Version: "20241001000001",
		Name:    "create chat_messages",
		Up: func(tx *gorm.DB) error {
			return tx.Migrator().CreateTable(&model.ChatTurn{})
		},
	},
}

// Migrate 执行尚未执行过的迁移
// 每个迁移和它的记录在同一个事务中提交
func Migrate(ctx context.Context, db *gorm.DB, migrations []Migration, log *zap.Logger) error {
	db = db.WithContext(ctx)

	if err := db.AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	done, err := applied(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}

		log.Info("applying migration", zap.String("version", m.Version), zap.String("name", m.Name))
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{
				Version:   m.Version,
				Name:      m.Name,
				AppliedAt: time.Now().UTC(),
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s (%s) failed: %w", m.Version, m.Name, err)
		}
	}

	log.Info("database migrations completed", zap.Int("total", len(migrations)), zap.Int("previously_applied", len(done)))
	return nil
}

// Applied 返回已执行的迁移版本
// schema_migrations 不存在时返回空集合
func Applied(ctx context.Context, db *gorm.DB) (map[string]bool, error) {
	db = db.WithContext(ctx)
	if !db.Migrator().HasTable(&schemaMigration{}) {
		return map[string]bool{}, nil
	}
	return applied(db)
}

func applied(db *gorm.DB) (map[string]bool, error) {
	var rows []schemaMigration
	if err := db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load applied migrations: %w", err)
	}
	done := make(map[string]bool, len(rows))
	for _, m := range rows {
		done[m.Version] = true
	}
	return done, nil
}
