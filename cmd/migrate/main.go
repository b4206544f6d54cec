// Package main 单独执行数据库迁移
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"edu-chatbot/internal/config"
	"edu-chatbot/internal/database"
	"edu-chatbot/internal/logger"
	"edu-chatbot/internal/model"
	"edu-chatbot/internal/repository"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the chat_messages schema",
		// 不带子命令时等同于 up
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), up)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./configs", "config directory")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), up)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "List migrations and whether they are applied",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), status)
		},
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func withDB(ctx context.Context, fn func(context.Context, *gorm.DB, *zap.Logger) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.Database, "release", zlog)
	if err != nil {
		zlog.Error("open database", zap.Error(err))
		return err
	}
	defer database.Close(db)

	if err := fn(ctx, db, zlog); err != nil {
		zlog.Error("migrate failed", zap.Error(err))
		return err
	}
	return nil
}

func up(ctx context.Context, db *gorm.DB, zlog *zap.Logger) error {
	return database.Migrate(ctx, db, database.Migrations, zlog)
}

func status(ctx context.Context, db *gorm.DB, _ *zap.Logger) error {
	applied, err := database.Applied(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range database.Migrations {
		state := "pending"
		if applied[m.Version] {
			state = "applied"
		}
		fmt.Printf("%s  %-8s %s\n", m.Version, state, m.Name)
	}

	if db.WithContext(ctx).Migrator().HasTable(&model.ChatTurn{}) {
		count, err := repository.NewChatTurnRepository(db).Count(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("chat_messages: %d rows\n", count)
	}
	return nil
}
