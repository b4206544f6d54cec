// Package main 是服务端的入口点
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"edu-chatbot/internal/config"
	"edu-chatbot/internal/database"
	"edu-chatbot/internal/handler"
	"edu-chatbot/internal/llm"
	"edu-chatbot/internal/logger"
	"edu-chatbot/internal/middleware"
	"edu-chatbot/internal/repository"
	"edu-chatbot/internal/service"
)

func main() {
	// 加载配置
	cfg, err := config.Load("./configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited with error", zap.Error(err))
	}
	zlog.Info("server exited")
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	// 初始化数据库
	db, err := database.Open(cfg.Database, cfg.Server.Mode, zlog)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			zlog.Warn("failed to close database", zap.Error(err))
		}
	}()

	// 执行未应用的迁移
	if err := database.Migrate(context.Background(), db, database.Migrations, zlog); err != nil {
		return err
	}

	// 初始化模型服务
	provider, err := llm.New(context.Background(), cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to init llm provider: %w", err)
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	zlog.Info("llm provider ready", zap.String("provider", provider.Name()))

	// 初始化 Repository 层
	turnRepo := repository.NewChatTurnRepository(db)

	// 初始化 Service 层
	chatService := service.NewChatService(provider, cfg.Chat.SystemPrompt, cfg.LLM.Timeout, zlog)
	historyService := service.NewHistoryService(turnRepo, cfg.History.MaxLimit, zlog)

	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.Server.CORS) > 0 {
		cors.AllowOrigins = cfg.Server.CORS
	}

	router := handler.NewRouter(zlog, cors,
		handler.NewChatHandler(chatService, historyService, cfg.Chat.ContextTurns, zlog),
		handler.NewHistoryHandler(historyService, cfg.History.DefaultLimit),
		handler.NewHealthHandler(func(ctx context.Context) error { return database.Ping(ctx, db) }, zlog),
	)

	return serve(cfg.Server, router, zlog)
}

// serve 启动 HTTP 服务器，收到 SIGINT/SIGTERM 后优雅关闭
func serve(cfg config.ServerConfig, router http.Handler, zlog *zap.Logger) error {
	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server starting", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		zlog.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
