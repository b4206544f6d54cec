// Package repository 提供数据访问层的实现
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"edu-chatbot/internal/model"
)

// ChatTurnRepository 对话记录数据访问层
// 只提供追加和读取，不提供更新和删除
type ChatTurnRepository struct {
	db *gorm.DB
}

// NewChatTurnRepository 创建 ChatTurnRepository 实例
func NewChatTurnRepository(db *gorm.DB) *ChatTurnRepository {
	return &ChatTurnRepository{db: db}
}

// Create 写入一轮对话
// 参数:
//   - ctx: 上下文
//   - turn: 对话记录，ID 和 Timestamp 为空时会被自动填充
//
// 返回:
//   - error: 数据库错误
func (r *ChatTurnRepository) Create(ctx context.Context, turn *model.ChatTurn) error {
	return r.db.WithContext(ctx).Create(turn).Error
}

// ListRecent 获取最新的 N 轮对话
// 按时间倒序排列（最新的在前），同一时间戳按 ID 倒序
// 没有记录时返回空切片
func (r *ChatTurnRepository) ListRecent(ctx context.Context, limit int) ([]model.ChatTurn, error) {
	turns := make([]model.ChatTurn, 0, limit)
	err := r.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).
		Limit(limit).
		Find(&turns).Error
	return turns, err
}

// Count 统计对话总数
func (r *ChatTurnRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatTurn{}).Count(&count).Error
	return count, err
}
