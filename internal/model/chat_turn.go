// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatTurn 一轮对话
// 对应数据库表 chat_messages
// 只追加写入，写入后不会被更新或删除
type ChatTurn struct {
	// ID 由服务端生成的 UUID v7，按时间递增，用于同一时间戳下的排序
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// UserMessage 用户发送的消息
	UserMessage string `gorm:"type:text;not null" json:"user_message"`

	// BotResponse 模型返回的回复
	// 只有模型调用成功后才会写入记录，所以不允许为空
	BotResponse string `gorm:"type:text;not null" json:"bot_response"`

	// Timestamp 写入时间（UTC），写入后不可修改
	Timestamp time.Time `gorm:"column:timestamp;type:timestamptz;not null;index:idx_chat_messages_timestamp,sort:desc;<-:create" json:"timestamp"`
}

// TableName 指定表名
func (ChatTurn) TableName() string {
	return "chat_messages"
}

// BeforeCreate 在插入前补齐 ID 和时间戳
func (t *ChatTurn) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		t.ID = id
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	return nil
}
