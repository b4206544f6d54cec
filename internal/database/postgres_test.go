package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedLogger(level gormlogger.LogLevel) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level), logs
}

func TestGormLoggerTrace(t *testing.T) {
	sql := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("error is logged", func(t *testing.T) {
		l, logs := newObservedLogger(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))

		entries := logs.All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
			assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
			assert.Equal(t, "gorm", entries[0].LoggerName)
		}
	})

	t.Run("record not found is not an error", func(t *testing.T) {
		l, logs := newObservedLogger(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
		assert.Empty(t, logs.All())
	})

	t.Run("slow query warns", func(t *testing.T) {
		l, logs := newObservedLogger(gormlogger.Warn)
		l.Trace(context.Background(), time.Now().Add(-2*time.Second), sql, nil)

		entries := logs.All()
		if assert.Len(t, entries, 1) {
			assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		}
	})

	t.Run("fast query only at info", func(t *testing.T) {
		l, logs := newObservedLogger(gormlogger.Warn)
		l.Trace(context.Background(), time.Now(), sql, nil)
		assert.Empty(t, logs.All())

		info := l.LogMode(gormlogger.Info)
		info.Trace(context.Background(), time.Now(), sql, nil)
		assert.Len(t, logs.All(), 1)
	})

	t.Run("silent", func(t *testing.T) {
		l, logs := newObservedLogger(gormlogger.Silent)
		l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
		assert.Empty(t, logs.All())
	})
}
