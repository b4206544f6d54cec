package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeforeCreateFillsIDAndTimestamp(t *testing.T) {
	before := time.Now().UTC()
	turn := &ChatTurn{UserMessage: "hi", BotResponse: "hello"}

	require.NoError(t, turn.BeforeCreate(nil))

	assert.NotEqual(t, uuid.Nil, turn.ID)
	assert.Equal(t, uuid.Version(7), turn.ID.Version())
	assert.False(t, turn.Timestamp.Before(before))
	assert.Equal(t, time.UTC, turn.Timestamp.Location())
}

func TestBeforeCreateKeepsExplicitValues(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	turn := &ChatTurn{ID: id, Timestamp: ts}

	require.NoError(t, turn.BeforeCreate(nil))

	assert.Equal(t, id, turn.ID)
	assert.Equal(t, ts, turn.Timestamp)
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "chat_messages", ChatTurn{}.TableName())
}
