package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessages_PostAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")

	quest := env.quest(t, questRequest("alice", 10, 0))
	other := env.quest(t, questRequest("alice", 10, 0))

	texts := []string{"on my way", "at the lab", "got them"}
	for _, text := range texts {
		_, err := env.messages.Post(ctx, quest.ID, "bob", text)
		require.NoError(t, err)
	}
	_, err := env.messages.Post(ctx, other.ID, "alice", "unrelated")
	require.NoError(t, err)

	messages, err := env.messages.List(ctx, quest.ID)
	require.NoError(t, err)
	require.Len(t, messages, len(texts))
	for i, msg := range messages {
		assert.Equal(t, texts[i], msg.Text)
		assert.Equal(t, quest.ID, msg.QuestID)
	}
}

func TestMessages_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "alice")
	quest := env.quest(t, questRequest("alice", 10, 0))

	_, err := env.messages.Post(ctx, quest.ID, "bob", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = env.messages.Post(ctx, uuid.New(), "bob", "hello?")
	assert.ErrorIs(t, err, ErrQuestNotFound)

	messages, err := env.messages.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, messages)
}
