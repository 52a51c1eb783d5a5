package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planiq/internal/common/config"
	"planiq/internal/common/logger"
	"planiq/internal/models"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewStore(client, config.SessionConfig{TTL: 3600, MaxTurns: 3}, logger.NewTestLogger(t))
	return store, mr
}

func TestAppendAndHistory(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first := models.ConversationTurn{
		Query:     "revenue last week",
		Answer:    "Revenue was 120k.",
		Intent:    models.IntentDataQuery,
		Timestamp: time.Date(2025, 11, 8, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Append(ctx, "sess-1", first))
	require.NoError(t, store.Append(ctx, "sess-1", models.ConversationTurn{Query: "and this week?"}))

	history := store.History(ctx, "sess-1")
	require.Len(t, history, 2)
	assert.Equal(t, "revenue last week", history[0].Query)
	assert.Equal(t, models.IntentDataQuery, history[0].Intent)
	assert.Equal(t, "and this week?", history[1].Query)
}

func TestAppendTrimsToMaxTurns(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three", "four", "five"} {
		require.NoError(t, store.Append(ctx, "sess-1", models.ConversationTurn{Query: q}))
	}

	history := store.History(ctx, "sess-1")
	require.Len(t, history, 3)
	assert.Equal(t, "three", history[0].Query)
	assert.Equal(t, "five", history[2].Query)
}

func TestAppendSetsTTL(t *testing.T) {
	store, mr := newTestStore(t)

	require.NoError(t, store.Append(context.Background(), "sess-1", models.ConversationTurn{Query: "hi"}))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"sess-1"))
}

func TestHistoryDegradesOnFailure(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", models.ConversationTurn{Query: "hi"}))
	mr.Close()

	assert.Empty(t, store.History(ctx, "sess-1"))
}

func TestEmptySessionIDIsNoOp(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Append(ctx, "", models.ConversationTurn{Query: "hi"}))
	assert.Empty(t, store.History(ctx, ""))
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "sess-1", models.ConversationTurn{Query: "hi"}))
	require.NoError(t, store.Clear(ctx, "sess-1"))
	assert.Empty(t, store.History(ctx, "sess-1"))
}
