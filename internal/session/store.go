// Package session keeps per-session conversation history in Redis so the
// pipeline can see recent turns without any server-side state.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"planiq/internal/common/config"
	pherrors "planiq/internal/common/errors"
	"planiq/internal/common/logger"
	"planiq/internal/models"
)

const keyPrefix = "planiq:session:"

// Store is a capped, expiring conversation log per session ID.
type Store struct {
	client   *redis.Client
	ttl      time.Duration
	maxTurns int
	logger   logger.Logger
}

func NewStore(client *redis.Client, cfg config.SessionConfig, log logger.Logger) *Store {
	return &Store{
		client:   client,
		ttl:      time.Duration(cfg.TTL) * time.Second,
		maxTurns: cfg.MaxTurns,
		logger: log.WithFields(map[string]interface{}{
			"component": "session-store",
		}),
	}
}

// History returns the session's turns oldest first. A missing session is an
// empty history, and a Redis failure degrades the same way: history is an
// enhancement, never a prerequisite.
func (s *Store) History(ctx context.Context, sessionID string) []models.ConversationTurn {
	if sessionID == "" {
		return nil
	}

	raw, err := s.client.LRange(ctx, keyPrefix+sessionID, 0, -1).Result()
	if err != nil && err != redis.Nil {
		s.logger.Warn("history lookup degraded to empty", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return nil
	}

	turns := make([]models.ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn models.ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns
}

// Append records one completed turn, trims the log to the newest maxTurns
// entries, and refreshes the TTL.
func (s *Store) Append(ctx context.Context, sessionID string, turn models.ConversationTurn) error {
	if sessionID == "" {
		return nil
	}

	encoded, err := json.Marshal(turn)
	if err != nil {
		return pherrors.NewSessionStoreError(err.Error())
	}

	key := keyPrefix + sessionID
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, encoded)
	pipe.LTrim(ctx, key, int64(-s.maxTurns), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return pherrors.NewSessionStoreError(fmt.Sprintf("session %s: %s", sessionID, err))
	}
	return nil
}

// Clear drops a session's history.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return pherrors.NewSessionStoreError(err.Error())
	}
	return nil
}
