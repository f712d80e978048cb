package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/kvstore"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// AIModule is the health assistant. Conversation history is kept per
// (user, role) and persisted through the key-value store so it
// survives restarts.
type AIModule struct {
	base
	storage kvstore.Store
}

// Chat sends a message to the assistant and returns its reply. Both
// turns are appended to the persisted history.
func (m *AIModule) Chat(ctx context.Context, message string) (models.AIMessage, error) {
	const op = "ai.Chat"

	if strings.TrimSpace(message) == "" {
		return models.AIMessage{}, apierr.Validation(op, "message is required")
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/ai/chat",
		Body:   map[string]any{"message": message},
	})

	var replyText string
	if err == nil {
		replyText, err = stringField(op, env, "reply")
	}
	if err != nil {
		if !m.canFallBack(err) {
			return models.AIMessage{}, apierr.Wrap(op, err)
		}
		m.fellBack(op, err)
		replyText = m.stores.AI.Reply(message)
	}

	now := time.Now().UTC()
	reply := models.AIMessage{Role: "assistant", Content: replyText, At: now}
	m.appendHistory(ctx, op,
		models.AIMessage{Role: "user", Content: message, At: now},
		reply)
	return reply, nil
}

// History returns the persisted conversation for the current identity,
// oldest first. A user with no history gets an empty slice.
func (m *AIModule) History(ctx context.Context) ([]models.AIMessage, error) {
	const op = "ai.History"

	turns, err := m.loadHistory(ctx)
	if err != nil {
		return nil, apierr.Wrap(op, err)
	}
	return turns, nil
}

// ClearHistory drops the persisted conversation for the current
// identity. Clearing an absent history succeeds.
func (m *AIModule) ClearHistory(ctx context.Context) error {
	const op = "ai.ClearHistory"

	if err := m.storage.Delete(ctx, m.historyKey()); err != nil {
		return apierr.Wrap(op, err)
	}
	return nil
}

func (m *AIModule) historyKey() string {
	id := m.identity()
	return kvstore.AIHistoryKey(id.UserID, string(id.Role))
}

func (m *AIModule) loadHistory(ctx context.Context) ([]models.AIMessage, error) {
	raw, err := m.storage.Get(ctx, m.historyKey())
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return []models.AIMessage{}, nil
	}
	if err != nil {
		return nil, err
	}

	var turns []models.AIMessage
	if err := json.Unmarshal(raw, &turns); err != nil {
		// A corrupt blob is not worth surfacing to the UI. Start over.
		m.logger.Warn("discarding unreadable assistant history", "error", err)
		return []models.AIMessage{}, nil
	}
	return turns, nil
}

// appendHistory persists new turns best-effort. A storage failure is
// logged, not returned: the reply already happened.
func (m *AIModule) appendHistory(ctx context.Context, op string, turns ...models.AIMessage) {
	history, err := m.loadHistory(ctx)
	if err != nil {
		m.logger.Warn("assistant history unavailable", "op", op, "error", err)
		history = nil
	}
	history = append(history, turns...)

	raw, err := json.Marshal(history)
	if err != nil {
		m.logger.Warn("assistant history not serializable", "op", op, "error", err)
		return
	}
	if err := m.storage.Set(ctx, m.historyKey(), raw); err != nil {
		m.logger.Warn("assistant history not persisted", "op", op, "error", err)
	}
}
