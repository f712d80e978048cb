package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// ChatModule covers patient/doctor message threads.
type ChatModule struct {
	base
}

// Threads lists the caller's conversation threads, most recent first.
func (m *ChatModule) Threads(ctx context.Context) ([]models.ChatThread, error) {
	const op = "chat.Threads"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/threads",
	})

	var out []models.ChatThread
	if err == nil {
		err = decodePayload(op, env, "threads", &out)
	}
	if err == nil {
		return out, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		return m.stores.Chat.ThreadsFor(m.identity()), nil
	}
	return nil, apierr.Wrap(op, err)
}

// CreateThread opens a new conversation.
func (m *ChatModule) CreateThread(ctx context.Context, req models.CreateThreadRequest) (models.ChatThread, error) {
	const op = "chat.CreateThread"

	if err := req.Validate(); err != nil {
		return models.ChatThread{}, apierr.Validation(op, err.Error())
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   "/threads",
		Body:   req,
	})

	var created models.ChatThread
	if err == nil {
		err = decodePayload(op, env, "thread", &created)
	}
	if err == nil {
		m.invalidate(op)
		return created, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		created, storeErr := m.stores.Chat.CreateThread(m.identity(), req)
		if storeErr != nil {
			return models.ChatThread{}, apierr.Wrap(op, storeErr)
		}
		m.invalidate(op)
		return created, nil
	}
	return models.ChatThread{}, apierr.Wrap(op, err)
}

// Messages returns the messages of one thread in send order.
func (m *ChatModule) Messages(ctx context.Context, threadID string) ([]models.ChatMessage, error) {
	const op = "chat.Messages"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/threads/%s/messages", threadID),
	})

	var out []models.ChatMessage
	if err == nil {
		err = decodePayload(op, env, "messages", &out)
	}
	if err == nil {
		return out, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		msgs, storeErr := m.stores.Chat.Messages(threadID)
		if storeErr != nil {
			return nil, apierr.Wrap(op, storeErr)
		}
		return msgs, nil
	}
	return nil, apierr.Wrap(op, err)
}

// Send appends a message to a thread as the caller.
func (m *ChatModule) Send(ctx context.Context, threadID string, req models.SendMessageRequest) (models.ChatMessage, error) {
	const op = "chat.Send"

	if err := req.Validate(); err != nil {
		return models.ChatMessage{}, apierr.Validation(op, err.Error())
	}

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/threads/%s/messages", threadID),
		Body:   req,
	})

	var sent models.ChatMessage
	if err == nil {
		err = decodePayload(op, env, "message", &sent)
	}
	if err == nil {
		m.invalidate(op, MessagesKey(threadID))
		return sent, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		sent, storeErr := m.stores.Chat.Append(threadID, m.identity(), req.Body)
		if storeErr != nil {
			return models.ChatMessage{}, apierr.Wrap(op, storeErr)
		}
		m.invalidate(op, MessagesKey(threadID))
		return sent, nil
	}
	return models.ChatMessage{}, apierr.Wrap(op, err)
}
