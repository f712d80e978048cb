package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// NotificationsModule reads and acknowledges in-app notifications.
type NotificationsModule struct {
	base
}

// List returns the notifications targeting the caller, newest first.
func (m *NotificationsModule) List(ctx context.Context) ([]models.Notification, error) {
	const op = "notifications.List"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodGet,
		Path:   "/notifications",
	})

	var out []models.Notification
	if err == nil {
		err = decodePayload(op, env, "notifications", &out)
	}
	if err == nil {
		return out, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		return m.stores.Notifications.ListFor(m.identity()), nil
	}
	return nil, apierr.Wrap(op, err)
}

// MarkRead flags one notification as read. Marking an already-read
// notification succeeds and returns it unchanged.
func (m *NotificationsModule) MarkRead(ctx context.Context, id string) (models.Notification, error) {
	const op = "notifications.MarkRead"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   fmt.Sprintf("/notifications/%s/read", id),
	})

	var updated models.Notification
	if err == nil {
		err = decodePayload(op, env, "notification", &updated)
	}
	if err == nil {
		m.invalidate(op)
		return updated, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		updated, storeErr := m.stores.Notifications.MarkRead(id)
		if storeErr != nil {
			return models.Notification{}, apierr.Wrap(op, storeErr)
		}
		m.invalidate(op)
		return updated, nil
	}
	return models.Notification{}, apierr.Wrap(op, err)
}

// MarkAllRead flags every notification targeting the caller and
// returns how many changed state.
func (m *NotificationsModule) MarkAllRead(ctx context.Context) (int, error) {
	const op = "notifications.MarkAllRead"

	env, err := m.client.Do(ctx, transport.Request{
		Method: http.MethodPatch,
		Path:   "/notifications/read-all",
	})

	var count int
	if err == nil {
		err = decodePayload(op, env, "updated", &count)
	}
	if err == nil {
		m.invalidate(op)
		return count, nil
	}

	if m.canFallBack(err) {
		m.fellBack(op, err)
		count := m.stores.Notifications.MarkAllRead(m.identity())
		m.invalidate(op)
		return count, nil
	}
	return 0, apierr.Wrap(op, err)
}
