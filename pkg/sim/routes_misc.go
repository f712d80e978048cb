package sim

import (
	"context"
	"strings"

	"github.com/clinix-health/mobile-core/pkg/apierr"
)

const (
	RouteNotifications RouteName = "misc.notifications"
	RouteMarkRead      RouteName = "misc.markRead"
	RouteMarkAllRead   RouteName = "misc.markAllRead"
	RouteAIChat        RouteName = "misc.aiChat"
)

func (b *Backend) miscRoutes() []Route {
	return []Route{
		{Name: RouteNotifications, Method: "GET", Pattern: "/notifications", Handler: b.handleNotifications},
		{Name: RouteMarkRead, Method: "PATCH", Pattern: "/notifications/:id/read", Handler: b.handleMarkRead},
		{Name: RouteMarkAllRead, Method: "PATCH", Pattern: "/notifications/read-all", Handler: b.handleMarkAllRead},
		{Name: RouteAIChat, Method: "POST", Pattern: "/ai/chat", Handler: b.handleAIChat},
	}
}

func (b *Backend) handleNotifications(_ context.Context, req *Request) (Envelope, error) {
	list := b.stores.Notifications.ListFor(req.Identity)
	return Envelope{"success": true, "notifications": jsonify(list)}, nil
}

func (b *Backend) handleMarkRead(_ context.Context, req *Request) (Envelope, error) {
	updated, err := b.stores.Notifications.MarkRead(req.Params["id"])
	if err != nil {
		return nil, err
	}
	return Envelope{"success": true, "notification": jsonify(updated)}, nil
}

func (b *Backend) handleMarkAllRead(_ context.Context, req *Request) (Envelope, error) {
	count := b.stores.Notifications.MarkAllRead(req.Identity)
	return Envelope{"success": true, "updated": jsonify(count)}, nil
}

func (b *Backend) handleAIChat(_ context.Context, req *Request) (Envelope, error) {
	message, _ := req.Body["message"].(string)
	if strings.TrimSpace(message) == "" {
		return nil, apierr.Validation("sim.ai", "message is required")
	}

	reply := b.stores.AI.Reply(message)
	return Envelope{"success": true, "reply": reply}, nil
}
