package sim

import (
	"context"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
)

const (
	RouteThreads      RouteName = "messaging.threads"
	RouteCreateThread RouteName = "messaging.createThread"
	RouteMessages     RouteName = "messaging.messages"
	RouteSendMessage  RouteName = "messaging.sendMessage"
)

func (b *Backend) messagingRoutes() []Route {
	return []Route{
		{Name: RouteThreads, Method: "GET", Pattern: "/threads", Handler: b.handleThreads},
		{Name: RouteCreateThread, Method: "POST", Pattern: "/threads", Handler: b.handleCreateThread},
		{Name: RouteMessages, Method: "GET", Pattern: "/threads/:id/messages", Handler: b.handleMessages},
		{Name: RouteSendMessage, Method: "POST", Pattern: "/threads/:id/messages", Handler: b.handleSendMessage},
	}
}

func (b *Backend) handleThreads(_ context.Context, req *Request) (Envelope, error) {
	list := b.stores.Chat.ThreadsFor(req.Identity)
	return Envelope{"success": true, "threads": jsonify(list)}, nil
}

func (b *Backend) handleCreateThread(_ context.Context, req *Request) (Envelope, error) {
	var body models.CreateThreadRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.messaging", "malformed thread body")
	}

	thread, err := b.stores.Chat.CreateThread(req.Identity, body)
	if err != nil {
		return nil, err
	}
	return Envelope{"success": true, "thread": jsonify(thread)}, nil
}

func (b *Backend) handleMessages(_ context.Context, req *Request) (Envelope, error) {
	msgs, err := b.stores.Chat.Messages(req.Params["id"])
	if err != nil {
		return nil, err
	}
	return Envelope{"success": true, "messages": jsonify(msgs)}, nil
}

func (b *Backend) handleSendMessage(_ context.Context, req *Request) (Envelope, error) {
	var body models.SendMessageRequest
	if err := decodeBody(req.Body, &body); err != nil {
		return nil, apierr.Validation("sim.messaging", "malformed message body")
	}
	if err := body.Validate(); err != nil {
		return nil, apierr.Validation("sim.messaging", err.Error())
	}

	msg, err := b.stores.Chat.Append(req.Params["id"], req.Identity, body.Body)
	if err != nil {
		return nil, err
	}
	return Envelope{"success": true, "message": jsonify(msg)}, nil
}
