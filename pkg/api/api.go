// Package api contains the domain API modules: one thin,
// defensively-written wrapper per feature (auth, appointments,
// records, chat, notifications, assistant). Each module translates
// domain calls into façade requests, asserts the response shape, maps
// the envelope into flat models, and (when enabled) falls back to the
// embedded backend's stores on a malformed or unreachable live
// response.
package api

import (
	"errors"

	"github.com/hashicorp/go-hclog"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/kvstore"
	"github.com/clinix-health/mobile-core/pkg/querycache"
	"github.com/clinix-health/mobile-core/pkg/sim/store"
	"github.com/clinix-health/mobile-core/pkg/token"
	"github.com/clinix-health/mobile-core/pkg/transport"
)

// Query keys the modules stale after a successful mutation. Screens
// caching list queries should store them under the same keys.
var (
	KeyProfile       = querycache.Key("profile")
	KeyAppointments  = querycache.Key("appointments")
	KeyPrescriptions = querycache.Key("records", "prescriptions")
	KeyThreads       = querycache.Key("threads")
	KeyNotifications = querycache.Key("notifications")
)

// MessagesKey is the query key for one thread's message list.
func MessagesKey(threadID string) string {
	return querycache.Key("threads", threadID, "messages")
}

// invalidations declares, per mutating operation, the cached queries
// it stales. Booking and prescribing also stale notifications because
// the backend pushes one for each.
var invalidations = map[string][]string{
	"auth.UpdateProfile":         {KeyProfile},
	"appointments.Create":        {KeyAppointments, KeyNotifications},
	"appointments.Cancel":        {KeyAppointments},
	"appointments.Reschedule":    {KeyAppointments},
	"records.CreatePrescription": {KeyPrescriptions, KeyNotifications},
	"chat.CreateThread":          {KeyThreads},
	"chat.Send":                  {KeyThreads},
	"notifications.MarkRead":     {KeyNotifications},
	"notifications.MarkAllRead":  {KeyNotifications},
}

// Modules bundles every domain module over one shared façade client.
type Modules struct {
	Auth          *AuthModule
	Appointments  *AppointmentsModule
	Records       *RecordsModule
	Chat          *ChatModule
	Notifications *NotificationsModule
	AI            *AIModule
}

// New wires the modules. storage backs the assistant's persisted
// conversation history. cache, when non-nil, has its declared query
// keys invalidated after every successful mutation.
func New(client *transport.Client, storage kvstore.Store, cache *querycache.Cache, logger hclog.Logger) *Modules {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	b := base{
		client: client,
		stores: client.Sim().Stores(),
		cache:  cache,
		logger: logger.Named("api"),
	}

	return &Modules{
		Auth:          &AuthModule{base: b},
		Appointments:  &AppointmentsModule{base: b},
		Records:       &RecordsModule{base: b},
		Chat:          &ChatModule{base: b},
		Notifications: &NotificationsModule{base: b},
		AI:            &AIModule{base: b, storage: storage},
	}
}

// base carries what every module shares.
type base struct {
	client *transport.Client
	stores *store.Stores
	cache  *querycache.Cache
	logger hclog.Logger
}

// invalidate stales the queries op declares, plus any extra keys only
// known at call time.
func (b base) invalidate(op string, extra ...string) {
	if b.cache == nil {
		return
	}
	keys := append([]string{}, invalidations[op]...)
	keys = append(keys, extra...)
	if len(keys) == 0 {
		return
	}
	b.cache.Invalidate(keys...)
}

// identity derives the caller identity from the façade's current
// token.
func (b base) identity() token.Identity {
	return token.Decode(b.client.Token())
}

// canFallBack reports whether the module-level simulator fallback
// applies to this failure. Shape mismatches and transport failures are
// recoverable; validation and not-found errors carry domain meaning
// and always surface.
func (b base) canFallBack(err error) bool {
	if !b.client.FallbackEnabled() {
		return false
	}
	return errors.Is(err, apierr.ErrShapeMismatch) || errors.Is(err, apierr.ErrTransport)
}

// fellBack logs every engagement of the fallback so a broken live
// backend stays visible in logs even while masked from the UI.
func (b base) fellBack(op string, err error) {
	b.logger.Warn("live response unusable, serving from embedded backend",
		"op", op,
		"error", err)
}
