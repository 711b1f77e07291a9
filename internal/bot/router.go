package bot

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/session"
)

// lockStripes bounds the serialization locks to a fixed set so the
// router holds no per-identity state for the process lifetime.
const lockStripes = 64

// Router is the single entry point for inbound chat events. Events for
// one identity are processed to completion before the next event for
// that identity is accepted; different identities run fully concurrent.
type Router struct {
	sessions session.Store
	booking  *BookingFlow
	admin    *AdminPanel
	msgr     Messenger
	log      zerolog.Logger

	locks [lockStripes]sync.Mutex
}

// NewRouter wires the flows behind the per-identity serialization gate
func NewRouter(sessions session.Store, booking *BookingFlow, admin *AdminPanel, msgr Messenger, log zerolog.Logger) *Router {
	return &Router{
		sessions: sessions,
		booking:  booking,
		admin:    admin,
		msgr:     msgr,
		log:      log,
	}
}

// Handle processes one inbound event. All flow errors are converted
// here into a user-facing message and a safe state; no error leaves a
// session undefined.
func (r *Router) Handle(ctx context.Context, ev Event) {
	lock := r.lockFor(ev.Identity)
	lock.Lock()
	defer lock.Unlock()

	if err := r.dispatch(ctx, ev); err != nil {
		r.log.Error().
			Err(err).
			Str("identity", ev.Identity).
			Str("kind", errs.KindOf(err).String()).
			Msg("event handling failed")
		// State was not advanced; the user may retry the same step.
		if sendErr := r.msgr.SendText(ctx, ev.Identity,
			"😔 Algo salió mal de nuestro lado. Intenta de nuevo en un momento."); sendErr != nil {
			r.log.Warn().Err(sendErr).Str("identity", ev.Identity).Msg("apology delivery failed")
		}
	}
}

func (r *Router) dispatch(ctx context.Context, ev Event) error {
	// A structured admin command wins over any in-flight session.
	// Non-matching text falls through silently so the admin surface
	// is not discoverable by probing.
	if ev.Kind == KindText {
		if cmd, ok := ParseAdminCommand(ev.Payload); ok {
			return r.admin.HandleCommand(ctx, ev.Identity, cmd)
		}
	}

	sess, err := r.sessions.Get(ctx, ev.Identity)
	if err != nil {
		return err
	}

	if sess == nil {
		// Never welcomed (or expired): restart at the greeting.
		sess = &session.Session{Phone: ev.Identity, Step: session.StepMenu}
		if err := r.sessions.Put(ctx, sess); err != nil {
			return err
		}
		return r.booking.SendGreeting(ctx, sess)
	}

	if err := r.sessions.Touch(ctx, ev.Identity); err != nil {
		return err
	}

	// An admin booking on behalf of a client walks the customer flow
	// until it commits or is abandoned.
	if sess.Admin != nil && sess.Booking.TargetPhone == "" {
		return r.admin.Handle(ctx, sess, ev)
	}
	return r.booking.Handle(ctx, sess, ev)
}

// lockFor returns the serialization lock for one identity
func (r *Router) lockFor(identity string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(identity))
	return &r.locks[h.Sum32()%lockStripes]
}
