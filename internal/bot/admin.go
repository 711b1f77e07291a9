// Package bot contains the staff-facing admin panel state machine
package bot

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/clock"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/services"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/session"
)

// AdminCommand is a parsed "admin <alias> <pin> [action] [params...]"
type AdminCommand struct {
	Alias  string
	Pin    string
	Action string
	Params []string
}

var (
	adminAliasRe = regexp.MustCompile(`^[a-z0-9]{2,20}$`)
	adminPinRe   = regexp.MustCompile(`^\d{4,6}$`)
)

// actionAliases maps Spanish and English action tokens to one canonical
// action name
var actionAliases = map[string]string{
	"panel":        "panel",
	"hoy":          "today",
	"today":        "today",
	"semana":       "week",
	"week":         "week",
	"fecha":        "day",
	"day":          "day",
	"bloquear":     "block",
	"block":        "block",
	"desbloquear":  "unblock",
	"unblock":      "unblock",
	"agendar":      "book",
	"book":         "book",
	"confirmar":    "confirm",
	"confirm":      "confirm",
	"completar":    "complete",
	"complete":     "complete",
	"cancelar":     "cancel",
	"cancel":       "cancel",
	"nota":         "note",
	"note":         "note",
	"estadisticas": "stats",
	"estadísticas": "stats",
	"stats":        "stats",
	"ayuda":        "help",
	"help":         "help",
	"salir":        "logout",
	"logout":       "logout",
}

// ParseAdminCommand matches the structured admin command, independent of
// case. Anything that does not match the full shape is "not a command"
// and falls through to normal routing, so free text never reveals that
// the admin surface exists.
func ParseAdminCommand(text string) (*AdminCommand, bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) < 3 || strings.ToLower(fields[0]) != "admin" {
		return nil, false
	}
	alias := strings.ToLower(fields[1])
	pin := fields[2]
	if !adminAliasRe.MatchString(alias) || !adminPinRe.MatchString(pin) {
		return nil, false
	}

	cmd := &AdminCommand{Alias: alias, Pin: pin, Action: "panel"}
	if len(fields) > 3 {
		action, ok := actionAliases[strings.ToLower(fields[3])]
		if !ok {
			return nil, false
		}
		cmd.Action = action
		// Params keep their original case; note text goes through here.
		cmd.Params = fields[4:]
	}
	return cmd, true
}

// AdminPanel drives the authenticated staff dialogue
type AdminPanel struct {
	sessions session.Store
	staff    *services.StaffService
	booking  *services.BookingService
	blocks   *services.BlockService
	clients  *services.ClientService
	stats    *services.StatsService
	notify   *services.NotificationService
	msgr     Messenger
	clock    clock.Clock
	log      zerolog.Logger
}

// NewAdminPanel creates the admin state machine
func NewAdminPanel(
	sessions session.Store,
	staff *services.StaffService,
	booking *services.BookingService,
	blocks *services.BlockService,
	clients *services.ClientService,
	stats *services.StatsService,
	notify *services.NotificationService,
	msgr Messenger,
	clk clock.Clock,
	log zerolog.Logger,
) *AdminPanel {
	return &AdminPanel{
		sessions: sessions,
		staff:    staff,
		booking:  booking,
		blocks:   blocks,
		clients:  clients,
		stats:    stats,
		notify:   notify,
		msgr:     msgr,
		clock:    clk,
		log:      log,
	}
}

// HandleCommand authenticates the command and opens (or replaces) the
// admin session, then runs the requested action.
func (a *AdminPanel) HandleCommand(ctx context.Context, identity string, cmd *AdminCommand) error {
	staff, err := a.staff.Authenticate(ctx, cmd.Alias, cmd.Pin)
	if err != nil {
		if errs.Is(err, errs.Authentication) {
			// Same generic message for unknown alias and wrong PIN.
			return a.msgr.SendText(ctx, identity, "🔐 Credenciales inválidas.")
		}
		return err
	}

	sess := &session.Session{
		Phone: identity,
		Admin: &session.Admin{StaffID: staff.ID},
	}
	if err := a.sessions.Put(ctx, sess); err != nil {
		return err
	}
	a.log.Info().Str("alias", staff.Alias).Str("identity", identity).Msg("admin session opened")

	return a.runAction(ctx, sess, cmd.Action, cmd.Params)
}

// Handle advances an open admin session one step
func (a *AdminPanel) Handle(ctx context.Context, sess *session.Session, ev Event) error {
	if sess.Admin.State == session.AdminAwaitingNote && ev.Kind == KindText {
		return a.handleNoteText(ctx, sess, ev.Payload)
	}

	if ev.Kind != KindSelection {
		if err := a.msgr.SendText(ctx, sess.Phone, "Usa los botones del panel 👆"); err != nil {
			return err
		}
		return a.sendPanel(ctx, sess)
	}

	action, data := splitSelection(ev.Payload)
	switch action {
	case "adm":
		return a.runAction(ctx, sess, data, nil)
	case "avd":
		return a.viewDate(ctx, sess, data)
	case "abd":
		return a.chooseBlockHour(ctx, sess, data, 0)
	case "abm":
		return a.chooseBlockHourPage(ctx, sess, data)
	case "abh":
		return a.chooseBlockReason(ctx, sess, data)
	case "abr":
		return a.createBlock(ctx, sess, data)
	case "aub":
		return a.unblockByID(ctx, sess, data)
	case "aum":
		return a.sendUnblockList(ctx, sess, atoiOr(data, 0))
	case "acf":
		return a.confirmAppointment(ctx, sess, data)
	case "afm":
		return a.sendAppointmentPicker(ctx, sess, "acf", "afm", atoiOr(data, 0))
	case "acp":
		return a.completeAppointment(ctx, sess, data)
	case "acm":
		return a.sendAppointmentPicker(ctx, sess, "acp", "acm", atoiOr(data, 0))
	case "acx":
		return a.cancelAppointment(ctx, sess, data)
	case "axm":
		return a.sendAppointmentPicker(ctx, sess, "acx", "axm", atoiOr(data, 0))
	case "ant":
		return a.startNote(ctx, sess, data)
	case "anm":
		return a.sendClientPicker(ctx, sess, atoiOr(data, 0))
	default:
		return a.sendPanel(ctx, sess)
	}
}

// splitSelection divides a "action|data" payload; data keeps any later
// separators for multi-part encodings.
func splitSelection(payload string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(payload), "|", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
