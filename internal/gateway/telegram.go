// Package gateway adapts the Telegram transport to the bot core
package gateway

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/bot"
)

// Telegram wires a telebot long poller to the router. It also
// implements bot.Messenger, so the core never sees Telegram types.
type Telegram struct {
	tb     *tele.Bot
	router *bot.Router
	log    zerolog.Logger
}

// New creates the Telegram gateway. The router is attached later with
// Bind because the router itself needs this gateway as its Messenger.
func New(token string, log zerolog.Logger) (*Telegram, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}
	return &Telegram{tb: tb, log: log}, nil
}

// Bind attaches the router and registers the update handlers
func (g *Telegram) Bind(router *bot.Router) {
	g.router = router

	g.tb.Handle(tele.OnText, func(c tele.Context) error {
		g.dispatch(bot.Event{
			Identity: identityOf(c),
			Kind:     bot.KindText,
			Payload:  c.Text(),
		})
		return nil
	})

	g.tb.Handle(tele.OnCallback, func(c tele.Context) error {
		// Acknowledge first so the client stops showing the spinner.
		_ = c.Respond()
		g.dispatch(bot.Event{
			Identity: identityOf(c),
			Kind:     bot.KindSelection,
			Payload:  strings.TrimPrefix(c.Callback().Data, "\f"),
		})
		return nil
	})
}

// dispatch hands the event to the router on its own goroutine; the
// router serializes per identity, and slow handlers must not stall the
// poller.
func (g *Telegram) dispatch(ev bot.Event) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g.router.Handle(ctx, ev)
	}()
}

// Start blocks on the long poller until Stop is called
func (g *Telegram) Start() {
	g.log.Info().Str("bot", g.tb.Me.Username).Msg("telegram poller started")
	g.tb.Start()
}

func (g *Telegram) Stop() {
	g.tb.Stop()
}

// SendText implements bot.Messenger
func (g *Telegram) SendText(_ context.Context, identity, text string) error {
	_, err := g.tb.Send(recipientOf(identity), text, tele.ModeMarkdown)
	return err
}

// SendChoices renders up to three buttons on a single inline row
func (g *Telegram) SendChoices(_ context.Context, identity, text string, choices []bot.Button) error {
	row := make([]tele.InlineButton, 0, len(choices))
	for _, ch := range choices {
		row = append(row, tele.InlineButton{Text: ch.Label, Data: ch.Data})
	}
	markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{row}}
	_, err := g.tb.Send(recipientOf(identity), text, markup, tele.ModeMarkdown)
	return err
}

// SendList renders sections as one inline button per row, with section
// titles folded into the message text
func (g *Telegram) SendList(_ context.Context, identity, text string, sections []bot.Section) error {
	var body strings.Builder
	body.WriteString(text)

	var keyboard [][]tele.InlineButton
	for _, sec := range sections {
		if sec.Title != "" && len(sections) > 1 {
			body.WriteString("\n\n*" + sec.Title + "*")
		}
		for _, row := range sec.Rows {
			keyboard = append(keyboard, []tele.InlineButton{{Text: row.Label, Data: row.Data}})
		}
	}
	markup := &tele.ReplyMarkup{InlineKeyboard: keyboard}
	_, err := g.tb.Send(recipientOf(identity), body.String(), markup, tele.ModeMarkdown)
	return err
}

// identityOf derives the stable conversation identity from the chat
func identityOf(c tele.Context) string {
	return strconv.FormatInt(c.Chat().ID, 10)
}

func recipientOf(identity string) tele.Recipient {
	id, _ := strconv.ParseInt(identity, 10, 64)
	return tele.ChatID(id)
}
