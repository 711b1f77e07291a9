// Package bot routes inbound chat events through the booking and admin flows
package bot

import "context"

// EventKind distinguishes free text from a tapped selection
type EventKind string

const (
	KindText      EventKind = "text"
	KindSelection EventKind = "selection"
)

// Event is a normalized inbound chat event. Identity is the phone-like
// customer identity; Payload carries the text or the selection id.
type Event struct {
	Identity string
	Kind     EventKind
	Payload  string
}

// Button is one selectable row or choice; Data comes back as the
// selection payload when tapped.
type Button struct {
	Label string
	Data  string
}

// Section groups rows inside a list prompt
type Section struct {
	Title string
	Rows  []Button
}

// Channel limits enforced by the messaging boundary
const (
	MaxChoices  = 3  // buttons per choice prompt
	MaxListRows = 10 // selectable rows per list prompt
)

// Messenger is the outbound messaging boundary the flows talk to
type Messenger interface {
	// SendText delivers a free-text message
	SendText(ctx context.Context, to, text string) error
	// SendChoices delivers a prompt with up to MaxChoices buttons
	SendChoices(ctx context.Context, to, text string, buttons []Button) error
	// SendList delivers a sectioned list prompt with up to MaxListRows
	// selectable rows in total
	SendList(ctx context.Context, to, text string, sections []Section) error
}

// paginate slices rows for one list message: up to MaxListRows rows on
// the final page, otherwise MaxListRows-1 plus a continuation row.
func paginate(rows []Button, page int, moreData, moreLabel string) []Button {
	perPage := MaxListRows - 1
	start := page * perPage
	if start >= len(rows) {
		start = 0
		page = 0
	}
	rest := rows[start:]
	if len(rest) <= MaxListRows {
		return rest
	}
	out := make([]Button, 0, MaxListRows)
	out = append(out, rest[:perPage]...)
	out = append(out, Button{Label: moreLabel, Data: moreData})
	return out
}
