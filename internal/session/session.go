// Package session holds per-identity conversation state and its stores
package session

import "time"

// Step is the customer conversation step
type Step int

const (
	StepMenu Step = iota
	StepName
	StepStaff
	StepService
	StepDate
	StepTime
	StepCancelConfirm
)

// AdminState is the admin panel sub-state
type AdminState int

const (
	AdminMenu AdminState = iota
	AdminAwaitingNote
)

// Booking accumulates the partial booking while the customer walks the flow
type Booking struct {
	Name    string    `json:"name,omitempty"`
	StaffID uint      `json:"staff_id,omitempty"`
	Service string    `json:"service,omitempty"`
	Date    time.Time `json:"date,omitempty"`
	Page    int       `json:"page,omitempty"`
	// TargetPhone is set when an admin books on behalf of another identity;
	// the one-active-appointment check then runs against the target.
	TargetPhone string `json:"target_phone,omitempty"`
}

// Admin holds the authenticated admin panel state
type Admin struct {
	StaffID   uint       `json:"staff_id"`
	State     AdminState `json:"state"`
	NotePhone string     `json:"note_phone,omitempty"`
	NoteAppt  string     `json:"note_appt,omitempty"`
	BlockDate *time.Time `json:"block_date,omitempty"`
	Page      int        `json:"page,omitempty"`
}

// Session is the per-identity state machine instance. Admin being non-nil
// means the identity is an authenticated staff member driving the panel.
type Session struct {
	Phone        string    `json:"phone"`
	Step         Step      `json:"step"`
	Booking      Booking   `json:"booking"`
	Admin        *Admin    `json:"admin,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}

// ResetFlow drops accumulated booking state and returns to the menu
func (s *Session) ResetFlow() {
	s.Step = StepMenu
	s.Booking = Booking{}
}
