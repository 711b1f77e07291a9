// Package services contains business logic for the application
package services

import (
	"context"
	"html"
	"strings"

	"github.com/google/uuid"

	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/database"
	"github.com/merakisoftwarecolombia/Big-Brother-Barber-Shop/internal/errs"
)

// maxNoteLength caps the free text accepted for a client note
const maxNoteLength = 500

// ClientStore is the slice of the repository the client directory uses
type ClientStore interface {
	FindClient(ctx context.Context, phone string) (*database.Client, error)
	RecentClients(ctx context.Context, limit int) ([]database.Client, error)
	CreateNote(ctx context.Context, note *database.ClientNote) error
	NotesForClient(ctx context.Context, phone string, limit int) ([]database.ClientNote, error)
}

// ClientService reads the client directory and manages staff notes
type ClientService struct {
	store ClientStore
}

// NewClientService creates a new client service instance
func NewClientService(store ClientStore) *ClientService {
	return &ClientService{store: store}
}

// AddNote attaches a free-text note to a client. Text is trimmed and
// HTML-escaped before it is stored; the length cap applies to the
// escaped form so the stored column never exceeds it.
func (s *ClientService) AddNote(ctx context.Context, staffID uint, phone, text string, appointmentID *string) (*database.ClientNote, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.E(errs.Validation, "note text is empty")
	}
	escaped := html.EscapeString(text)
	if len([]rune(escaped)) > maxNoteLength {
		return nil, errs.E(errs.Validation, "note text exceeds 500 characters")
	}

	note := &database.ClientNote{
		ID:            uuid.NewString(),
		ClientPhone:   phone,
		StaffID:       staffID,
		AppointmentID: appointmentID,
		Text:          escaped,
	}
	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

// Notes returns a client's notes, newest first
func (s *ClientService) Notes(ctx context.Context, phone string, limit int) ([]database.ClientNote, error) {
	return s.store.NotesForClient(ctx, phone, limit)
}

// Recent returns the most recently booked clients
func (s *ClientService) Recent(ctx context.Context, limit int) ([]database.Client, error) {
	return s.store.RecentClients(ctx, limit)
}

// ByPhone returns one client record
func (s *ClientService) ByPhone(ctx context.Context, phone string) (*database.Client, error) {
	return s.store.FindClient(ctx, phone)
}
