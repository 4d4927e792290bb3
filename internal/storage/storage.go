package storage

import (
	"careBooker/internal/models"
	"context"
	"errors"
	"time"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileExists   = errors.New("profile exists")
	ErrEventNotFound   = errors.New("event not found")
	ErrBookingNotFound = errors.New("booking not found")
)

// Queries is the query contract the services need from persistence.
// Implementations are either bound to the database or to one transaction.
type Queries interface {
	Profile(ctx context.Context, handle string) (models.Profile, error)
	InsertProfile(ctx context.Context, p models.Profile) error
	UpdateProfile(ctx context.Context, p models.Profile) error
	SetChatID(ctx context.Context, handle string, chatID int64) error
	LinkedIndividuals(ctx context.Context, caregiver string) ([]models.Profile, error)

	InsertEvent(ctx context.Context, e models.Event) (int64, error)
	Event(ctx context.Context, id int64) (models.Event, error)
	EventsStartingBetween(ctx context.Context, from, to time.Time) ([]models.Event, error)
	CountEvents(ctx context.Context) (int, error)

	Booking(ctx context.Context, eventID int64, attendee string) (models.Booking, error)
	InsertBooking(ctx context.Context, b models.Booking) (int64, error)
	UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error
	DeleteBooking(ctx context.Context, eventID int64, attendee string) error
	CountConfirmed(ctx context.Context, eventID int64) (int, error)
	ConfirmedEventsFor(ctx context.Context, attendee string) ([]models.Event, error)
	BookingsFor(ctx context.Context, attendees []string) ([]models.BookingView, error)
	Attendance(ctx context.Context, eventID int64) ([]models.Attendance, error)
}

// Store runs fn inside a single transaction. fn's Queries must not be used
// after fn returns.
type Store interface {
	Queries
	Atomic(ctx context.Context, fn func(q Queries) error) error
}
