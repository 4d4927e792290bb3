package booking

import (
	"careBooker/internal/lib/apperr"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"careBooker/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Notifier delivers caregiver prompts and their outcome. It is called after
// the transaction commits; a failed delivery never undoes a booking.
type Notifier interface {
	ConfirmationRequested(ctx context.Context, req models.ConfirmationRequest) error
	ConfirmationResolved(ctx context.Context, b models.Booking, ev models.Event) error
}

type Request struct {
	EventID            int64
	Holder             string
	Attendee           string
	CaregiverRequested bool
}

type Result struct {
	Booking models.Booking
	Event   models.Event
	// Caregiver is set when the booking waits for that caregiver's answer.
	Caregiver string
}

type statusRule func(attendee models.Profile, req Request) models.BookingStatus

var statusPolicy = map[models.Role]statusRule{
	models.RoleIndividual: func(attendee models.Profile, req Request) models.BookingStatus {
		if req.CaregiverRequested && attendee.Caregiver != "" {
			return models.StatusPending
		}
		return models.StatusConfirmed
	},
	models.RoleCaregiver: func(models.Profile, Request) models.BookingStatus {
		return models.StatusConfirmed
	},
}

type Engine struct {
	log      *slog.Logger
	store    storage.Store
	notifier Notifier
	now      func() time.Time
}

func New(log *slog.Logger, store storage.Store, notifier Notifier) *Engine {
	return &Engine{
		log:      log,
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Book reserves a seat for req.Attendee. Capacity, duplicate and overlap
// checks run in that order inside one transaction.
func (e *Engine) Book(ctx context.Context, req Request) (Result, error) {
	const op = "services.booking.Book"

	log := e.log.With(
		slog.String("op", op),
		slog.Int64("event_id", req.EventID),
		slog.String("holder", req.Holder),
		slog.String("attendee", req.Attendee),
	)

	var res Result
	err := e.store.Atomic(ctx, func(q storage.Queries) error {
		ev, err := loadEvent(ctx, q, req.EventID)
		if err != nil {
			return err
		}

		attendee, err := q.Profile(ctx, req.Attendee)
		if errors.Is(err, storage.ErrProfileNotFound) {
			return apperr.NotFound("profile", "@"+req.Attendee)
		}
		if err != nil {
			return err
		}

		rule, ok := statusPolicy[attendee.Role]
		if !ok {
			return apperr.Validation("attendee", "@"+req.Attendee+" has not finished registration")
		}
		if req.Holder != attendee.Handle && (attendee.Caregiver == "" || attendee.Caregiver != req.Holder) {
			return apperr.Validation("holder", "you can only book for yourself or a linked individual")
		}

		if err = checkCapacity(ctx, q, ev); err != nil {
			return err
		}

		existing, err := q.Booking(ctx, ev.ID, attendee.Handle)
		switch {
		case errors.Is(err, storage.ErrBookingNotFound):
		case err != nil:
			return err
		case existing.Status == models.StatusDeclined:
			if err = q.DeleteBooking(ctx, ev.ID, attendee.Handle); err != nil {
				return err
			}
		default:
			return apperr.Conflict(apperr.CheckDuplicate,
				fmt.Sprintf("@%s already has a booking for %q", attendee.Handle, ev.Title))
		}

		if err = checkOverlap(ctx, q, ev, attendee.Handle); err != nil {
			return err
		}

		b := models.Booking{
			EventID:   ev.ID,
			Holder:    req.Holder,
			Attendee:  attendee.Handle,
			Status:    rule(attendee, req),
			CreatedAt: e.now().UTC(),
		}
		if b.ID, err = q.InsertBooking(ctx, b); err != nil {
			return err
		}

		if b.Status == models.StatusConfirmed {
			ev.BookedSeats++
		}
		res = Result{Booking: b, Event: ev}
		if b.Status == models.StatusPending {
			res.Caregiver = attendee.Caregiver
		}

		return nil
	})
	if err != nil {
		return Result{}, apperr.Wrap(op, err)
	}

	log.Info("booking created", slog.String("status", string(res.Booking.Status)))

	if res.Caregiver != "" && e.notifier != nil {
		err = e.notifier.ConfirmationRequested(ctx, models.ConfirmationRequest{
			Event:     res.Event,
			Holder:    res.Booking.Holder,
			Attendee:  res.Booking.Attendee,
			Caregiver: res.Caregiver,
		})
		if err != nil {
			log.Error("failed to send caregiver prompt", sl.Err(err))
		}
	}

	return res, nil
}

// Cancel removes the attendee's booking whatever its status.
func (e *Engine) Cancel(ctx context.Context, eventID int64, attendee string) error {
	const op = "services.booking.Cancel"

	err := e.store.Atomic(ctx, func(q storage.Queries) error {
		err := q.DeleteBooking(ctx, eventID, attendee)
		if errors.Is(err, storage.ErrBookingNotFound) {
			return apperr.NotFound("booking", bookingKey(eventID, attendee))
		}
		return err
	})
	if err != nil {
		return apperr.Wrap(op, err)
	}

	e.log.Info("booking cancelled",
		slog.String("op", op),
		slog.Int64("event_id", eventID),
		slog.String("attendee", attendee),
	)

	return nil
}

// ConfirmCaregiver resolves a pending booking of one of caregiver's linked
// individuals. Accepting re-runs the capacity and overlap checks; when one
// fails the booking stays pending.
func (e *Engine) ConfirmCaregiver(ctx context.Context, eventID int64, caregiver, attendee string, accept bool) (models.Booking, error) {
	const op = "services.booking.ConfirmCaregiver"

	log := e.log.With(
		slog.String("op", op),
		slog.Int64("event_id", eventID),
		slog.String("caregiver", caregiver),
		slog.String("attendee", attendee),
	)

	var (
		b  models.Booking
		ev models.Event
	)
	err := e.store.Atomic(ctx, func(q storage.Queries) error {
		notFound := apperr.NotFound("pending booking", bookingKey(eventID, attendee))

		var err error
		b, err = q.Booking(ctx, eventID, attendee)
		if errors.Is(err, storage.ErrBookingNotFound) {
			return notFound
		}
		if err != nil {
			return err
		}
		if b.Status != models.StatusPending {
			return notFound
		}

		p, err := q.Profile(ctx, attendee)
		if err != nil {
			return err
		}
		if p.Caregiver == "" || p.Caregiver != caregiver {
			return notFound
		}

		if ev, err = loadEvent(ctx, q, eventID); err != nil {
			return err
		}

		b.Status = models.StatusDeclined
		if accept {
			if err = checkCapacity(ctx, q, ev); err != nil {
				return err
			}
			if err = checkOverlap(ctx, q, ev, attendee); err != nil {
				return err
			}
			b.Status = models.StatusConfirmed
			ev.BookedSeats++
		}

		return q.UpdateBookingStatus(ctx, b.ID, b.Status)
	})
	if err != nil {
		return models.Booking{}, apperr.Wrap(op, err)
	}

	log.Info("caregiver answered", slog.String("status", string(b.Status)))

	if e.notifier != nil {
		if err = e.notifier.ConfirmationResolved(ctx, b, ev); err != nil {
			log.Error("failed to notify holder", sl.Err(err))
		}
	}

	return b, nil
}

// BookingsFor lists the handle's own bookings and, for a caregiver, those of
// every linked individual.
func (e *Engine) BookingsFor(ctx context.Context, handle string) ([]models.BookingView, error) {
	const op = "services.booking.BookingsFor"

	p, err := e.store.Profile(ctx, handle)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return nil, apperr.NotFound("profile", "@"+handle)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	handles := []string{p.Handle}
	if p.Role == models.RoleCaregiver {
		linked, err := e.store.LinkedIndividuals(ctx, p.Handle)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, ind := range linked {
			handles = append(handles, ind.Handle)
		}
	}

	out, err := e.store.BookingsFor(ctx, handles)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if out == nil {
		out = []models.BookingView{}
	}

	return out, nil
}

// CanActFor reports whether actor may manage attendee's bookings: either
// they are the same person or actor is attendee's linked caregiver.
func (e *Engine) CanActFor(ctx context.Context, actor, attendee string) (bool, error) {
	const op = "services.booking.CanActFor"

	if actor == attendee {
		return true, nil
	}

	p, err := e.store.Profile(ctx, attendee)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return p.Caregiver != "" && p.Caregiver == actor, nil
}

func loadEvent(ctx context.Context, q storage.Queries, id int64) (models.Event, error) {
	ev, err := q.Event(ctx, id)
	if errors.Is(err, storage.ErrEventNotFound) {
		return models.Event{}, apperr.NotFound("event", strconv.FormatInt(id, 10))
	}
	return ev, err
}

func checkCapacity(ctx context.Context, q storage.Queries, ev models.Event) error {
	n, err := q.CountConfirmed(ctx, ev.ID)
	if err != nil {
		return err
	}
	if n >= ev.Capacity {
		return apperr.Conflict(apperr.CheckCapacity, fmt.Sprintf("%q is full", ev.Title))
	}
	return nil
}

func checkOverlap(ctx context.Context, q storage.Queries, ev models.Event, attendee string) error {
	booked, err := q.ConfirmedEventsFor(ctx, attendee)
	if err != nil {
		return err
	}

	target := ev.Interval()
	for _, other := range booked {
		if other.ID == ev.ID {
			continue
		}
		if target.Overlaps(other.Interval()) {
			return apperr.Conflict(apperr.CheckOverlap,
				fmt.Sprintf("@%s is already booked for %q at that time", attendee, other.Title))
		}
	}
	return nil
}

func bookingKey(eventID int64, attendee string) string {
	return strconv.FormatInt(eventID, 10) + "/@" + attendee
}
