package catalog

import (
	"careBooker/internal/lib/apperr"
	"careBooker/internal/models"
	"careBooker/internal/storage"
	"context"
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"strconv"
	"time"
)

// NewEvent is the admin's input for CreateEvent.
type NewEvent struct {
	Title       string    `json:"title" validate:"required,max=128"`
	Description string    `json:"description" validate:"max=1024"`
	Location    string    `json:"location" validate:"max=256"`
	Start       time.Time `json:"start" validate:"required"`
	End         time.Time `json:"end" validate:"required,gtfield=Start"`
	Capacity    int       `json:"capacity" validate:"gt=0"`
}

type Catalog struct {
	log      *slog.Logger
	store    storage.Store
	loc      *time.Location
	validate *validator.Validate
}

func New(log *slog.Logger, store storage.Store, loc *time.Location) *Catalog {
	if loc == nil {
		loc = time.UTC
	}
	return &Catalog{
		log:      log,
		store:    store,
		loc:      loc,
		validate: validator.New(),
	}
}

func (c *Catalog) Location() *time.Location {
	return c.loc
}

func (c *Catalog) CreateEvent(ctx context.Context, in NewEvent) (models.Event, error) {
	const op = "services.catalog.CreateEvent"

	log := c.log.With(slog.String("op", op))

	// Stored with second precision.
	in.Start = in.Start.Truncate(time.Second)
	in.End = in.End.Truncate(time.Second)

	if err := c.validate.Struct(in); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) && len(validateErr) > 0 {
			return models.Event{}, fieldError(validateErr[0])
		}
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	e := models.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Start:       in.Start.UTC(),
		End:         in.End.UTC(),
		Capacity:    in.Capacity,
		CreatedAt:   time.Now().UTC(),
	}

	err := c.store.Atomic(ctx, func(q storage.Queries) error {
		id, err := q.InsertEvent(ctx, e)
		if err != nil {
			return err
		}
		e.ID = id
		return nil
	})
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("event created", slog.Int64("id", e.ID), slog.String("title", e.Title))

	return e, nil
}

// ListUpcoming returns the events starting within the given calendar month
// of the catalog's location, earliest first.
func (c *Catalog) ListUpcoming(ctx context.Context, year int, month time.Month) ([]models.Event, error) {
	const op = "services.catalog.ListUpcoming"

	from := time.Date(year, month, 1, 0, 0, 0, 0, c.loc)
	to := from.AddDate(0, 1, 0)

	events, err := c.store.EventsStartingBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if events == nil {
		events = []models.Event{}
	}

	return events, nil
}

func (c *Catalog) Get(ctx context.Context, id int64) (models.Event, error) {
	const op = "services.catalog.Get"

	e, err := c.store.Event(ctx, id)
	if errors.Is(err, storage.ErrEventNotFound) {
		return models.Event{}, apperr.NotFound("event", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return models.Event{}, fmt.Errorf("%s: %w", op, err)
	}

	return e, nil
}

// SeedDemo fills an empty catalog with a few activities starting an hour
// after now. Two of them overlap so conflicts can be tried out.
func (c *Catalog) SeedDemo(ctx context.Context, now time.Time) error {
	const op = "services.catalog.SeedDemo"

	base := now.Add(time.Hour).Truncate(time.Minute)
	demo := []models.Event{
		{Title: "Music Therapy", Location: "Room 1", Start: base, End: base.Add(time.Hour), Capacity: 10},
		{Title: "Art Jam", Location: "Studio", Start: base.Add(90 * time.Minute), End: base.Add(2 * time.Hour), Capacity: 8},
		{Title: "Physio Session", Location: "Gym", Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute), Capacity: 5},
	}

	seeded := 0
	err := c.store.Atomic(ctx, func(q storage.Queries) error {
		n, err := q.CountEvents(ctx)
		if err != nil || n > 0 {
			return err
		}
		for _, e := range demo {
			if _, err = q.InsertEvent(ctx, e); err != nil {
				return err
			}
			seeded++
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if seeded > 0 {
		c.log.Info("demo activities seeded", slog.String("op", op), slog.Int("count", seeded))
	}

	return nil
}

func fieldError(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return apperr.Validation(fe.Field(), "is required")
	case "gtfield":
		return apperr.Validation(fe.Field(), "must be after "+fe.Param())
	case "gt":
		return apperr.Validation(fe.Field(), "must be greater than "+fe.Param())
	case "max":
		return apperr.Validation(fe.Field(), "must be at most "+fe.Param()+" characters")
	default:
		return apperr.Validation(fe.Field(), "is not valid")
	}
}
