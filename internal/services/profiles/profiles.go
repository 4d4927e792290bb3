package profiles

import (
	"careBooker/internal/lib/apperr"
	"careBooker/internal/models"
	"careBooker/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type Registry struct {
	log   *slog.Logger
	store storage.Store
}

func New(log *slog.Logger, store storage.Store) *Registry {
	return &Registry{log: log, store: store}
}

// NormalizeHandle lower-cases a Telegram username and strips a leading '@'.
func NormalizeHandle(h string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(h), "@"))
}

// Touch creates the profile on first contact and remembers the chat the
// handle last wrote from.
func (r *Registry) Touch(ctx context.Context, handle string, chatID int64) (models.Profile, error) {
	const op = "services.profiles.Touch"

	var p models.Profile
	err := r.store.Atomic(ctx, func(q storage.Queries) error {
		var err error
		p, err = q.Profile(ctx, handle)
		if errors.Is(err, storage.ErrProfileNotFound) {
			p = models.Profile{Handle: handle, ChatID: chatID, CreatedAt: time.Now().UTC()}
			return q.InsertProfile(ctx, p)
		}
		if err != nil {
			return err
		}
		if p.ChatID != chatID {
			p.ChatID = chatID
			return q.SetChatID(ctx, handle, chatID)
		}
		return nil
	})
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

// Register sets the role of a handle whose role is still unset. A handle
// that already has a role cannot be registered again, whatever role is
// asked for.
func (r *Registry) Register(ctx context.Context, handle string, role models.Role, fullName, phone string) (models.Profile, error) {
	const op = "services.profiles.Register"

	log := r.log.With(slog.String("op", op), slog.String("handle", handle))

	if handle == "" {
		return models.Profile{}, apperr.Validation("handle", "is required")
	}
	if !role.Valid() {
		return models.Profile{}, apperr.Validation("role", "must be individual or caregiver")
	}

	var p models.Profile
	err := r.store.Atomic(ctx, func(q storage.Queries) error {
		var err error
		p, err = q.Profile(ctx, handle)
		switch {
		case errors.Is(err, storage.ErrProfileNotFound):
			p = models.Profile{Handle: handle, Role: role, FullName: fullName, Phone: phone, CreatedAt: time.Now().UTC()}
			return q.InsertProfile(ctx, p)
		case err != nil:
			return err
		case p.Registered():
			return &apperr.AlreadyRegisteredError{Handle: handle, Role: string(p.Role)}
		}

		p.Role = role
		p.FullName = fullName
		p.Phone = phone
		return q.UpdateProfile(ctx, p)
	})
	if err != nil {
		return models.Profile{}, apperr.Wrap(op, err)
	}

	log.Info("profile registered", slog.String("role", string(role)))

	return p, nil
}

func (r *Registry) Profile(ctx context.Context, handle string) (models.Profile, error) {
	const op = "services.profiles.Profile"

	p, err := r.store.Profile(ctx, handle)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return models.Profile{}, apperr.NotFound("profile", "@"+handle)
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return p, nil
}

func (r *Registry) LinkIndividual(ctx context.Context, caregiver, individual string) error {
	const op = "services.profiles.LinkIndividual"

	if caregiver == individual {
		return apperr.Validation("individual", "cannot link yourself")
	}

	err := r.store.Atomic(ctx, func(q storage.Queries) error {
		cg, ind, err := linkPair(ctx, q, caregiver, individual)
		if err != nil {
			return err
		}

		switch ind.Caregiver {
		case cg.Handle:
			return nil
		case "":
		default:
			return apperr.Conflict(apperr.CheckLink, "@"+individual+" is already linked to another caregiver")
		}

		ind.Caregiver = cg.Handle
		return q.UpdateProfile(ctx, ind)
	})
	if err != nil {
		return apperr.Wrap(op, err)
	}

	r.log.Info("individual linked",
		slog.String("op", op),
		slog.String("caregiver", caregiver),
		slog.String("individual", individual),
	)

	return nil
}

func (r *Registry) UnlinkIndividual(ctx context.Context, caregiver, individual string) error {
	const op = "services.profiles.UnlinkIndividual"

	err := r.store.Atomic(ctx, func(q storage.Queries) error {
		_, ind, err := linkPair(ctx, q, caregiver, individual)
		if err != nil {
			return err
		}
		if ind.Caregiver != caregiver {
			return apperr.NotFound("link", "@"+caregiver+" -> @"+individual)
		}

		ind.Caregiver = ""
		return q.UpdateProfile(ctx, ind)
	})
	if err != nil {
		return apperr.Wrap(op, err)
	}

	r.log.Info("individual unlinked",
		slog.String("op", op),
		slog.String("caregiver", caregiver),
		slog.String("individual", individual),
	)

	return nil
}

func (r *Registry) LinkedIndividuals(ctx context.Context, caregiver string) ([]models.Profile, error) {
	const op = "services.profiles.LinkedIndividuals"

	out, err := r.store.LinkedIndividuals(ctx, caregiver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// AttendanceFor lists everyone holding a booking row for the event.
func (r *Registry) AttendanceFor(ctx context.Context, eventID int64) ([]models.Attendance, error) {
	const op = "services.profiles.AttendanceFor"

	var out []models.Attendance
	err := r.store.Atomic(ctx, func(q storage.Queries) error {
		if _, err := q.Event(ctx, eventID); err != nil {
			if errors.Is(err, storage.ErrEventNotFound) {
				return apperr.NotFound("event", strconv.FormatInt(eventID, 10))
			}
			return err
		}

		var err error
		out, err = q.Attendance(ctx, eventID)
		return err
	})
	if err != nil {
		return nil, apperr.Wrap(op, err)
	}
	if out == nil {
		out = []models.Attendance{}
	}

	return out, nil
}

func linkPair(ctx context.Context, q storage.Queries, caregiver, individual string) (models.Profile, models.Profile, error) {
	cg, err := q.Profile(ctx, caregiver)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return models.Profile{}, models.Profile{}, apperr.NotFound("profile", "@"+caregiver)
	}
	if err != nil {
		return models.Profile{}, models.Profile{}, err
	}
	if cg.Role != models.RoleCaregiver {
		return models.Profile{}, models.Profile{}, apperr.Validation("caregiver", "only caregivers can link individuals")
	}

	ind, err := q.Profile(ctx, individual)
	if errors.Is(err, storage.ErrProfileNotFound) {
		return models.Profile{}, models.Profile{}, apperr.NotFound("profile", "@"+individual)
	}
	if err != nil {
		return models.Profile{}, models.Profile{}, err
	}
	if ind.Role != models.RoleIndividual {
		return models.Profile{}, models.Profile{}, apperr.Validation("individual", "@"+individual+" is not registered as an individual")
	}

	return cg, ind, nil
}
