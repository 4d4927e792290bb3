package confirmBooking

import (
	"careBooker/internal/lib/api/response"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"careBooker/internal/services/profiles"
	"context"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"log/slog"
	"net/http"
	"strconv"
)

// ConfirmRequest is a caregiver's answer to a pending booking.
type ConfirmRequest struct {
	Caregiver string `json:"caregiver" validate:"required"`
	Attendee  string `json:"attendee" validate:"required"`
	Accept    *bool  `json:"accept" validate:"required"`
}

type ConfirmResponse struct {
	response.Response
	Booking *models.Booking `json:"booking,omitempty"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingConfirmer
type BookingConfirmer interface {
	ConfirmCaregiver(ctx context.Context, eventID int64, caregiver, attendee string, accept bool) (models.Booking, error)
}

func New(log *slog.Logger, confirmer BookingConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.confirmBooking.New"

		log := log.With(slog.String("op", op))

		eventIdStr := chi.URLParam(r, "id")
		if eventIdStr == "" {
			log.Error("event id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event id is required"))
			return
		}

		eventID, err := strconv.ParseInt(eventIdStr, 10, 64)
		if err != nil {
			log.Error("invalid event id format", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid event id format"))
			return
		}

		log = log.With(slog.Int64("event_id", eventID))

		var req ConfirmRequest

		err = render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		log.Info("request body decoded", slog.Any("request", req))

		if err = validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			if errors.As(err, &validateErr) {
				log.Error("invalid request", sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.ValidationError(validateErr))
				return
			}
		}

		caregiver := profiles.NormalizeHandle(req.Caregiver)
		attendee := profiles.NormalizeHandle(req.Attendee)

		b, err := confirmer.ConfirmCaregiver(r.Context(), eventID, caregiver, attendee, *req.Accept)
		if err != nil {
			log.Error("failed to confirm booking", sl.Err(err))
			status, resp := response.FromError(err, "failed to confirm booking")
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("caregiver answered",
			slog.String("attendee", attendee),
			slog.String("status", string(b.Status)),
		)

		render.JSON(w, r, ConfirmResponse{
			Response: response.OK(),
			Booking:  &b,
		})
	}
}
