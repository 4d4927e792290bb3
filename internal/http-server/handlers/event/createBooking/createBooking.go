package createBooking

import (
	"careBooker/internal/lib/api/response"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"careBooker/internal/services/booking"
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

// BookingRequest books a seat for Attendee, held by Holder. An empty
// Attendee means the holder books for themself.
type BookingRequest struct {
	Holder             string `json:"holder" validate:"required"`
	Attendee           string `json:"attendee"`
	CaregiverRequested bool   `json:"caregiver_requested"`
}

type BookingResponse struct {
	response.Response
	Booking   *models.Booking `json:"booking,omitempty"`
	Caregiver string          `json:"caregiver,omitempty"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=BookingCreator
type BookingCreator interface {
	Book(ctx context.Context, req booking.Request) (booking.Result, error)
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.createBooking.New"

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

		var req BookingRequest

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

		holder := profiles.NormalizeHandle(req.Holder)
		attendee := profiles.NormalizeHandle(req.Attendee)
		if attendee == "" {
			attendee = holder
		}

		res, err := creator.Book(r.Context(), booking.Request{
			EventID:            eventID,
			Holder:             holder,
			Attendee:           attendee,
			CaregiverRequested: req.CaregiverRequested,
		})
		if err != nil {
			log.Error("failed to book event", sl.Err(err))
			status, resp := response.FromError(err, "failed to book event")
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("event booked successfully",
			slog.String("attendee", attendee),
			slog.String("status", string(res.Booking.Status)),
		)

		responseOK(w, r, res)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, res booking.Result) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, BookingResponse{
		Response:  response.OK(),
		Booking:   &res.Booking,
		Caregiver: res.Caregiver,
	})
}
