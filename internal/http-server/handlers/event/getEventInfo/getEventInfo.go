package getEventInfo

import (
	"careBooker/internal/lib/api/response"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"context"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"strconv"
)

type EventInfoResponse struct {
	response.Response
	Event      *models.Event       `json:"event,omitempty"`
	Attendance []models.Attendance `json:"attendance,omitempty"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventGetter
type EventGetter interface {
	Get(ctx context.Context, id int64) (models.Event, error)
	AttendanceFor(ctx context.Context, eventID int64) ([]models.Attendance, error)
}

func New(log *slog.Logger, info EventGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.getEventInfo.New"

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

		event, err := info.Get(r.Context(), eventID)
		if err != nil {
			log.Error("failed to get event", sl.Err(err))
			status, resp := response.FromError(err, "failed to get event information")
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		attendance, err := info.AttendanceFor(r.Context(), eventID)
		if err != nil {
			log.Error("failed to get attendance", sl.Err(err))
			status, resp := response.FromError(err, "failed to get event information")
			render.Status(r, status)
			render.JSON(w, r, resp)
			return
		}

		log.Info("event info successfully received", slog.Int("attendees", len(attendance)))

		responseOK(w, r, event, attendance)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, event models.Event, attendance []models.Attendance) {
	render.JSON(w, r, EventInfoResponse{
		Response:   response.OK(),
		Event:      &event,
		Attendance: attendance,
	})
}
