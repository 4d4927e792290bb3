package getAllEvents

import (
	"careBooker/internal/lib/api/response"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"context"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"time"
)

const monthLayout = "2006-01"

type EventsResponse struct {
	response.Response
	Month  string         `json:"month,omitempty"`
	Events []models.Event `json:"events"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventsLister
type EventsLister interface {
	ListUpcoming(ctx context.Context, year int, month time.Month) ([]models.Event, error)
	Location() *time.Location
}

// New lists the events of ?month=YYYY-MM, or of the current month.
func New(log *slog.Logger, lister EventsLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.getAllEvents.New"

		log := log.With(slog.String("op", op))

		var month time.Time
		if raw := r.URL.Query().Get("month"); raw != "" {
			parsed, err := time.Parse(monthLayout, raw)
			if err != nil {
				log.Error("invalid month", slog.String("month", raw), sl.Err(err))
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("invalid month, expected YYYY-MM"))
				return
			}
			month = parsed
		} else {
			month = time.Now().In(lister.Location())
		}

		events, err := lister.ListUpcoming(r.Context(), month.Year(), month.Month())
		if err != nil {
			log.Error("failed to get events", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to get events"))
			return
		}

		log.Info("events retrieved successfully", slog.Int("count", len(events)))

		responseOK(w, r, month.Format(monthLayout), events)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, month string, events []models.Event) {
	render.JSON(w, r, EventsResponse{
		Response: response.OK(),
		Month:    month,
		Events:   events,
	})
}
