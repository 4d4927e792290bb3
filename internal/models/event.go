package models

import "time"

type Event struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Capacity    int       `json:"capacity"`
	BookedSeats int       `json:"booked_seats"`
	CreatedAt   time.Time `json:"created_at"`
}

func (e Event) Interval() Interval {
	return Interval{Start: e.Start, End: e.End}
}

func (e Event) SeatsLeft() int {
	if left := e.Capacity - e.BookedSeats; left > 0 {
		return left
	}
	return 0
}

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect.
// Intervals that only touch at an endpoint do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}
