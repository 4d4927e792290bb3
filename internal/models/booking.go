package models

import "time"

type BookingStatus string

const (
	StatusConfirmed BookingStatus = "confirmed"
	StatusPending   BookingStatus = "pending_caregiver_confirmation"
	StatusDeclined  BookingStatus = "declined"
)

type Booking struct {
	ID        int64         `json:"id"`
	EventID   int64         `json:"event_id"`
	Holder    string        `json:"holder"`
	Attendee  string        `json:"attendee"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// BookingView is a booking joined with the event it refers to.
type BookingView struct {
	Booking
	Event Event `json:"event"`
}

// Attendance is one row of an event's attendance export.
type Attendance struct {
	Handle   string        `json:"handle"`
	FullName string        `json:"full_name"`
	Role     Role          `json:"role"`
	Status   BookingStatus `json:"status"`
	Holder   string        `json:"holder"`
}

// ConfirmationRequest is sent to a caregiver when a linked individual's
// booking waits for their answer.
type ConfirmationRequest struct {
	Event     Event
	Holder    string
	Attendee  string
	Caregiver string
}
