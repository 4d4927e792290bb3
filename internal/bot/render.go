package bot

import (
	"careBooker/internal/lib/apperr"
	"careBooker/internal/models"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	msgNoUsername     = "Please set a Telegram username in your settings, then send /start again."
	msgStartFirst     = "Please send /start to register first."
	msgUseButtons     = "Please use the buttons below, or /menu to start over."
	msgUnknownCommand = "Unknown command. Try /menu."
	msgCancelled      = "Cancelled."
	msgStale          = "That button is no longer active."
	msgChooseRole     = "Welcome! Are you registering as an individual or as a caregiver?"
	msgAskName        = "What is your full name?"
	msgAskPhone       = "What phone number can we reach you on? Send - to skip."
	msgNoEvents       = "No activities this month."
	msgNoBookings     = "You have no bookings yet."
	msgAskSecret      = "Send the admin secret."
	msgAdminWelcome   = "Admin mode."
	msgCaregiversOnly = "Only caregivers can link individuals."
	msgLinkUsage      = "Usage: /%s @handle"
	msgGenericFailure = "Something went wrong, please try again later."
)

const (
	dayLayout   = "Mon 02 Jan 15:04"
	clockLayout = "15:04"
	// inputLayout is what admins type for start and end times.
	inputLayout = "2006-01-02 15:04"
)

// errorText turns a service error into a sentence for the chat.
func errorText(err error) string {
	var (
		vErr *apperr.ValidationError
		cErr *apperr.ConflictError
		nErr *apperr.NotFoundError
		rErr *apperr.AlreadyRegisteredError
		aErr *apperr.AuthError
	)

	switch {
	case errors.As(err, &vErr):
		return fmt.Sprintf("Invalid %s: %s.", vErr.Field, vErr.Reason)
	case errors.As(err, &cErr):
		return conflictText(cErr)
	case errors.As(err, &nErr):
		return fmt.Sprintf("Not found: %s %s.", nErr.Entity, nErr.Key)
	case errors.As(err, &rErr):
		return fmt.Sprintf("You are already registered as %s.", rErr.Role)
	case errors.As(err, &aErr):
		return "Access denied: " + aErr.Reason + "."
	default:
		return msgGenericFailure
	}
}

func conflictText(err *apperr.ConflictError) string {
	var prefix string
	switch err.Check {
	case apperr.CheckCapacity:
		prefix = "Sorry, no seats left"
	case apperr.CheckOverlap:
		prefix = "That clashes with another booking"
	case apperr.CheckDuplicate:
		prefix = "Already booked"
	case apperr.CheckLink:
		prefix = "Cannot link"
	default:
		prefix = "Conflict"
	}
	if err.Detail == "" {
		return prefix + "."
	}
	return prefix + ": " + err.Detail + "."
}

func formatWhen(ev models.Event, loc *time.Location) string {
	return ev.Start.In(loc).Format(dayLayout) + "-" + ev.End.In(loc).Format(clockLayout)
}

func formatEvent(ev models.Event, loc *time.Location) string {
	var sb strings.Builder

	sb.WriteString(ev.Title)
	sb.WriteString("\n")
	sb.WriteString(formatWhen(ev, loc))
	if ev.Location != "" {
		sb.WriteString("\n")
		sb.WriteString(ev.Location)
	}
	if ev.Description != "" {
		sb.WriteString("\n\n")
		sb.WriteString(ev.Description)
	}
	fmt.Fprintf(&sb, "\n\nSeats left: %d of %d", ev.SeatsLeft(), ev.Capacity)

	return sb.String()
}

func statusText(s models.BookingStatus) string {
	switch s {
	case models.StatusConfirmed:
		return "confirmed"
	case models.StatusPending:
		return "waiting for caregiver"
	case models.StatusDeclined:
		return "declined by caregiver"
	default:
		return string(s)
	}
}

func formatBookings(handle string, views []models.BookingView, loc *time.Location) string {
	if len(views) == 0 {
		return msgNoBookings
	}

	var sb strings.Builder
	sb.WriteString("Your bookings:")
	for _, v := range views {
		fmt.Fprintf(&sb, "\n\n%s, %s\n%s", v.Event.Title, formatWhen(v.Event, loc), statusText(v.Status))
		if v.Attendee != handle {
			fmt.Fprintf(&sb, " (for @%s)", v.Attendee)
		}
	}

	return sb.String()
}

func formatAttendance(ev models.Event, rows []models.Attendance, loc *time.Location) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s, %s\n%d of %d seats taken", ev.Title, formatWhen(ev, loc), ev.BookedSeats, ev.Capacity)
	if len(rows) == 0 {
		sb.WriteString("\n\nNo bookings yet.")
		return sb.String()
	}

	for _, r := range rows {
		fmt.Fprintf(&sb, "\n@%s", r.Handle)
		if r.FullName != "" {
			fmt.Fprintf(&sb, " %s", r.FullName)
		}
		fmt.Fprintf(&sb, ", %s", statusText(r.Status))
		if r.Holder != r.Handle {
			fmt.Fprintf(&sb, ", booked by @%s", r.Holder)
		}
	}

	return sb.String()
}
