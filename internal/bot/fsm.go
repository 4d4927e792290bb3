package bot

import (
	"careBooker/internal/models"
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StateStart         State = "start"
	StateRoleSelect    State = "role_select"
	StateRegisterName  State = "register_name"
	StateRegisterPhone State = "register_phone"
	StateMenu          State = "menu"

	StateBrowseActivities State = "browse_activities"
	StateActivityDetail   State = "activity_detail"
	StateChooseAttendee   State = "choose_attendee"
	StateConfirmBooking   State = "confirm_booking"
	StateCaregiverPrompt  State = "caregiver_prompt"
	StateDone             State = "done"

	StateAdminLogin     State = "admin_login"
	StateAdminMenu      State = "admin_menu"
	StateCreateEvent    State = "create_event"
	StateViewEvents     State = "view_events"
	StateViewAttendance State = "view_attendance"
)

var ErrIllegalTransition = errors.New("illegal transition")

// transitions lists, per state, the states a session may move to next.
// Returning to the menu goes through Session.Reset and is always allowed.
var transitions = map[State][]State{
	StateStart:         {StateRoleSelect, StateMenu},
	StateRoleSelect:    {StateRegisterName},
	StateRegisterName:  {StateRegisterPhone},
	StateRegisterPhone: {StateMenu},
	StateMenu:          {StateBrowseActivities, StateAdminLogin, StateAdminMenu},

	StateBrowseActivities: {StateBrowseActivities, StateActivityDetail},
	StateActivityDetail:   {StateBrowseActivities, StateChooseAttendee, StateConfirmBooking},
	StateChooseAttendee:   {StateActivityDetail, StateConfirmBooking},
	StateConfirmBooking:   {StateActivityDetail, StateCaregiverPrompt, StateDone},
	StateCaregiverPrompt:  {StateDone},
	StateDone:             {StateBrowseActivities},

	StateAdminLogin:     {StateAdminMenu},
	StateAdminMenu:      {StateCreateEvent, StateViewEvents},
	StateCreateEvent:    {StateAdminMenu},
	StateViewEvents:     {StateViewEvents, StateViewAttendance, StateAdminMenu},
	StateViewAttendance: {StateViewEvents, StateAdminMenu},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EventDraft collects the admin's answers while an event is being created.
type EventDraft struct {
	Step        int       `json:"step"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start,omitempty"`
	End         time.Time `json:"end,omitempty"`
}

// Session is one user's place in the conversation. It only ever lives in
// memory; bookings are written when ConfirmBooking or CaregiverPrompt
// resolves, so dropping a session leaves nothing behind.
type Session struct {
	State State `json:"state"`
	Admin bool  `json:"admin,omitempty"`

	Role     models.Role `json:"role,omitempty"`
	FullName string      `json:"full_name,omitempty"`

	Year     int        `json:"year,omitempty"`
	Month    time.Month `json:"month,omitempty"`
	EventID  int64      `json:"event_id,omitempty"`
	Attendee string     `json:"attendee,omitempty"`

	Draft *EventDraft `json:"draft,omitempty"`
}

func NewSession() Session {
	return Session{State: StateStart}
}

// Advance moves the session to the next state if the transition table
// allows it.
func (s *Session) Advance(to State) error {
	if !canTransition(s.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.State, to)
	}
	s.State = to
	return nil
}

// Reset drops any flow in progress and returns to the menu. The admin flag
// survives for the lifetime of the session.
func (s *Session) Reset() {
	*s = Session{State: StateMenu, Admin: s.Admin}
}
