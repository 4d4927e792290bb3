package bot

import (
	"careBooker/internal/models"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionAdvance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{name: "start to role select", from: StateStart, to: StateRoleSelect},
		{name: "registered start goes to menu", from: StateStart, to: StateMenu},
		{name: "browse next month", from: StateBrowseActivities, to: StateBrowseActivities},
		{name: "confirm to caregiver prompt", from: StateConfirmBooking, to: StateCaregiverPrompt},
		{name: "caregiver prompt to done", from: StateCaregiverPrompt, to: StateDone},
		{name: "attendance back to list", from: StateViewAttendance, to: StateViewEvents},
		{name: "skip registration", from: StateRoleSelect, to: StateMenu, wantErr: true},
		{name: "book without confirming", from: StateActivityDetail, to: StateDone, wantErr: true},
		{name: "admin menu without login", from: StateStart, to: StateAdminMenu, wantErr: true},
		{name: "done back to confirm", from: StateDone, to: StateConfirmBooking, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := Session{State: tc.from}
			err := s.Advance(tc.to)

			if tc.wantErr {
				require.ErrorIs(t, err, ErrIllegalTransition)
				assert.Equal(t, tc.from, s.State, "state must not change")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.to, s.State)
		})
	}
}

func TestEveryStateHasTransitions(t *testing.T) {
	t.Parallel()

	for _, s := range []State{
		StateStart, StateRoleSelect, StateRegisterName, StateRegisterPhone, StateMenu,
		StateBrowseActivities, StateActivityDetail, StateChooseAttendee, StateConfirmBooking,
		StateCaregiverPrompt, StateDone,
		StateAdminLogin, StateAdminMenu, StateCreateEvent, StateViewEvents, StateViewAttendance,
	} {
		assert.NotEmpty(t, transitions[s], "state %s", s)
	}
}

func TestSessionReset(t *testing.T) {
	t.Parallel()

	s := Session{State: StateConfirmBooking, Admin: true, EventID: 3, Attendee: "ivy"}
	s.Reset()

	assert.Equal(t, Session{State: StateMenu, Admin: true}, s)
}

func TestSessionJSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := Session{
		State:    StateCreateEvent,
		Admin:    true,
		Role:     models.RoleCaregiver,
		Year:     2026,
		Month:    time.November,
		EventID:  7,
		Attendee: "ivy",
		Draft: &EventDraft{
			Step:  4,
			Title: "Pottery",
			Start: time.Date(2026, 11, 5, 10, 0, 0, 0, time.UTC),
		},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out Session
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)
}

func TestSessionStore(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()

	s, err := store.Load("ann")
	require.NoError(t, err)
	assert.Equal(t, NewSession(), s)

	s.State = StateBrowseActivities
	s.Year, s.Month = 2026, time.December
	require.NoError(t, store.Save("ann", s))

	got, err := store.Load("ann")
	require.NoError(t, err)
	assert.Equal(t, s, got)

	store.Delete("ann")
	got, err = store.Load("ann")
	require.NoError(t, err)
	assert.Equal(t, StateStart, got.State)
}
