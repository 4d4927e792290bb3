package createEvent

import (
	"bytes"
	"careBooker/internal/http-server/handlers/event/createEvent/mocks"
	"careBooker/internal/lib/apperr"
	"careBooker/internal/lib/logger/handlers/slogdiscard"
	"careBooker/internal/models"
	"careBooker/internal/services/catalog"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"title": "Pottery",
	"description": "Bring an apron",
	"location": "Studio",
	"start": "2026-11-05T10:00:00Z",
	"end": "2026-11-05T11:30:00Z",
	"capacity": 8
}`

var (
	testStart = time.Date(2026, 11, 5, 10, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 11, 5, 11, 30, 0, 0, time.UTC)

	validInput = catalog.NewEvent{
		Title:       "Pottery",
		Description: "Bring an apron",
		Location:    "Studio",
		Start:       testStart,
		End:         testEnd,
		Capacity:    8,
	}
)

func TestCreateEventHandler(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()

	testCases := []struct {
		name           string
		requestBody    string
		mockSetup      func(m *mocks.EventCreator)
		expectedStatus int
		expectedBody   string
		checkBody      func(t *testing.T, body string)
	}{
		{
			name:        "Success",
			requestBody: validBody,
			mockSetup: func(m *mocks.EventCreator) {
				m.On("CreateEvent", mock.Anything, validInput).
					Return(models.Event{ID: 12, Title: "Pottery", Start: testStart, End: testEnd, Capacity: 8}, nil)
			},
			expectedStatus: http.StatusCreated,
			checkBody: func(t *testing.T, body string) {
				assert.Contains(t, body, `"status":"OK"`)
				assert.Contains(t, body, `"id":12`)
			},
		},
		{
			name:           "Invalid JSON",
			requestBody:    `invalid json`,
			mockSetup:      func(m *mocks.EventCreator) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:           "Missing title",
			requestBody:    `{"start": "2026-11-05T10:00:00Z", "end": "2026-11-05T11:30:00Z", "capacity": 8}`,
			mockSetup:      func(m *mocks.EventCreator) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"field Title is a required field"}`,
		},
		{
			name:           "Invalid time format",
			requestBody:    `{"title": "Pottery", "start": "tomorrow", "end": "2026-11-05T11:30:00Z", "capacity": 8}`,
			mockSetup:      func(m *mocks.EventCreator) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode request"}`,
		},
		{
			name:        "Rejected by catalog",
			requestBody: validBody,
			mockSetup: func(m *mocks.EventCreator) {
				m.On("CreateEvent", mock.Anything, validInput).
					Return(models.Event{}, apperr.Validation("End", "must be after Start"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid End: must be after Start"}`,
		},
		{
			name:        "Internal server error",
			requestBody: validBody,
			mockSetup: func(m *mocks.EventCreator) {
				m.On("CreateEvent", mock.Anything, validInput).
					Return(models.Event{}, errors.New("database is locked"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"failed to add event"}`,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mockCreator := mocks.NewEventCreator(t)
			tc.mockSetup(mockCreator)

			handler := New(logger, mockCreator)

			req, err := http.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(tc.requestBody))
			require.NoError(t, err)

			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code, "Status code mismatch")

			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String(), "Response body mismatch")
			} else if tc.checkBody != nil {
				tc.checkBody(t, rr.Body.String())
			}
		})
	}
}

func TestValidationErrors(t *testing.T) {
	t.Parallel()

	logger := slogdiscard.NewDiscardLogger()
	mockCreator := mocks.NewEventCreator(t)
	handler := New(logger, mockCreator)

	req, err := http.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(`{}`))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)

	body := rr.Body.String()
	for _, field := range []string{"Title", "Start", "End", "Capacity"} {
		assert.Contains(t, body, field)
	}
}

func TestSuccessResponseFormat(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()

	responseOK(rr, req, models.Event{ID: 456, Title: "Art Jam", Capacity: 4, Start: testStart, End: testEnd})

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp EventResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	assert.Equal(t, "OK", resp.Status)
	assert.Empty(t, resp.Error)
	require.NotNil(t, resp.Event)
	assert.EqualValues(t, 456, resp.Event.ID)
	assert.Equal(t, "Art Jam", resp.Event.Title)
	assert.True(t, testStart.Equal(resp.Event.Start))
}
