package bot

import (
	"careBooker/internal/lib/logger/handlers/slogdiscard"
	"careBooker/internal/models"
	"careBooker/internal/services/booking"
	"careBooker/internal/services/catalog"
	"careBooker/internal/services/profiles"
	"careBooker/internal/storage/sqlite"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "s3cret"

type recorder struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests int
}

func (r *recorder) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, c)
	return tgbotapi.Message{MessageID: len(r.sent)}, nil
}

func (r *recorder) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (r *recorder) messages(chatID int64) []tgbotapi.MessageConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []tgbotapi.MessageConfig
	for _, c := range r.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) last(t *testing.T, chatID int64) tgbotapi.MessageConfig {
	t.Helper()
	msgs := r.messages(chatID)
	require.NotEmpty(t, msgs, "no messages to chat %d", chatID)
	return msgs[len(msgs)-1]
}

func (r *recorder) texts(chatID int64) []string {
	var out []string
	for _, m := range r.messages(chatID) {
		out = append(out, m.Text)
	}
	return out
}

func (r *recorder) documents() []tgbotapi.DocumentConfig {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []tgbotapi.DocumentConfig
	for _, c := range r.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

func buttonData(m tgbotapi.MessageConfig) []string {
	kb, ok := m.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != nil {
				out = append(out, *b.CallbackData)
			}
		}
	}
	return out
}

type harness struct {
	bot      *Bot
	rec      *recorder
	store    *sqlite.Storage
	catalog  *catalog.Catalog
	registry *profiles.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	s, err := sqlite.New(filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	log := slogdiscard.NewDiscardLogger()
	rec := &recorder{}
	reg := profiles.New(log, s)
	cat := catalog.New(log, s, time.UTC)
	engine := booking.New(log, s, NewNotifier(log, rec, reg, time.UTC))

	b := New(log, rec, cat, reg, engine, Options{AdminSecret: testSecret, AdminAttemptsPerMinute: 2})
	b.now = func() time.Time { return time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC) }

	return &harness{bot: b, rec: rec, store: s, catalog: cat, registry: reg}
}

func (h *harness) say(handle string, chatID int64, text string) {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatID, UserName: handle},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}
	if strings.HasPrefix(text, "/") {
		n := len(text)
		if i := strings.IndexByte(text, ' '); i > 0 {
			n = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: n}}
	}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (h *harness) press(handle string, chatID int64, data string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: chatID, UserName: handle},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
			Data:    data,
		},
	})
}

// member registers handle directly and records its chat.
func (h *harness) member(t *testing.T, handle string, chatID int64, role models.Role) {
	t.Helper()
	ctx := context.Background()
	_, err := h.registry.Touch(ctx, handle, chatID)
	require.NoError(t, err)
	_, err = h.registry.Register(ctx, handle, role, strings.ToUpper(handle[:1])+handle[1:], "")
	require.NoError(t, err)
}

func (h *harness) event(t *testing.T, title string, day, hour, capacity int) models.Event {
	t.Helper()
	start := time.Date(2026, 11, day, hour, 0, 0, 0, time.UTC)
	ev, err := h.catalog.CreateEvent(context.Background(), catalog.NewEvent{
		Title:    title,
		Start:    start,
		End:      start.Add(time.Hour),
		Capacity: capacity,
	})
	require.NoError(t, err)
	return ev
}

func TestRegistrationFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	h.say("Ann_Lee", 10, "/start")
	assert.Equal(t, msgChooseRole, h.rec.last(t, 10).Text)
	assert.ElementsMatch(t, []string{"role:individual", "role:caregiver"}, buttonData(h.rec.last(t, 10)))

	h.press("Ann_Lee", 10, "role:individual")
	assert.Equal(t, msgAskName, h.rec.last(t, 10).Text)

	h.say("Ann_Lee", 10, "Ann Lee")
	assert.Equal(t, msgAskPhone, h.rec.last(t, 10).Text)

	h.say("Ann_Lee", 10, "-")
	assert.Contains(t, h.rec.texts(10), "Thanks, Ann Lee! You are registered as individual.")
	assert.Equal(t, "Hi, Ann Lee. What would you like to do?", h.rec.last(t, 10).Text)

	p, err := h.registry.Profile(context.Background(), "ann_lee")
	require.NoError(t, err)
	assert.Equal(t, models.RoleIndividual, p.Role)
	assert.Empty(t, p.Phone)
	assert.EqualValues(t, 10, p.ChatID)

	h.press("Ann_Lee", 10, "role:caregiver")
	assert.Contains(t, h.rec.texts(10), "You are already registered as individual.")

	assert.Positive(t, h.rec.requests, "callbacks are answered")
}

func TestUnregisteredAndAnonymous(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	h.say("newbie", 20, "/menu")
	assert.Equal(t, msgStartFirst, h.rec.last(t, 20).Text)

	h.press("newbie", 20, "browse")
	assert.Equal(t, msgStartFirst, h.rec.last(t, 20).Text)

	h.say("", 21, "/start")
	assert.Equal(t, msgNoUsername, h.rec.last(t, 21).Text)
}

func TestBookingFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.member(t, "anna", 30, models.RoleIndividual)
	ev := h.event(t, "Pottery", 3, 10, 2)

	h.press("anna", 30, "browse")
	last := h.rec.last(t, 30)
	assert.Equal(t, "Activities in November 2026:", last.Text)
	assert.Contains(t, buttonData(last), fmt.Sprintf("ev:%d", ev.ID))
	assert.Contains(t, buttonData(last), "browse:2026:12")

	h.press("anna", 30, fmt.Sprintf("ev:%d", ev.ID))
	last = h.rec.last(t, 30)
	assert.Contains(t, last.Text, "Pottery")
	assert.Contains(t, last.Text, "Seats left: 2 of 2")
	assert.Contains(t, buttonData(last), "book")

	h.press("anna", 30, "book")
	assert.Equal(t, "Book Pottery, Tue 03 Nov 10:00-11:00 for you?", h.rec.last(t, 30).Text)

	h.press("anna", 30, "ok")
	assert.Equal(t, "Booked: Pottery, Tue 03 Nov 10:00-11:00.", h.rec.last(t, 30).Text)

	n, err := h.store.CountConfirmed(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	h.press("anna", 30, "ok")
	texts := h.rec.texts(30)
	assert.Equal(t, msgStale, texts[len(texts)-2], "a second press of an old button is stale")
	assert.Equal(t, "Hi, Anna. What would you like to do?", texts[len(texts)-1])
}

func TestBookingConflictEndsFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.member(t, "anna", 31, models.RoleIndividual)
	first := h.event(t, "Choir", 4, 10, 5)
	clash := h.event(t, "Yoga", 4, 10, 5)

	for _, ev := range []models.Event{first, clash} {
		h.press("anna", 31, "browse")
		h.press("anna", 31, fmt.Sprintf("ev:%d", ev.ID))
		h.press("anna", 31, "book")
		h.press("anna", 31, "ok")
	}

	last := h.rec.last(t, 31)
	assert.Equal(t, `That clashes with another booking: @anna is already booked for "Choir" at that time.`, last.Text)
	assert.ElementsMatch(t, []string{"browse", "my", "menu"}, buttonData(last))

	h.press("anna", 31, "browse")
	last = h.rec.last(t, 31)
	assert.Equal(t, "Activities in November 2026:", last.Text)
	assert.Contains(t, buttonData(last), fmt.Sprintf("ev:%d", clash.ID))
}

func TestCaregiverFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.member(t, "carer", 40, models.RoleCaregiver)
	h.member(t, "ivy", 41, models.RoleIndividual)

	h.say("carer", 40, "/link @Ivy")
	assert.Equal(t, "Linked @ivy. You can now book activities for them.", h.rec.last(t, 40).Text)

	ev := h.event(t, "Garden club", 5, 14, 3)

	h.press("carer", 40, "browse:2026:11")
	h.press("carer", 40, fmt.Sprintf("ev:%d", ev.ID))
	h.press("carer", 40, "book")
	last := h.rec.last(t, 40)
	assert.Equal(t, "Who is this booking for?", last.Text)
	assert.ElementsMatch(t, []string{"att:carer", "att:ivy", "back"}, buttonData(last))

	h.press("carer", 40, "att:ivy")
	assert.Equal(t, "Book Garden club, Thu 05 Nov 14:00-15:00 for @ivy?", h.rec.last(t, 40).Text)

	h.press("carer", 40, "ok")
	assert.Equal(t, "Should @carer confirm attendance first?", h.rec.last(t, 40).Text)

	h.press("carer", 40, "ask:y")

	prompt := fmt.Sprintf("cg:y:%d:ivy", ev.ID)
	texts := h.rec.texts(40)
	assert.Contains(t, texts, "Request sent. @carer has been asked to confirm @ivy for Garden club, Thu 05 Nov 14:00-15:00.")

	var prompted bool
	for _, m := range h.rec.messages(40) {
		for _, data := range buttonData(m) {
			prompted = prompted || data == prompt
		}
	}
	assert.True(t, prompted, "caregiver received the accept button")

	b, err := h.store.Booking(ctx, ev.ID, "ivy")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, b.Status)

	// the prompt works whatever state the caregiver is in
	h.say("carer", 40, "/admin")
	h.press("carer", 40, prompt)
	assert.Equal(t, "Booking for @ivy is now confirmed.", h.rec.last(t, 40).Text)
	assert.Equal(t, "Your booking for Garden club, Thu 05 Nov 14:00-15:00 is confirmed.", h.rec.last(t, 41).Text)

	b, err = h.store.Booking(ctx, ev.ID, "ivy")
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)

	h.press("carer", 40, prompt)
	assert.Contains(t, h.rec.last(t, 40).Text, "Not found: pending booking")
}

func TestLinkCommands(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.member(t, "carer", 50, models.RoleCaregiver)
	h.member(t, "ivy", 51, models.RoleIndividual)

	h.say("ivy", 51, "/link @carer")
	assert.Equal(t, msgCaregiversOnly, h.rec.last(t, 51).Text)

	h.say("carer", 50, "/link")
	assert.Equal(t, "Usage: /link @handle", h.rec.last(t, 50).Text)

	h.say("carer", 50, "/unlink @ivy")
	assert.Equal(t, "Not found: link @carer -> @ivy.", h.rec.last(t, 50).Text)

	h.say("carer", 50, "/link @ivy")
	h.say("carer", 50, "/unlink @ivy")
	assert.Equal(t, "Unlinked @ivy.", h.rec.last(t, 50).Text)
}

func TestMyBookingsAndCancel(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	h.member(t, "anna", 60, models.RoleIndividual)
	h.member(t, "boris", 61, models.RoleIndividual)
	ev := h.event(t, "Pottery", 3, 10, 2)

	h.say("anna", 60, "/my")
	assert.Equal(t, msgNoBookings, h.rec.last(t, 60).Text)

	h.press("anna", 60, "browse")
	h.press("anna", 60, fmt.Sprintf("ev:%d", ev.ID))
	h.press("anna", 60, "book")
	h.press("anna", 60, "ok")

	h.say("anna", 60, "/my")
	last := h.rec.last(t, 60)
	assert.Contains(t, last.Text, "Pottery, Tue 03 Nov 10:00-11:00\nconfirmed")
	cancel := fmt.Sprintf("cancel:%d:anna", ev.ID)
	assert.Contains(t, buttonData(last), cancel)

	h.press("boris", 61, cancel)
	assert.Contains(t, h.rec.last(t, 61).Text, "Access denied")

	h.press("anna", 60, cancel)
	assert.Equal(t, "Booking cancelled.", h.rec.last(t, 60).Text)

	h.press("anna", 60, cancel)
	assert.Equal(t, fmt.Sprintf("Not found: booking %d/@anna.", ev.ID), h.rec.last(t, 60).Text)

	n, err := h.store.CountConfirmed(ctx, ev.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdminFlow(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.member(t, "boss", 70, models.RoleCaregiver)

	h.press("boss", 70, "adm_new")
	assert.Contains(t, h.rec.last(t, 70).Text, "use /admin to log in first")

	h.say("boss", 70, "/admin")
	assert.Equal(t, msgAskSecret, h.rec.last(t, 70).Text)

	h.say("boss", 70, "guess")
	assert.Contains(t, h.rec.last(t, 70).Text, "Access denied: wrong secret.")

	h.say("boss", 70, testSecret)
	assert.Equal(t, msgAdminWelcome, h.rec.last(t, 70).Text)

	h.press("boss", 70, "adm_new")
	assert.Equal(t, draftPrompts[0], h.rec.last(t, 70).Text)

	for _, answer := range []string{"Board games", "-", "Hall", "2026-11-05 10:00"} {
		h.say("boss", 70, answer)
	}
	h.say("boss", 70, "5 Nov 9am")
	assert.Equal(t, "Please use the format 2006-01-02 15:04.", h.rec.last(t, 70).Text)
	h.say("boss", 70, "2026-11-05 09:00")
	assert.Contains(t, h.rec.last(t, 70).Text, "The end must be after the start")
	h.say("boss", 70, "2026-11-05 11:30")
	h.say("boss", 70, "zero")
	assert.Equal(t, "Please send a positive whole number.", h.rec.last(t, 70).Text)
	h.say("boss", 70, "3")

	last := h.rec.last(t, 70)
	assert.True(t, strings.HasPrefix(last.Text, "Created:\n\nBoard games\nThu 05 Nov 10:00-11:30\nHall"), last.Text)

	events, err := h.catalog.ListUpcoming(context.Background(), 2026, time.November)
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, 3, ev.Capacity)

	h.member(t, "anna", 71, models.RoleIndividual)
	h.press("anna", 71, "browse")
	h.press("anna", 71, fmt.Sprintf("ev:%d", ev.ID))
	h.press("anna", 71, "book")
	h.press("anna", 71, "ok")

	h.press("boss", 70, "adm_list:2026:11")
	assert.Contains(t, buttonData(h.rec.last(t, 70)), fmt.Sprintf("adm_att:%d", ev.ID))

	h.press("boss", 70, fmt.Sprintf("adm_att:%d", ev.ID))
	assert.Contains(t, h.rec.texts(70), "Board games, Thu 05 Nov 10:00-11:30\n1 of 3 seats taken\n@anna Anna, confirmed")

	docs := h.rec.documents()
	require.Len(t, docs, 1)
	file, ok := docs[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, fmt.Sprintf("attendance-%d.csv", ev.ID), file.Name)
	assert.Equal(t, "handle,full_name,role,status,holder\nanna,Anna,individual,confirmed,anna\n", string(file.Bytes))
}

func TestAdminLoginThrottled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.member(t, "mallory", 80, models.RoleIndividual)

	h.say("mallory", 80, "/admin")
	h.say("mallory", 80, "one")
	h.say("mallory", 80, "two")
	h.say("mallory", 80, testSecret)

	assert.Contains(t, h.rec.last(t, 80).Text, "too many attempts")

	h.say("mallory", 80, "/cancel")
	texts := h.rec.texts(80)
	assert.Equal(t, msgCancelled, texts[len(texts)-2])
}
