package bot

import (
	"bytes"
	"careBooker/internal/lib/apperr"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"careBooker/internal/services/catalog"
	"context"
	"crypto/subtle"
	"encoding/csv"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// adminGate checks the admin secret and throttles attempts per handle.
type adminGate struct {
	secret []byte
	limit  rate.Limit
	burst  int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newAdminGate(secret string, perMinute int) *adminGate {
	if perMinute <= 0 {
		perMinute = 5
	}
	return &adminGate{
		secret:   []byte(secret),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (g *adminGate) limiter(handle string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[handle]
	if !ok {
		l = rate.NewLimiter(g.limit, g.burst)
		g.limiters[handle] = l
	}
	return l
}

func (g *adminGate) Check(handle, attempt string) error {
	if !g.limiter(handle).Allow() {
		return &apperr.AuthError{Reason: "too many attempts, try again in a minute"}
	}
	if len(g.secret) == 0 || subtle.ConstantTimeCompare([]byte(attempt), g.secret) != 1 {
		return &apperr.AuthError{Reason: "wrong secret"}
	}
	return nil
}

var draftPrompts = []string{
	"Title of the activity?",
	"Description? Send - to skip.",
	"Location? Send - to skip.",
	"Start time, as " + inputLayout + "?",
	"End time, as " + inputLayout + "?",
	"How many seats?",
}

func (b *Bot) onAdmin(c chat, p models.Profile, sess *Session) {
	if sess.Admin {
		if b.advance(c, p, sess, StateAdminMenu) {
			b.reply(c, msgAdminWelcome, adminMenuKeyboard())
		}
		return
	}

	if b.advance(c, p, sess, StateAdminLogin) {
		b.reply(c, msgAskSecret, nil)
	}
}

func (b *Bot) onAdminSecret(c chat, p models.Profile, sess *Session, text string) {
	const op = "bot.onAdminSecret"

	if err := b.admin.Check(c.handle, text); err != nil {
		b.log.Warn("admin login refused", slog.String("op", op), slog.String("handle", c.handle), sl.Err(err))
		b.reply(c, errorText(err)+" Send the secret again or /cancel.", nil)
		return
	}

	if !b.advance(c, p, sess, StateAdminMenu) {
		return
	}
	sess.Admin = true

	b.log.Info("admin logged in", slog.String("op", op), slog.String("handle", c.handle))
	b.reply(c, msgAdminWelcome, adminMenuKeyboard())
}

func (b *Bot) requireAdmin(c chat, sess *Session) bool {
	if sess.Admin {
		return true
	}
	b.reply(c, errorText(&apperr.AuthError{Reason: "use /admin to log in first"}), nil)
	return false
}

func (b *Bot) onAdminMenu(c chat, p models.Profile, sess *Session) {
	if !b.requireAdmin(c, sess) {
		return
	}
	if sess.State != StateAdminMenu && !b.advance(c, p, sess, StateAdminMenu) {
		return
	}
	sess.Draft = nil
	b.reply(c, msgAdminWelcome, adminMenuKeyboard())
}

func (b *Bot) onAdminNewEvent(c chat, p models.Profile, sess *Session) {
	if !b.requireAdmin(c, sess) || !b.advance(c, p, sess, StateCreateEvent) {
		return
	}
	sess.Draft = &EventDraft{}
	b.reply(c, draftPrompts[0], nil)
}

// onEventDraft takes one answer of the create-activity dialogue.
func (b *Bot) onEventDraft(ctx context.Context, c chat, p models.Profile, sess *Session, text string) {
	const op = "bot.onEventDraft"

	d := sess.Draft
	if d == nil || !sess.Admin {
		b.stale(c, p, sess)
		return
	}

	loc := b.catalog.Location()

	switch d.Step {
	case 0:
		if text == "" {
			b.reply(c, draftPrompts[0], nil)
			return
		}
		d.Title = text
	case 1:
		d.Description = skip(text)
	case 2:
		d.Location = skip(text)
	case 3, 4:
		t, err := time.ParseInLocation(inputLayout, text, loc)
		if err != nil {
			b.reply(c, "Please use the format "+inputLayout+".", nil)
			return
		}
		if d.Step == 3 {
			d.Start = t
			break
		}
		if !t.After(d.Start) {
			b.reply(c, "The end must be after the start ("+d.Start.In(loc).Format(inputLayout)+").", nil)
			return
		}
		d.End = t
	case 5:
		seats, err := strconv.Atoi(text)
		if err != nil || seats <= 0 {
			b.reply(c, "Please send a positive whole number.", nil)
			return
		}

		ev, err := b.catalog.CreateEvent(ctx, catalog.NewEvent{
			Title:       d.Title,
			Description: d.Description,
			Location:    d.Location,
			Start:       d.Start,
			End:         d.End,
			Capacity:    seats,
		})
		if err != nil {
			b.log.Warn("event rejected", slog.String("op", op), sl.Err(err))
			sess.Draft = &EventDraft{}
			b.reply(c, errorText(err)+" Let's start again.\n"+draftPrompts[0], nil)
			return
		}

		if !b.advance(c, p, sess, StateAdminMenu) {
			return
		}
		sess.Draft = nil
		b.reply(c, "Created:\n\n"+formatEvent(ev, loc), adminMenuKeyboard())
		return
	}

	d.Step++
	b.reply(c, draftPrompts[d.Step], nil)
}

func (b *Bot) onAdminList(ctx context.Context, c chat, p models.Profile, sess *Session, cb Callback) {
	if !b.requireAdmin(c, sess) {
		return
	}

	year, month, ok := b.monthOf(cb)
	if !ok {
		b.stale(c, p, sess)
		return
	}
	if !b.advance(c, p, sess, StateViewEvents) {
		return
	}
	sess.Year, sess.Month = year, month

	events, err := b.catalog.ListUpcoming(ctx, year, month)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}

	text := monthTitle(year, month)
	if len(events) == 0 {
		text += "\n" + msgNoEvents
	}
	b.reply(c, text, adminEventsKeyboard(events, year, month, b.catalog.Location()))
}

func (b *Bot) onAdminAttendance(ctx context.Context, c chat, p models.Profile, sess *Session, cb Callback) {
	const op = "bot.onAdminAttendance"

	if !b.requireAdmin(c, sess) {
		return
	}

	eventID, err := cb.Int(0)
	if err != nil {
		b.stale(c, p, sess)
		return
	}

	ev, err := b.catalog.Get(ctx, eventID)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}
	rows, err := b.profiles.AttendanceFor(ctx, eventID)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}
	if !b.advance(c, p, sess, StateViewAttendance) {
		return
	}

	loc := b.catalog.Location()
	back := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		button("Back to list", actAdminList, monthArgs(sess.Year, sess.Month)...),
		button("Admin menu", actAdminMenu),
	))
	b.reply(c, formatAttendance(ev, rows, loc), back)

	data, err := attendanceCSV(rows)
	if err != nil {
		b.log.Error("failed to build attendance csv", slog.String("op", op), sl.Err(err))
		return
	}
	b.send(tgbotapi.NewDocument(c.id, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("attendance-%d.csv", ev.ID),
		Bytes: data,
	}))
}

func attendanceCSV(rows []models.Attendance) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"handle", "full_name", "role", "status", "holder"}); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Handle, r.FullName, string(r.Role), string(r.Status), r.Holder}); err != nil {
			return nil, err
		}
	}
	w.Flush()

	return buf.Bytes(), w.Error()
}
