package bot

import (
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"careBooker/internal/services/booking"
	"careBooker/internal/services/catalog"
	"careBooker/internal/services/profiles"
	"context"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"log/slog"
	"strings"
	"time"
)

// Sender is the part of *tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Catalog interface {
	CreateEvent(ctx context.Context, in catalog.NewEvent) (models.Event, error)
	ListUpcoming(ctx context.Context, year int, month time.Month) ([]models.Event, error)
	Get(ctx context.Context, id int64) (models.Event, error)
	Location() *time.Location
}

type Profiles interface {
	Touch(ctx context.Context, handle string, chatID int64) (models.Profile, error)
	Register(ctx context.Context, handle string, role models.Role, fullName, phone string) (models.Profile, error)
	Profile(ctx context.Context, handle string) (models.Profile, error)
	LinkIndividual(ctx context.Context, caregiver, individual string) error
	UnlinkIndividual(ctx context.Context, caregiver, individual string) error
	LinkedIndividuals(ctx context.Context, caregiver string) ([]models.Profile, error)
	AttendanceFor(ctx context.Context, eventID int64) ([]models.Attendance, error)
}

type Bookings interface {
	Book(ctx context.Context, req booking.Request) (booking.Result, error)
	Cancel(ctx context.Context, eventID int64, attendee string) error
	ConfirmCaregiver(ctx context.Context, eventID int64, caregiver, attendee string, accept bool) (models.Booking, error)
	BookingsFor(ctx context.Context, handle string) ([]models.BookingView, error)
	CanActFor(ctx context.Context, actor, attendee string) (bool, error)
}

type Bot struct {
	log      *slog.Logger
	sender   Sender
	catalog  Catalog
	profiles Profiles
	bookings Bookings
	sessions *SessionStore
	admin    *adminGate
	now      func() time.Time
}

type Options struct {
	AdminSecret            string
	AdminAttemptsPerMinute int
}

func New(log *slog.Logger, sender Sender, c Catalog, p Profiles, b Bookings, opts Options) *Bot {
	return &Bot{
		log:      log,
		sender:   sender,
		catalog:  c,
		profiles: p,
		bookings: b,
		sessions: NewSessionStore(),
		admin:    newAdminGate(opts.AdminSecret, opts.AdminAttemptsPerMinute),
		now:      time.Now,
	}
}

// Run handles updates one at a time until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	const op = "bot.Run"

	b.log.Info("bot started", slog.String("op", op))

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopped", slog.String("op", op))
			return
		case upd, ok := <-updates:
			if !ok {
				b.log.Info("updates channel closed", slog.String("op", op))
				return
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// chat identifies who an update came from and where replies go.
type chat struct {
	handle string
	id     int64
}

func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	const op = "bot.HandleUpdate"

	log := b.log.With(slog.String("op", op), slog.Int("update_id", upd.UpdateID))

	var (
		from   *tgbotapi.User
		chatID int64
	)
	switch {
	case upd.CallbackQuery != nil:
		from = upd.CallbackQuery.From
		if upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil {
			chatID = upd.CallbackQuery.Message.Chat.ID
		}
	case upd.Message != nil:
		from = upd.Message.From
		if upd.Message.Chat != nil {
			chatID = upd.Message.Chat.ID
		}
	default:
		return
	}
	if from == nil {
		return
	}
	if chatID == 0 {
		chatID = from.ID
	}

	if upd.CallbackQuery != nil {
		if _, err := b.sender.Request(tgbotapi.NewCallback(upd.CallbackQuery.ID, "")); err != nil {
			log.Warn("failed to answer callback", sl.Err(err))
		}
	}

	c := chat{handle: profiles.NormalizeHandle(from.UserName), id: chatID}
	if c.handle == "" {
		b.reply(c, msgNoUsername, nil)
		return
	}

	p, err := b.profiles.Touch(ctx, c.handle, c.id)
	if err != nil {
		log.Error("failed to touch profile", sl.Err(err))
		b.reply(c, errorText(err), nil)
		return
	}

	sess, err := b.sessions.Load(c.handle)
	if err != nil {
		log.Error("failed to load session, starting over", sl.Err(err))
	}
	if sess.State == StateStart && p.Registered() {
		sess.Reset()
	}

	if upd.CallbackQuery != nil {
		b.handleCallback(ctx, c, p, &sess, upd.CallbackQuery.Data)
	} else {
		b.handleMessage(ctx, c, p, &sess, upd.Message)
	}

	if err = b.sessions.Save(c.handle, sess); err != nil {
		log.Error("failed to save session", sl.Err(err))
	}
}

func (b *Bot) handleMessage(ctx context.Context, c chat, p models.Profile, sess *Session, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, c, p, sess, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
		return
	}

	text := strings.TrimSpace(msg.Text)

	switch sess.State {
	case StateRegisterName:
		b.onRegisterName(c, sess, text)
	case StateRegisterPhone:
		b.onRegisterPhone(ctx, c, sess, text)
	case StateAdminLogin:
		b.onAdminSecret(c, p, sess, text)
	case StateCreateEvent:
		b.onEventDraft(ctx, c, p, sess, text)
	default:
		if !p.Registered() {
			b.reply(c, msgStartFirst, nil)
			return
		}
		b.reply(c, msgUseButtons, nil)
	}
}

func (b *Bot) handleCommand(ctx context.Context, c chat, p models.Profile, sess *Session, cmd, args string) {
	if cmd == "start" {
		b.onStart(c, p, sess)
		return
	}
	if cmd == "cancel" {
		if !p.Registered() {
			*sess = NewSession()
			b.reply(c, msgCancelled+" "+msgStartFirst, nil)
			return
		}
		sess.Reset()
		b.reply(c, msgCancelled, nil)
		b.showMenu(c, p, sess)
		return
	}
	if !p.Registered() {
		b.reply(c, msgStartFirst, nil)
		return
	}

	switch cmd {
	case "menu":
		sess.Reset()
		b.showMenu(c, p, sess)
	case "my":
		sess.Reset()
		b.showMyBookings(ctx, c, p)
	case "link":
		b.onLink(ctx, c, p, args, true)
	case "unlink":
		b.onLink(ctx, c, p, args, false)
	case "admin":
		sess.Reset()
		b.onAdmin(c, p, sess)
	default:
		b.reply(c, msgUnknownCommand, nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, c chat, p models.Profile, sess *Session, data string) {
	const op = "bot.handleCallback"

	cb, err := decodeCallback(data)
	if err != nil {
		b.log.Warn("bad callback", slog.String("op", op), slog.String("data", data), sl.Err(err))
		b.stale(c, p, sess)
		return
	}

	if cb.Action == actRole {
		b.onRole(c, p, sess, cb)
		return
	}
	if !p.Registered() {
		b.reply(c, msgStartFirst, nil)
		return
	}

	switch cb.Action {
	case actMenu:
		sess.Reset()
		b.showMenu(c, p, sess)
	case actMy:
		sess.Reset()
		b.showMyBookings(ctx, c, p)
	case actCaregiver:
		b.onCaregiverAnswer(ctx, c, cb)
	case actCancel:
		b.onCancelBooking(ctx, c, cb)
	case actBrowse:
		b.onBrowse(ctx, c, p, sess, cb)
	case actEvent:
		b.onEventDetail(ctx, c, p, sess, cb)
	case actBook:
		b.onBook(ctx, c, p, sess)
	case actAttendee:
		b.onChooseAttendee(ctx, c, p, sess, cb)
	case actConfirm:
		b.onConfirm(ctx, c, p, sess)
	case actBack:
		b.onBack(ctx, c, p, sess)
	case actAskCarer:
		b.onAskCaregiver(ctx, c, p, sess, cb)
	case actAdminNew:
		b.onAdminNewEvent(c, p, sess)
	case actAdminList:
		b.onAdminList(ctx, c, p, sess, cb)
	case actAdminAtt:
		b.onAdminAttendance(ctx, c, p, sess, cb)
	case actAdminMenu:
		b.onAdminMenu(c, p, sess)
	default:
		b.stale(c, p, sess)
	}
}

// advance moves the session on, or treats the button as stale and returns
// the user to the menu.
func (b *Bot) advance(c chat, p models.Profile, sess *Session, to State) bool {
	if err := sess.Advance(to); err != nil {
		b.log.Debug("rejected transition", slog.String("handle", c.handle), sl.Err(err))
		b.stale(c, p, sess)
		return false
	}
	return true
}

func (b *Bot) stale(c chat, p models.Profile, sess *Session) {
	b.reply(c, msgStale, nil)
	if !p.Registered() {
		*sess = NewSession()
		b.reply(c, msgStartFirst, nil)
		return
	}
	sess.Reset()
	b.showMenu(c, p, sess)
}

func (b *Bot) reply(c chat, text string, markup any) {
	msg := tgbotapi.NewMessage(c.id, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	b.send(msg)
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	const op = "bot.send"

	if _, err := b.sender.Send(msg); err != nil {
		b.log.Error("failed to send message", slog.String("op", op), sl.Err(err))
	}
}
