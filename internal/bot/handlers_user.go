package bot

import (
	"careBooker/internal/lib/apperr"
	"careBooker/internal/lib/logger/sl"
	"careBooker/internal/models"
	"careBooker/internal/services/booking"
	"careBooker/internal/services/profiles"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

func (b *Bot) onStart(c chat, p models.Profile, sess *Session) {
	admin := sess.Admin
	*sess = NewSession()
	sess.Admin = admin

	if p.Registered() {
		if b.advance(c, p, sess, StateMenu) {
			b.showMenu(c, p, sess)
		}
		return
	}

	if b.advance(c, p, sess, StateRoleSelect) {
		b.reply(c, msgChooseRole, roleKeyboard())
	}
}

func (b *Bot) showMenu(c chat, p models.Profile, sess *Session) {
	b.reply(c, fmt.Sprintf("Hi, %s. What would you like to do?", p.DisplayName()), menuKeyboard(sess.Admin))
}

func (b *Bot) onRole(c chat, p models.Profile, sess *Session, cb Callback) {
	if p.Registered() {
		b.reply(c, errorText(&apperr.AlreadyRegisteredError{Handle: p.Handle, Role: string(p.Role)}), nil)
		sess.Reset()
		b.showMenu(c, p, sess)
		return
	}

	role := models.Role(cb.Arg(0))
	if !role.Valid() {
		b.stale(c, p, sess)
		return
	}
	if !b.advance(c, p, sess, StateRegisterName) {
		return
	}

	sess.Role = role
	b.reply(c, msgAskName, nil)
}

func (b *Bot) onRegisterName(c chat, sess *Session, text string) {
	if text == "" {
		b.reply(c, msgAskName, nil)
		return
	}

	sess.FullName = text
	if err := sess.Advance(StateRegisterPhone); err != nil {
		b.log.Error("registration out of order", slog.String("handle", c.handle), sl.Err(err))
		return
	}
	b.reply(c, msgAskPhone, nil)
}

func (b *Bot) onRegisterPhone(ctx context.Context, c chat, sess *Session, text string) {
	phone := skip(text)

	p, err := b.profiles.Register(ctx, c.handle, sess.Role, sess.FullName, phone)
	if err != nil {
		b.reply(c, errorText(err), nil)
		if apperr.IsAlreadyRegistered(err) {
			if p, err = b.profiles.Profile(ctx, c.handle); err == nil {
				sess.Reset()
				b.showMenu(c, p, sess)
			}
			return
		}
		*sess = NewSession()
		b.reply(c, msgStartFirst, nil)
		return
	}

	if !b.advance(c, p, sess, StateMenu) {
		return
	}
	sess.Role, sess.FullName = "", ""

	text = fmt.Sprintf("Thanks, %s! You are registered as %s.", p.DisplayName(), p.Role)
	if p.Role == models.RoleCaregiver {
		text += " Link the people you care for with /link @handle."
	}
	b.reply(c, text, nil)
	b.showMenu(c, p, sess)
}

func (b *Bot) onLink(ctx context.Context, c chat, p models.Profile, args string, link bool) {
	cmd := "unlink"
	if link {
		cmd = "link"
	}

	if p.Role != models.RoleCaregiver {
		b.reply(c, msgCaregiversOnly, nil)
		return
	}

	target := profiles.NormalizeHandle(args)
	if target == "" {
		b.reply(c, fmt.Sprintf(msgLinkUsage, cmd), nil)
		return
	}

	if link {
		if err := b.profiles.LinkIndividual(ctx, c.handle, target); err != nil {
			b.reply(c, errorText(err), nil)
			return
		}
		b.reply(c, fmt.Sprintf("Linked @%s. You can now book activities for them.", target), nil)
		return
	}

	if err := b.profiles.UnlinkIndividual(ctx, c.handle, target); err != nil {
		b.reply(c, errorText(err), nil)
		return
	}
	b.reply(c, fmt.Sprintf("Unlinked @%s.", target), nil)
}

func (b *Bot) showMyBookings(ctx context.Context, c chat, p models.Profile) {
	views, err := b.bookings.BookingsFor(ctx, c.handle)
	if err != nil {
		b.log.Error("failed to list bookings", slog.String("handle", c.handle), sl.Err(err))
		b.reply(c, errorText(err), nil)
		return
	}

	b.reply(c, formatBookings(c.handle, views, b.catalog.Location()), myBookingsKeyboard(p, views))
}

// onCaregiverAnswer handles Accept/Decline buttons. They carry the event and
// attendee, so the caregiver's own session is left alone.
func (b *Bot) onCaregiverAnswer(ctx context.Context, c chat, cb Callback) {
	eventID, err := cb.Int(1)
	attendee := cb.Arg(2)
	if err != nil || attendee == "" {
		b.reply(c, msgStale, nil)
		return
	}

	bk, err := b.bookings.ConfirmCaregiver(ctx, eventID, c.handle, attendee, cb.Arg(0) == answerYes)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}

	b.reply(c, fmt.Sprintf("Booking for @%s is now %s.", attendee, statusText(bk.Status)), nil)
}

func (b *Bot) onCancelBooking(ctx context.Context, c chat, cb Callback) {
	eventID, err := cb.Int(0)
	attendee := cb.Arg(1)
	if err != nil || attendee == "" {
		b.reply(c, msgStale, nil)
		return
	}

	ok, err := b.bookings.CanActFor(ctx, c.handle, attendee)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}
	if !ok {
		b.reply(c, errorText(&apperr.AuthError{Reason: "you can only cancel your own bookings or those of people you care for"}), nil)
		return
	}

	if err = b.bookings.Cancel(ctx, eventID, attendee); err != nil {
		b.reply(c, errorText(err), nil)
		return
	}
	b.reply(c, "Booking cancelled.", doneKeyboard())
}

func (b *Bot) onBrowse(ctx context.Context, c chat, p models.Profile, sess *Session, cb Callback) {
	year, month, ok := b.monthOf(cb)
	if !ok {
		b.stale(c, p, sess)
		return
	}
	if !b.advance(c, p, sess, StateBrowseActivities) {
		return
	}
	sess.Year, sess.Month = year, month
	sess.EventID, sess.Attendee = 0, ""

	events, err := b.catalog.ListUpcoming(ctx, year, month)
	if err != nil {
		b.log.Error("failed to list events", slog.String("handle", c.handle), sl.Err(err))
		b.reply(c, errorText(err), nil)
		return
	}

	loc := b.catalog.Location()
	text := monthTitle(year, month)
	if len(events) == 0 {
		text += "\n" + msgNoEvents
	}
	b.reply(c, text, eventsKeyboard(events, year, month, loc))
}

func (b *Bot) onEventDetail(ctx context.Context, c chat, p models.Profile, sess *Session, cb Callback) {
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
	if !b.advance(c, p, sess, StateActivityDetail) {
		return
	}

	sess.EventID = ev.ID
	b.showEvent(c, ev)
}

func (b *Bot) showEvent(c chat, ev models.Event) {
	loc := b.catalog.Location()
	b.reply(c, formatEvent(ev, loc), eventDetailKeyboard(ev, loc))
}

func (b *Bot) onBook(ctx context.Context, c chat, p models.Profile, sess *Session) {
	if sess.State != StateActivityDetail {
		b.stale(c, p, sess)
		return
	}

	if p.Role == models.RoleCaregiver {
		linked, err := b.profiles.LinkedIndividuals(ctx, c.handle)
		if err != nil {
			b.reply(c, errorText(err), nil)
			return
		}
		if len(linked) > 0 {
			if b.advance(c, p, sess, StateChooseAttendee) {
				b.reply(c, "Who is this booking for?", attendeeKeyboard(p, linked))
			}
			return
		}
	}

	b.confirmFor(ctx, c, p, sess, c.handle)
}

func (b *Bot) onChooseAttendee(ctx context.Context, c chat, p models.Profile, sess *Session, cb Callback) {
	attendee := cb.Arg(0)
	if attendee == "" {
		b.stale(c, p, sess)
		return
	}
	b.confirmFor(ctx, c, p, sess, attendee)
}

func (b *Bot) confirmFor(ctx context.Context, c chat, p models.Profile, sess *Session, attendee string) {
	ev, err := b.catalog.Get(ctx, sess.EventID)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}
	if !b.advance(c, p, sess, StateConfirmBooking) {
		return
	}
	sess.Attendee = attendee

	who := "you"
	if attendee != c.handle {
		who = "@" + attendee
	}
	b.reply(c, fmt.Sprintf("Book %s, %s for %s?", ev.Title, formatWhen(ev, b.catalog.Location()), who), confirmKeyboard())
}

func (b *Bot) onConfirm(ctx context.Context, c chat, p models.Profile, sess *Session) {
	if sess.State != StateConfirmBooking {
		b.stale(c, p, sess)
		return
	}

	attendee, err := b.profiles.Profile(ctx, sess.Attendee)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}

	if attendee.Role == models.RoleIndividual && attendee.Caregiver != "" {
		if b.advance(c, p, sess, StateCaregiverPrompt) {
			b.reply(c, fmt.Sprintf("Should @%s confirm attendance first?", attendee.Caregiver), askCaregiverKeyboard())
		}
		return
	}

	b.book(ctx, c, p, sess, false)
}

func (b *Bot) onAskCaregiver(ctx context.Context, c chat, p models.Profile, sess *Session, cb Callback) {
	if sess.State != StateCaregiverPrompt {
		b.stale(c, p, sess)
		return
	}
	b.book(ctx, c, p, sess, cb.Arg(0) == answerYes)
}

// book writes the booking. Success and failure both end the flow.
func (b *Bot) book(ctx context.Context, c chat, p models.Profile, sess *Session, askCaregiver bool) {
	const op = "bot.book"

	eventID, attendee := sess.EventID, sess.Attendee
	if !b.advance(c, p, sess, StateDone) {
		return
	}
	sess.EventID, sess.Attendee = 0, ""

	res, err := b.bookings.Book(ctx, booking.Request{
		EventID:            eventID,
		Holder:             c.handle,
		Attendee:           attendee,
		CaregiverRequested: askCaregiver,
	})
	if err != nil {
		b.log.Info("booking refused",
			slog.String("op", op),
			slog.String("handle", c.handle),
			sl.Err(err),
		)
		b.reply(c, errorText(err), doneKeyboard())
		return
	}

	when := formatWhen(res.Event, b.catalog.Location())
	if res.Booking.Status == models.StatusPending {
		b.reply(c, fmt.Sprintf("Request sent. @%s has been asked to confirm @%s for %s, %s.",
			res.Caregiver, res.Booking.Attendee, res.Event.Title, when), doneKeyboard())
		return
	}
	b.reply(c, fmt.Sprintf("Booked: %s, %s.", res.Event.Title, when), doneKeyboard())
}

func (b *Bot) onBack(ctx context.Context, c chat, p models.Profile, sess *Session) {
	if sess.State != StateChooseAttendee && sess.State != StateConfirmBooking {
		b.stale(c, p, sess)
		return
	}

	ev, err := b.catalog.Get(ctx, sess.EventID)
	if err != nil {
		b.reply(c, errorText(err), nil)
		return
	}
	if !b.advance(c, p, sess, StateActivityDetail) {
		return
	}
	sess.Attendee = ""
	b.showEvent(c, ev)
}

// monthOf reads year and month from a callback, defaulting to the current
// month in the catalog's location.
func (b *Bot) monthOf(cb Callback) (int, time.Month, bool) {
	if len(cb.Args) == 0 {
		now := b.now().In(b.catalog.Location())
		return now.Year(), now.Month(), true
	}

	year, err := strconv.Atoi(cb.Arg(0))
	if err != nil {
		return 0, 0, false
	}
	month, err := strconv.Atoi(cb.Arg(1))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, false
	}

	return year, time.Month(month), true
}

func monthTitle(year int, month time.Month) string {
	return fmt.Sprintf("Activities in %s %d:", month, year)
}

// skip maps the "-" answer to an empty value.
func skip(text string) string {
	if text == "-" {
		return ""
	}
	return text
}
