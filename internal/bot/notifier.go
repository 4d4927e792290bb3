package bot

import (
	"careBooker/internal/models"
	"context"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"log/slog"
	"time"
)

type ProfileLookup interface {
	Profile(ctx context.Context, handle string) (models.Profile, error)
}

// Notifier sends booking prompts and outcomes to the people involved. It
// implements booking.Notifier.
type Notifier struct {
	log      *slog.Logger
	sender   Sender
	profiles ProfileLookup
	loc      *time.Location
}

func NewNotifier(log *slog.Logger, sender Sender, profiles ProfileLookup, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{log: log, sender: sender, profiles: profiles, loc: loc}
}

func (n *Notifier) ConfirmationRequested(ctx context.Context, req models.ConfirmationRequest) error {
	const op = "bot.Notifier.ConfirmationRequested"

	chatID, err := n.chatOf(ctx, req.Caregiver)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	attendee := "@" + req.Attendee
	if p, err := n.profiles.Profile(ctx, req.Attendee); err == nil {
		attendee = p.DisplayName()
	}

	text := fmt.Sprintf("%s would like to attend %s, %s. Do you confirm?",
		attendee, req.Event.Title, formatWhen(req.Event, n.loc))
	if req.Holder != req.Attendee && req.Holder != req.Caregiver {
		text += fmt.Sprintf("\nBooked by @%s.", req.Holder)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = caregiverKeyboard(req.Event.ID, req.Attendee)
	if _, err = n.sender.Send(msg); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n.log.Debug("caregiver prompted",
		slog.String("op", op),
		slog.String("caregiver", req.Caregiver),
		slog.Int64("event_id", req.Event.ID),
	)

	return nil
}

// ConfirmationResolved tells the holder, and the attendee when they differ,
// how the caregiver answered.
func (n *Notifier) ConfirmationResolved(ctx context.Context, b models.Booking, ev models.Event) error {
	const op = "bot.Notifier.ConfirmationResolved"

	text := fmt.Sprintf("Your booking for %s, %s is %s.", ev.Title, formatWhen(ev, n.loc), statusText(b.Status))

	recipients := []string{b.Holder}
	if b.Attendee != b.Holder {
		recipients = append(recipients, b.Attendee)
	}

	var firstErr error
	for _, handle := range recipients {
		chatID, err := n.chatOf(ctx, handle)
		if err == nil {
			_, err = n.sender.Send(tgbotapi.NewMessage(chatID, text))
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: @%s: %w", op, handle, err)
		}
	}

	return firstErr
}

func (n *Notifier) chatOf(ctx context.Context, handle string) (int64, error) {
	p, err := n.profiles.Profile(ctx, handle)
	if err != nil {
		return 0, err
	}
	if p.ChatID == 0 {
		return 0, fmt.Errorf("@%s has not started the bot", handle)
	}
	return p.ChatID, nil
}
