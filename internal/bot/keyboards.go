package bot

import (
	"careBooker/internal/models"
	"fmt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"strconv"
	"time"
)

func button(text, action string, args ...string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, mustCallback(action, args...))
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func monthArgs(year int, month time.Month) []string {
	return []string{strconv.Itoa(year), strconv.Itoa(int(month))}
}

func roleKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("Individual", actRole, string(models.RoleIndividual)),
			button("Caregiver", actRole, string(models.RoleCaregiver)),
		),
	)
}

func menuKeyboard(admin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(button("Browse activities", actBrowse)),
		tgbotapi.NewInlineKeyboardRow(button("My bookings", actMy)),
	}
	if admin {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("Admin", actAdminMenu)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func monthNav(action string, year int, month time.Month) []tgbotapi.InlineKeyboardButton {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	prev := first.AddDate(0, -1, 0)
	next := first.AddDate(0, 1, 0)

	return tgbotapi.NewInlineKeyboardRow(
		button("< "+prev.Format("Jan"), action, monthArgs(prev.Year(), prev.Month())...),
		button(next.Format("Jan")+" >", action, monthArgs(next.Year(), next.Month())...),
	)
}

func eventsKeyboard(events []models.Event, year int, month time.Month, loc *time.Location) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(events)+2)
	for _, ev := range events {
		label := fmt.Sprintf("%s %s", ev.Start.In(loc).Format(dayLayout), ev.Title)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, actEvent, id(ev.ID))))
	}
	rows = append(rows,
		monthNav(actBrowse, year, month),
		tgbotapi.NewInlineKeyboardRow(button("Menu", actMenu)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func eventDetailKeyboard(ev models.Event, loc *time.Location) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if ev.SeatsLeft() > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("Book", actBook)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("Back to list", actBrowse, monthArgs(ev.Start.In(loc).Year(), ev.Start.In(loc).Month())...),
		button("Menu", actMenu),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func attendeeKeyboard(self models.Profile, linked []models.Profile) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(button("Myself", actAttendee, self.Handle)),
	}
	for _, ind := range linked {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(ind.DisplayName(), actAttendee, ind.Handle)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("Back", actBack)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("Confirm", actConfirm),
			button("Back", actBack),
		),
	)
}

func askCaregiverKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("Yes, ask caregiver", actAskCarer, answerYes),
			button("No, book now", actAskCarer, answerNo),
		),
	)
}

func doneKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("Browse activities", actBrowse)),
		tgbotapi.NewInlineKeyboardRow(
			button("My bookings", actMy),
			button("Menu", actMenu),
		),
	)
}

// caregiverKeyboard carries everything needed to answer, so the caregiver
// can press it from any state.
func caregiverKeyboard(eventID int64, attendee string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("Accept", actCaregiver, answerYes, id(eventID), attendee),
			button("Decline", actCaregiver, answerNo, id(eventID), attendee),
		),
	)
}

func myBookingsKeyboard(self models.Profile, views []models.BookingView) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, v := range views {
		who := ""
		if v.Attendee != self.Handle {
			who = " @" + v.Attendee
		}
		if v.Status == models.StatusPending && self.Role == models.RoleCaregiver && v.Attendee != self.Handle {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				button("Accept "+v.Event.Title+who, actCaregiver, answerYes, id(v.EventID), v.Attendee),
				button("Decline", actCaregiver, answerNo, id(v.EventID), v.Attendee),
			))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("Cancel "+v.Event.Title+who, actCancel, id(v.EventID), v.Attendee),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("Menu", actMenu)))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("Create activity", actAdminNew)),
		tgbotapi.NewInlineKeyboardRow(button("Activities and attendance", actAdminList)),
		tgbotapi.NewInlineKeyboardRow(button("Leave admin", actMenu)),
	)
}

func adminEventsKeyboard(events []models.Event, year int, month time.Month, loc *time.Location) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(events)+2)
	for _, ev := range events {
		label := fmt.Sprintf("%s %s (%d/%d)", ev.Start.In(loc).Format(dayLayout), ev.Title, ev.BookedSeats, ev.Capacity)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button(label, actAdminAtt, id(ev.ID))))
	}
	rows = append(rows,
		monthNav(actAdminList, year, month),
		tgbotapi.NewInlineKeyboardRow(button("Admin menu", actAdminMenu)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
