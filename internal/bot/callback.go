package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Telegram rejects callback data longer than this.
const maxCallbackLen = 64

const (
	actRole      = "role"
	actMenu      = "menu"
	actBrowse    = "browse"
	actEvent     = "ev"
	actBook      = "book"
	actAttendee  = "att"
	actConfirm   = "ok"
	actBack      = "back"
	actAskCarer  = "ask"
	actCaregiver = "cg"
	actMy        = "my"
	actCancel    = "cancel"
	actAdminNew  = "adm_new"
	actAdminList = "adm_list"
	actAdminAtt  = "adm_att"
	actAdminMenu = "adm_menu"
	answerYes    = "y"
	answerNo     = "n"
	callbackSep  = ":"
)

var (
	ErrCallbackTooLong = errors.New("callback data too long")
	ErrBadCallback     = errors.New("malformed callback data")
)

// Callback is a decoded inline-button payload of the form action:arg:arg.
type Callback struct {
	Action string
	Args   []string
}

func encodeCallback(action string, args ...string) (string, error) {
	parts := append([]string{action}, args...)
	for _, p := range parts {
		if strings.Contains(p, callbackSep) {
			return "", fmt.Errorf("%w: %q contains %q", ErrBadCallback, p, callbackSep)
		}
	}

	data := strings.Join(parts, callbackSep)
	if len(data) > maxCallbackLen {
		return "", fmt.Errorf("%w: %d bytes", ErrCallbackTooLong, len(data))
	}

	return data, nil
}

// mustCallback is for payloads built from ids and normalized handles, which
// never contain the separator and stay well under the limit.
func mustCallback(action string, args ...string) string {
	data, err := encodeCallback(action, args...)
	if err != nil {
		panic(err)
	}
	return data
}

func decodeCallback(data string) (Callback, error) {
	if data == "" || len(data) > maxCallbackLen {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}

	parts := strings.Split(data, callbackSep)
	if parts[0] == "" {
		return Callback{}, fmt.Errorf("%w: %q", ErrBadCallback, data)
	}

	return Callback{Action: parts[0], Args: parts[1:]}, nil
}

func (c Callback) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

func (c Callback) Int(i int) (int64, error) {
	v, err := strconv.ParseInt(c.Arg(i), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: arg %d of %s", ErrBadCallback, i, c.Action)
	}
	return v, nil
}
