// Package update defines the envelope every ingestion source produces.
// An Update is an opaque, uniquely numbered event from the Telegram Bot API;
// exactly one of its payload fields is set, and the ID is the resume point
// for long polling.
package update

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the payload variant carried by an Update.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindMessage           Kind = "message"
	KindEditedMessage     Kind = "edited_message"
	KindChannelPost       Kind = "channel_post"
	KindEditedChannelPost Kind = "edited_channel_post"
	KindCallbackQuery     Kind = "callback_query"
	KindInlineQuery       Kind = "inline_query"
)

// Update is one event from the update source. At most one payload field is
// non-nil; ID is globally unique and monotonically increasing per source.
type Update struct {
	ID                int64          `json:"update_id"`
	Message           *Message       `json:"message,omitempty"`
	EditedMessage     *Message       `json:"edited_message,omitempty"`
	ChannelPost       *Message       `json:"channel_post,omitempty"`
	EditedChannelPost *Message       `json:"edited_channel_post,omitempty"`
	CallbackQuery     *CallbackQuery `json:"callback_query,omitempty"`
	InlineQuery       *InlineQuery   `json:"inline_query,omitempty"`

	// ReceivedAt is set by the ingestion source when the update enters the
	// process. It is not part of the wire format.
	ReceivedAt time.Time `json:"-"`
}

// Kind returns the payload discriminator for the update.
func (u *Update) Kind() Kind {
	switch {
	case u.Message != nil:
		return KindMessage
	case u.EditedMessage != nil:
		return KindEditedMessage
	case u.ChannelPost != nil:
		return KindChannelPost
	case u.EditedChannelPost != nil:
		return KindEditedChannelPost
	case u.CallbackQuery != nil:
		return KindCallbackQuery
	case u.InlineQuery != nil:
		return KindInlineQuery
	default:
		return KindUnknown
	}
}

// AnyMessage returns the message payload regardless of which message-shaped
// variant carries it, or nil for non-message updates.
func (u *Update) AnyMessage() *Message {
	switch {
	case u.Message != nil:
		return u.Message
	case u.EditedMessage != nil:
		return u.EditedMessage
	case u.ChannelPost != nil:
		return u.ChannelPost
	case u.EditedChannelPost != nil:
		return u.EditedChannelPost
	default:
		return nil
	}
}

// Message is a chat message payload.
type Message struct {
	MessageID int64  `json:"message_id"`
	From      *User  `json:"from,omitempty"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
}

// Command parses a "/name[@bot] [args]" message. It returns the lowercased
// command name without the slash, the trailing arguments, and whether the
// text was a command at all.
func (m *Message) Command() (name, args string, ok bool) {
	text := strings.TrimSpace(m.Text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	text = text[1:]
	parts := strings.SplitN(text, " ", 2)
	name = parts[0]
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	// Strip @botname suffix used in group chats.
	if at := strings.Index(name, "@"); at != -1 {
		name = name[:at]
	}

	name = strings.ToLower(name)
	if name == "" {
		return "", "", false
	}
	return name, args, true
}

// CallbackQuery is an inline-keyboard button press payload.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from,omitempty"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data,omitempty"`
}

// InlineQuery is an inline-mode query payload.
type InlineQuery struct {
	ID     string `json:"id"`
	From   *User  `json:"from,omitempty"`
	Query  string `json:"query"`
	Offset string `json:"offset,omitempty"`
}

// User identifies the sender of a payload.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	IsBot    bool   `json:"is_bot,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// DecodeError indicates a payload that could not be parsed into an Update.
// Webhook deliveries carrying one are acknowledged but never dispatched.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode update: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a single raw update payload and stamps its receive time.
func Decode(raw []byte) (*Update, error) {
	var u Update
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, &DecodeError{Err: err}
	}
	if u.ID <= 0 {
		return nil, &DecodeError{Err: fmt.Errorf("missing or invalid update_id")}
	}
	u.ReceivedAt = time.Now()
	return &u, nil
}
