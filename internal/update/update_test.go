package update

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	raw := []byte(`{"update_id": 101, "message": {"message_id": 7, "chat": {"id": 42, "type": "private"}, "from": {"id": 9, "username": "alice"}, "date": 1700000000, "text": "/start now"}}`)

	u, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if u.ID != 101 {
		t.Errorf("expected id 101, got %d", u.ID)
	}
	if u.Kind() != KindMessage {
		t.Errorf("expected kind message, got %s", u.Kind())
	}
	if u.Message.Chat.ID != 42 {
		t.Errorf("expected chat id 42, got %d", u.Message.Chat.ID)
	}
	if u.Message.From.Username != "alice" {
		t.Errorf("expected username alice, got %q", u.Message.From.Username)
	}
	if u.ReceivedAt.IsZero() {
		t.Error("expected ReceivedAt to be stamped")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"malformed json", `{not json`},
		{"missing update_id", `{"message": {"text": "hi"}}`},
		{"zero update_id", `{"update_id": 0}`},
		{"negative update_id", `{"update_id": -3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Errorf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		u    Update
		want Kind
	}{
		{"message", Update{ID: 1, Message: &Message{}}, KindMessage},
		{"edited message", Update{ID: 1, EditedMessage: &Message{}}, KindEditedMessage},
		{"channel post", Update{ID: 1, ChannelPost: &Message{}}, KindChannelPost},
		{"edited channel post", Update{ID: 1, EditedChannelPost: &Message{}}, KindEditedChannelPost},
		{"callback query", Update{ID: 1, CallbackQuery: &CallbackQuery{}}, KindCallbackQuery},
		{"inline query", Update{ID: 1, InlineQuery: &InlineQuery{}}, KindInlineQuery},
		{"empty", Update{ID: 1}, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.Kind(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMessageCommand(t *testing.T) {
	tests := []struct {
		text     string
		wantName string
		wantArgs string
		wantOK   bool
	}{
		{"/start", "start", "", true},
		{"/start now please", "start", "now please", true},
		{"/START", "start", "", true},
		{"/deploy@mybot prod", "deploy", "prod", true},
		{"  /help  ", "help", "", true},
		{"hello", "", "", false},
		{"", "", "", false},
		{"/", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m := &Message{Text: tt.text}
			name, args, ok := m.Command()
			if ok != tt.wantOK {
				t.Fatalf("ok: expected %v, got %v", tt.wantOK, ok)
			}
			if name != tt.wantName {
				t.Errorf("name: expected %q, got %q", tt.wantName, name)
			}
			if args != tt.wantArgs {
				t.Errorf("args: expected %q, got %q", tt.wantArgs, args)
			}
		})
	}
}

func TestAnyMessage(t *testing.T) {
	m := &Message{MessageID: 1}
	if (&Update{ID: 1, EditedMessage: m}).AnyMessage() != m {
		t.Error("expected edited message payload")
	}
	if (&Update{ID: 1, CallbackQuery: &CallbackQuery{}}).AnyMessage() != nil {
		t.Error("expected nil for callback query update")
	}
}
