package chain

import (
	"testing"

	"github.com/botflow/botflow/internal/update"
)

func msg(text string) *update.Update {
	return &update.Update{ID: 1, Message: &update.Message{Text: text, Chat: update.Chat{ID: 1}}}
}

func TestPredicates(t *testing.T) {
	callback := &update.Update{ID: 2, CallbackQuery: &update.CallbackQuery{Data: "menu:open"}}
	inline := &update.Update{ID: 3, InlineQuery: &update.InlineQuery{Query: "search"}}
	post := &update.Update{ID: 4, ChannelPost: &update.Message{Text: "announcement"}}

	tests := []struct {
		name string
		p    Predicate
		u    *update.Update
		want bool
	}{
		{"any matches message", Any(), msg("hi"), true},
		{"any matches callback", Any(), callback, true},

		{"command exact", Command("start"), msg("/start"), true},
		{"command with args", Command("start"), msg("/start deep-link"), true},
		{"command with bot suffix", Command("start"), msg("/start@mybot"), true},
		{"command leading slash in name", Command("/start"), msg("/start"), true},
		{"command mismatch", Command("start"), msg("/stop"), false},
		{"command not a command", Command("start"), msg("start"), false},
		{"command non-message", Command("start"), callback, false},

		{"text plain", Text(), msg("hello"), true},
		{"text rejects command", Text(), msg("/start"), false},
		{"text rejects empty", Text(), msg(""), false},
		{"text rejects callback", Text(), callback, false},

		{"text prefix", TextPrefix("he"), msg("hello"), true},
		{"text prefix mismatch", TextPrefix("xx"), msg("hello"), false},

		{"callback", Callback(), callback, true},
		{"callback rejects message", Callback(), msg("hi"), false},
		{"callback prefix", CallbackPrefix("menu:"), callback, true},
		{"callback prefix mismatch", CallbackPrefix("cart:"), callback, false},

		{"inline", Inline(), inline, true},
		{"inline rejects message", Inline(), msg("hi"), false},

		{"channel post", ChannelPost(), post, true},
		{"channel post rejects message", ChannelPost(), msg("hi"), false},

		{"not", Not(Text()), msg("/start"), true},
		{"all matches", All(Text(), TextPrefix("he")), msg("hello"), true},
		{"all short-circuits", All(Text(), TextPrefix("xx")), msg("hello"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p(tt.u); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
