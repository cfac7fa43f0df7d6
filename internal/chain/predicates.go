package chain

import (
	"strings"

	"github.com/botflow/botflow/internal/update"
)

// Predicate builders. These replace shorthand chain declarations with plain
// functions: a command chain is Register(Descriptor{Match: Command("start"), ...}).

// Any matches every update.
func Any() Predicate {
	return func(*update.Update) bool { return true }
}

// Command matches message updates whose text is the given bot command
// ("/name" or "/name@bot args"). The name is compared case-insensitively
// and without the leading slash.
func Command(name string) Predicate {
	name = strings.ToLower(strings.TrimPrefix(name, "/"))
	return func(u *update.Update) bool {
		if u.Message == nil {
			return false
		}
		got, _, ok := u.Message.Command()
		return ok && got == name
	}
}

// Text matches message updates carrying non-empty, non-command text.
func Text() Predicate {
	return func(u *update.Update) bool {
		if u.Message == nil || u.Message.Text == "" {
			return false
		}
		return !strings.HasPrefix(u.Message.Text, "/")
	}
}

// TextPrefix matches message updates whose text starts with prefix.
func TextPrefix(prefix string) Predicate {
	return func(u *update.Update) bool {
		return u.Message != nil && strings.HasPrefix(u.Message.Text, prefix)
	}
}

// Callback matches callback-query updates.
func Callback() Predicate {
	return func(u *update.Update) bool { return u.CallbackQuery != nil }
}

// CallbackPrefix matches callback-query updates whose data starts with prefix.
func CallbackPrefix(prefix string) Predicate {
	return func(u *update.Update) bool {
		return u.CallbackQuery != nil && strings.HasPrefix(u.CallbackQuery.Data, prefix)
	}
}

// Inline matches inline-query updates.
func Inline() Predicate {
	return func(u *update.Update) bool { return u.InlineQuery != nil }
}

// ChannelPost matches channel-post updates (edited or not).
func ChannelPost() Predicate {
	return func(u *update.Update) bool {
		return u.ChannelPost != nil || u.EditedChannelPost != nil
	}
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return func(u *update.Update) bool { return !p(u) }
}

// All matches when every given predicate matches.
func All(ps ...Predicate) Predicate {
	return func(u *update.Update) bool {
		for _, p := range ps {
			if !p(u) {
				return false
			}
		}
		return true
	}
}
