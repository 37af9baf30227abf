package telegram

import (
	"strings"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/telegram/i18n"
)

// Session is everything a handler needs to know about the update being
// processed. It is built per update and never stored.
type Session struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
	Lang      i18n.Lang
	Operator  bool

	// Set for callback queries only.
	CallbackID string
	MessageID  int64
}

// newSession returns false for updates that carry no human sender.
func newSession(u *Update, isOperator func(int64) bool) (Session, bool) {
	var from *User
	var chat *Chat
	var s Session
	switch {
	case u.CallbackQuery != nil:
		from = u.CallbackQuery.From
		s.CallbackID = u.CallbackQuery.ID
		if m := u.CallbackQuery.Message; m != nil {
			chat = m.Chat
			s.MessageID = m.MessageID
		}
	case u.Message != nil:
		from = u.Message.From
		chat = u.Message.Chat
	}
	if from == nil || from.IsBot {
		return Session{}, false
	}

	s.UserID = from.ID
	s.ChatID = from.ID
	if chat != nil {
		s.ChatID = chat.ID
	}
	s.Username = from.Username
	s.FirstName = from.FirstName
	s.LastName = from.LastName
	s.Lang = i18n.DetectLang(from.LanguageCode)
	s.Operator = isOperator(from.ID)
	return s, true
}

// command splits "/request@bot bet365" into ("request", "bet365").
func command(text string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	return strings.ToLower(head), strings.TrimSpace(rest), head != ""
}
