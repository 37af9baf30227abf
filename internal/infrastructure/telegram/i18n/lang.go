package i18n

import "strings"

// Lang represents a supported language
type Lang string

const (
	IT Lang = "it"
	EN Lang = "en"
)

// Default is used for chats whose language is unknown, such as a client
// notified because of an operator's action.
const Default = IT

// DetectLang maps Telegram's language_code to a supported language.
// Only English speakers get English; everyone else gets Italian.
func DetectLang(languageCode string) Lang {
	if strings.HasPrefix(strings.ToLower(languageCode), "en") {
		return EN
	}
	return IT
}

// pick returns the text for lang.
func pick(lang Lang, it, en string) string {
	if lang == EN {
		return en
	}
	return it
}
