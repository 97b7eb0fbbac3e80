package translation

import (
	"github.com/leonelquinteros/gotext"
)

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "zh"
	}

	return lang
}

// Translate resolves a user-facing message. Without an installed locale the
// msgid itself is returned, so reply strings double as the default wording.
func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
