package indicator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultDisplayName = "Eyra"

type messages struct {
	modePrefix string
	thinking   string
	errorText  string
}

// messagesFor builds notification text around the configured app name, so a
// renamed desktop entry reads consistently in every notification.
func messagesFor(appName string) messages {
	name := displayName(appName)
	return messages{
		modePrefix: name + ": ",
		thinking:   name + " is thinking…",
		errorText:  name + " error",
	}
}

func displayName(appName string) string {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return defaultDisplayName
	}
	first, size := utf8.DecodeRuneInString(appName)
	return string(unicode.ToUpper(first)) + appName[size:]
}
