package services

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxMessageLength = 200

var (
	pathPattern   = regexp.MustCompile(`(?:/[^\s/]+)+/?`)
	secretPattern = regexp.MustCompile(`(?i)(key|token|secret|password)[=:]\s*\S+`)
)

// SanitizeMessage prepares an error message for persistence. Filesystem paths
// are replaced with a [path] placeholder, credential-looking tokens are
// redacted, and the result is capped so oversized tool output cannot bloat
// the queue database.
func SanitizeMessage(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return ""
	}
	message = pathPattern.ReplaceAllString(message, "[path]")
	message = secretPattern.ReplaceAllString(message, "$1=[redacted]")
	if len(message) > maxMessageLength {
		cut := maxMessageLength - 3
		// Back up to a rune boundary so the cap never splits a character.
		for cut > 0 && !utf8.RuneStart(message[cut]) {
			cut--
		}
		message = message[:cut] + "..."
	}
	return message
}
