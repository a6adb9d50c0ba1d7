package voice

import "strings"

// SanitizeSpeechText strips emphasis markup that generation models sprinkle
// into prose. TTS engines read the markers aloud otherwise.
func SanitizeSpeechText(text string) string {
	if text == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch r {
		case '*', '_', '`', '#':
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
