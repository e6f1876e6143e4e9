package transform

import (
	"strings"
	"unicode"
)

// NewOffline returns an InProcess remote backed by Rewrite, for use without
// a running service.
func NewOffline() *InProcess { return NewInProcess(Rewrite) }

// Rewrite is a small deterministic stand-in for each service transformation
// type. Unknown types return the trimmed text.
func Rewrite(wireType, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	switch wireType {
	case "grammar_fix":
		r := []rune(text)
		r[0] = unicode.ToUpper(r[0])
		out := string(r)
		if !strings.ContainsAny(out[len(out)-1:], ".!?") {
			out += "."
		}
		return out
	case "formal":
		return strings.NewReplacer("hey", "Hello", "can't", "cannot", "won't", "will not", "gonna", "going to").Replace(text)
	case "friendly":
		return "Hey! " + text
	case "shorten":
		words := strings.Fields(text)
		if len(words) <= 3 {
			return text
		}
		return strings.Join(words[:(len(words)+1)/2], " ") + "…"
	case "expand":
		r := []rune(text)
		r[0] = unicode.ToLower(r[0])
		return text + " In other words, " + string(r)
	case "bullet":
		var lines []string
		for _, s := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '\n' }) {
			if s = strings.TrimSpace(s); s != "" {
				lines = append(lines, "• "+s)
			}
		}
		return strings.Join(lines, "\n")
	case "emoji":
		return text + " ✨"
	case "tweetify":
		const tag = " #wordsmith"
		limit := 280 - len([]rune(tag))
		r := []rune(text)
		if len(r) > limit {
			r = r[:limit]
		}
		return string(r) + tag
	}
	return text
}
