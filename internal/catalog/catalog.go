// Package catalog holds the fixed set of transformation options offered to
// users and the mapping between option ids and the remote service's
// transformation types.
package catalog

import "strings"

type Category string

const (
	Tone    Category = "tone"
	Length  Category = "length"
	Neutral Category = "neutral"
)

// Exclusive reports whether at most one option of the category may be
// selected at a time.
func (c Category) Exclusive() bool { return c == Tone || c == Length }

type Option struct {
	ID       string
	Label    string
	Icon     string
	Category Category
	Wire     string // transformation_type understood by the service
}

var options = []Option{
	{ID: "grammar", Label: "Grammar Fix", Icon: "✏️", Category: Neutral, Wire: "grammar_fix"},
	{ID: "formal", Label: "Formal", Icon: "💼", Category: Tone, Wire: "formal"},
	{ID: "friendly", Label: "Friendly", Icon: "😊", Category: Tone, Wire: "friendly"},
	{ID: "shorten", Label: "Shorten", Icon: "✂️", Category: Length, Wire: "shorten"},
	{ID: "expand", Label: "Expand", Icon: "📈", Category: Length, Wire: "expand"},
	{ID: "bullet", Label: "Bullet", Icon: "🔘", Category: Neutral, Wire: "bullet"},
	{ID: "emoji", Label: "Emoji", Icon: "😎", Category: Neutral, Wire: "emoji"},
	{ID: "tweetify", Label: "Tweetify", Icon: "🐦", Category: Neutral, Wire: "tweetify"},
}

var (
	byID   = make(map[string]Option, len(options))
	byWire = make(map[string]Option, len(options))
)

func init() {
	for _, o := range options {
		byID[o.ID] = o
		byWire[o.Wire] = o
	}
}

// All returns the catalog in display order. The returned slice is a copy.
func All() []Option {
	return append([]Option(nil), options...)
}

func Lookup(id string) (Option, bool) {
	o, ok := byID[id]
	return o, ok
}

// FromWire maps a service transformation type back to an option id. Types the
// catalog does not know are returned unchanged.
func FromWire(wire string) string {
	if o, ok := byWire[wire]; ok {
		return o.ID
	}
	return wire
}

// IDs returns every option id in display order.
func IDs() []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.ID
	}
	return out
}

// Describe renders "Label (category)" for listings.
func (o Option) Describe() string {
	var b strings.Builder
	b.WriteString(o.Label)
	b.WriteString(" (")
	b.WriteString(string(o.Category))
	b.WriteString(")")
	return b.String()
}
