// Package session is the presentation state of the interactive client:
// which tab is open, the input and result, the selected options and
// whether a run is in flight.
package session

import (
	"strings"

	"wordsmith/internal/api"
	"wordsmith/internal/catalog"
	"wordsmith/internal/monitor"
	"wordsmith/internal/pipeline"
	"wordsmith/internal/selection"
)

type Tab string

const (
	Chat    Tab = "chat"
	History Tab = "history"
	Saved   Tab = "saved"
)

// Ticket identifies one run. A result is applied only if its ticket is
// still current.
type Ticket uint64

type Session struct {
	Tab        Tab
	Input      string
	Output     string
	ShowResult bool
	Loading    bool
	HistoryID  string
	Backend    monitor.Status
	Selection  selection.Manager

	gen Ticket
}

func New() *Session { return &Session{Tab: Chat, Backend: monitor.Checking} }

func (s *Session) CanConvert() bool {
	return strings.TrimSpace(s.Input) != "" &&
		s.Selection.Len() > 0 &&
		!s.Loading &&
		s.Backend == monitor.Connected
}

// Begin marks a run as started and returns its ticket.
func (s *Session) Begin() Ticket {
	s.gen++
	s.Loading = true
	s.ShowResult = false
	return s.gen
}

// Finish applies the outcome of run t. It reports false, changing nothing,
// when t was superseded by Reset or a newer run. The history id only moves
// on success.
func (s *Session) Finish(t Ticket, res pipeline.Result, err error) bool {
	if t != s.gen {
		return false
	}
	s.Loading = false
	s.ShowResult = true
	switch {
	case err != nil:
		s.Output = "Error: " + err.Error()
	case !res.Succeeded():
		s.Output = res.FinalText
	default:
		s.Output = res.FinalText
		s.HistoryID = res.LastStepID
	}
	return true
}

// Reset returns to an empty chat. A run still in flight is orphaned: its
// result is dropped by Finish.
func (s *Session) Reset() {
	s.gen++
	s.Input = ""
	s.Output = ""
	s.ShowResult = false
	s.Loading = false
	s.HistoryID = ""
	s.Selection.Clear()
}

// UseHistory reopens item in the chat tab as a shown result.
func (s *Session) UseHistory(item api.HistoryItem) {
	s.gen++
	s.Loading = false
	s.Input = item.OriginalText
	s.Output = item.TransformedText
	s.HistoryID = item.ID
	if err := s.Selection.Select(catalog.FromWire(item.TransformationType)); err != nil {
		s.Selection.Clear()
	}
	s.ShowResult = true
	s.Tab = Chat
}

// SetTab switches tabs. Entering chat always shows the input view.
func (s *Session) SetTab(t Tab) {
	s.Tab = t
	if t == Chat {
		s.ShowResult = false
	}
}

var resultTitles = map[string]string{
	"grammar":  "Grammar Fixed",
	"formal":   "Formal Tone",
	"friendly": "Friendly Tone",
	"shorten":  "Shortened",
	"expand":   "Expanded",
	"bullet":   "Bullet Points",
	"emoji":    "With Emojis",
	"tweetify": "Tweet Ready",
}

// ResultTitle names the result view after the selected option, or
// "Transformed" when several (or unknown) options produced it.
func (s *Session) ResultTitle() string {
	ids := s.Selection.Selected()
	if len(ids) == 1 {
		if t, ok := resultTitles[ids[0]]; ok {
			return t
		}
	}
	return "Transformed"
}
