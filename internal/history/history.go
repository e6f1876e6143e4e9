// Package history holds the view helpers shared by the history and saved
// listings: which page to request, bulk-delete marks and display labels.
package history

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"wordsmith/internal/api"
)

type Filter int

const (
	All Filter = iota
	SavedOnly
)

// Query is the request for the first page of f. Saved items use a larger
// page.
func Query(f Filter) api.HistoryQuery {
	if f == SavedOnly {
		return api.HistoryQuery{Page: 1, PageSize: 100, SavedOnly: true}
	}
	return api.HistoryQuery{Page: 1, PageSize: 50}
}

// Marks is an insertion-ordered set of item ids picked for deletion.
// The zero value is empty and ready to use.
type Marks struct {
	ids []string
}

// Toggle flips id and reports whether it is now marked.
func (m *Marks) Toggle(id string) bool {
	if i := slices.Index(m.ids, id); i >= 0 {
		m.ids = slices.Delete(m.ids, i, i+1)
		return false
	}
	m.ids = append(m.ids, id)
	return true
}

func (m *Marks) Has(id string) bool { return slices.Contains(m.ids, id) }
func (m *Marks) IDs() []string      { return slices.Clone(m.ids) }
func (m *Marks) Len() int           { return len(m.ids) }
func (m *Marks) Clear()             { m.ids = nil }

// Ago renders created relative to now: "Just now", "42s ago", "5m ago",
// "3h ago", "Yesterday", "4d ago", then a short date such as "Mar 4".
func Ago(created, now time.Time) string {
	d := now.Sub(created)
	secs := int(d / time.Second)
	mins := secs / 60
	hours := mins / 60
	days := hours / 24
	switch {
	case secs < 10:
		return "Just now"
	case mins < 1:
		return fmt.Sprintf("%ds ago", secs)
	case hours < 1:
		return fmt.Sprintf("%dm ago", mins)
	case days < 1:
		return fmt.Sprintf("%dh ago", hours)
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	}
	return created.In(now.Location()).Format("Jan 2")
}

// TypeLabel turns a service type like "grammar_fix" into "GRAMMAR FIX".
func TypeLabel(wire string) string {
	return strings.ToUpper(strings.ReplaceAll(wire, "_", " "))
}
