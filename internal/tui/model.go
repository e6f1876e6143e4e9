// Package tui is the interactive terminal client: a chat tab to pick
// options and convert text, and history and saved tabs backed by the
// service.
package tui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wordsmith/internal/api"
	"wordsmith/internal/catalog"
	"wordsmith/internal/history"
	"wordsmith/internal/monitor"
	"wordsmith/internal/pipeline"
	"wordsmith/internal/session"
)

// HistoryService is satisfied by *api.Client.
type HistoryService interface {
	History(ctx context.Context, q api.HistoryQuery) (api.HistoryPage, error)
	SaveHistory(ctx context.Context, id string) error
	DeleteHistory(ctx context.Context, ids []string) (int, error)
}

type Deps struct {
	// Run executes the pipeline for one conversion.
	Run     func(ctx context.Context, text string, ids []string) (pipeline.Result, error)
	History HistoryService
	// Status delivers backend connectivity changes.
	Status  <-chan monitor.Status
	Recheck func()
	Now     func() time.Time
	// Copy puts text on the system clipboard. Defaults to clipboard.WriteAll.
	Copy func(text string) error
}

type focus int

const (
	focusInput focus = iota
	focusOptions
)

var tabs = []session.Tab{session.Chat, session.History, session.Saved}

type Model struct {
	deps    Deps
	styles  Styles
	sess    *session.Session
	input   textarea.Model
	spinner spinner.Model
	result  viewport.Model
	focus   focus
	optPos  int

	items   []api.HistoryItem
	itemPos int
	marks   history.Marks
	loading bool
	confirm []string // ids awaiting delete confirmation
	notice  string
	ok      bool // notice reports success

	width, height int
}

func New(deps Deps) *Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Copy == nil {
		deps.Copy = clipboard.WriteAll
	}
	ta := textarea.New()
	ta.Placeholder = "Paste your text here..."
	ta.CharLimit = api.MaxTextLength
	ta.ShowLineNumbers = false
	ta.SetHeight(5)
	ta.Focus()
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primary)
	return &Model{
		deps:    deps,
		styles:  DefaultStyles(),
		sess:    session.New(),
		input:   ta,
		spinner: sp,
		result:  viewport.New(80, 12),
	}
}

// Session exposes the presentation state, mainly for tests.
func (m *Model) Session() *session.Session { return m.sess }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitStatus(m.deps.Status))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(msg.Width-4, 20))
		m.result.Width = max(msg.Width-4, 20)
		m.result.Height = max(msg.Height-12, 5)
		return m, nil

	case spinner.TickMsg:
		if !m.sess.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.sess.Backend = monitor.Status(msg)
		return m, waitStatus(m.deps.Status)

	case runDoneMsg:
		if m.sess.Finish(msg.ticket, msg.res, msg.err) {
			m.result.GotoTop()
		}
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.setNotice("Copy failed: "+msg.err.Error(), false)
			return m, nil
		}
		m.setNotice("Copied!", true)
		return m, nil

	case historyMsg:
		if m.filter() != msg.filter {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.setNotice("Failed to load history: "+msg.err.Error(), false)
			return m, nil
		}
		m.items = msg.page.Items
		m.itemPos = min(m.itemPos, max(len(m.items)-1, 0))
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.setNotice("Save failed: "+msg.err.Error(), false)
			return m, nil
		}
		for i := range m.items {
			if m.items[i].ID == msg.id {
				m.items[i].IsSaved = true
			}
		}
		m.setNotice("Saved.", true)
		return m, nil

	case deletedMsg:
		if msg.err != nil {
			m.setNotice("Delete failed: "+msg.err.Error(), false)
			return m, nil
		}
		m.marks.Clear()
		m.setNotice(fmt.Sprintf("Deleted %d item(s).", msg.n), true)
		return m, m.reload()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.sess.Tab == session.Chat && m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		return m, m.switchTab(+1)
	case "shift+tab":
		return m, m.switchTab(-1)
	case "ctrl+l":
		if m.deps.Recheck != nil {
			m.deps.Recheck()
		}
		return m, nil
	}

	switch m.sess.Tab {
	case session.History, session.Saved:
		return m, m.handleListKey(msg)
	}
	if m.sess.ShowResult {
		return m, m.handleResultKey(msg)
	}
	return m.handleChatKey(msg)
}

func (m *Model) switchTab(dir int) tea.Cmd {
	i := 0
	for j, t := range tabs {
		if t == m.sess.Tab {
			i = j
		}
	}
	next := tabs[(i+dir+len(tabs))%len(tabs)]
	m.sess.SetTab(next)
	m.notice = ""
	m.marks.Clear()
	m.confirm = nil
	if next == session.Chat {
		m.focus = focusInput
		m.input.Focus()
		return nil
	}
	m.input.Blur()
	m.items, m.itemPos = nil, 0
	return m.reload()
}

func (m *Model) filter() history.Filter {
	if m.sess.Tab == session.Saved {
		return history.SavedOnly
	}
	return history.All
}

func (m *Model) reload() tea.Cmd {
	if m.sess.Tab == session.Chat {
		return nil
	}
	m.loading = true
	return m.loadCmd(m.filter())
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s":
		return m, m.convert()
	case "esc":
		if m.focus == focusInput {
			m.focus = focusOptions
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		return m, nil
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.sess.Input = m.input.Value()
		return m, cmd
	}

	opts := catalog.All()
	switch key := msg.String(); key {
	case "left", "h", "up", "k":
		m.optPos = (m.optPos - 1 + len(opts)) % len(opts)
	case "right", "l", "down", "j":
		m.optPos = (m.optPos + 1) % len(opts)
	case " ", "space", "enter":
		m.toggle(opts[m.optPos].ID)
	case "1", "2", "3", "4", "5", "6", "7", "8":
		if i := int(key[0] - '1'); i < len(opts) {
			m.optPos = i
			m.toggle(opts[i].ID)
		}
	}
	return m, nil
}

func (m *Model) toggle(id string) {
	if err := m.sess.Selection.Toggle(id); err != nil {
		m.setNotice(err.Error(), false)
		return
	}
	m.notice = ""
}

func (m *Model) convert() tea.Cmd {
	m.sess.Input = m.input.Value()
	if !m.sess.CanConvert() || m.deps.Run == nil {
		return nil
	}
	t := m.sess.Begin()
	return tea.Batch(m.runCmd(t, m.sess.Input, m.sess.Selection.Selected()), m.spinner.Tick)
}

func (m *Model) setNotice(s string, ok bool) {
	m.notice, m.ok = s, ok
}

func (m *Model) handleResultKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "r":
		m.sess.Reset()
		m.input.Reset()
		m.focus = focusInput
		m.input.Focus()
	case "e", "esc":
		m.sess.ShowResult = false
		m.input.SetValue(m.sess.Input)
		m.focus = focusInput
		m.input.Focus()
	case "c":
		if m.sess.Output != "" {
			return m.copyCmd(m.sess.Output)
		}
	default:
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	if m.deps.History == nil {
		return nil
	}
	if m.confirm != nil {
		ids := m.confirm
		m.confirm = nil
		switch msg.String() {
		case "y", "Y", "enter":
			m.notice = ""
			return m.deleteCmd(ids)
		}
		m.setNotice("Delete cancelled.", false)
		return nil
	}
	switch msg.String() {
	case "up", "k":
		if m.itemPos > 0 {
			m.itemPos--
		}
	case "down", "j":
		if m.itemPos < len(m.items)-1 {
			m.itemPos++
		}
	case "R":
		return m.reload()
	}
	if len(m.items) == 0 {
		return nil
	}
	item := m.items[m.itemPos]
	switch msg.String() {
	case "enter", "u":
		m.sess.UseHistory(item)
		m.result.GotoTop()
		m.input.SetValue(item.OriginalText)
		m.input.Blur()
	case " ", "space", "x":
		m.marks.Toggle(item.ID)
	case "s":
		if !item.IsSaved {
			return m.saveCmd(item.ID)
		}
	case "d":
		if m.marks.Len() > 0 {
			m.confirm = m.marks.IDs()
			what := "item(s)"
			if m.sess.Tab == session.Saved {
				what = "saved item(s)"
			}
			m.setNotice(fmt.Sprintf("Delete %d %s? (y/n)", len(m.confirm), what), false)
		}
	}
	return nil
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render("✍️  WordSmith"))
	b.WriteString("\n")

	switch m.sess.Backend {
	case monitor.Checking:
		b.WriteString(m.styles.Banner.Background(warn).Render("🔄 Checking backend connection..."))
		b.WriteString("\n")
	case monitor.Disconnected:
		b.WriteString(m.styles.Banner.Background(danger).Render("❌ Backend not connected (ctrl+l to retry)"))
		b.WriteString("\n")
	}

	b.WriteString(m.viewTabs())
	b.WriteString("\n\n")

	switch {
	case m.sess.Tab != session.Chat:
		b.WriteString(m.viewList())
	case m.sess.ShowResult:
		b.WriteString(m.viewResult())
	default:
		b.WriteString(m.viewChat())
	}

	if m.notice != "" {
		st := m.styles.Error
		if m.ok {
			st = m.styles.Success
		}
		b.WriteString("\n")
		b.WriteString(st.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render(m.help()))
	return b.String()
}

func (m *Model) viewTabs() string {
	names := map[session.Tab]string{session.Chat: "💬 Chat", session.History: "🕘 History", session.Saved: "⭐ Saved"}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		st := m.styles.Tab
		if t == m.sess.Tab {
			st = m.styles.TabActive
		}
		parts = append(parts, st.Render(names[t]))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) viewChat() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	selected := m.sess.Selection.Selected()
	for i, o := range catalog.All() {
		mark := "[ ]"
		st := m.styles.Option
		if pos := slices.Index(selected, o.ID); pos >= 0 {
			mark = fmt.Sprintf("[%d]", pos+1)
			st = m.styles.Selected
		} else if m.sess.Selection.IsBlocked(o.ID) {
			st = m.styles.Blocked
		}
		cell := st.Render(fmt.Sprintf("%s %s %s", mark, o.Icon, o.Label))
		if m.focus == focusOptions && i == m.optPos {
			cell = m.styles.Cursor.Render(cell)
		}
		b.WriteString(cell)
		if i%4 == 3 {
			b.WriteString("\n")
		} else {
			b.WriteString("  ")
		}
	}

	b.WriteString("\n")
	switch {
	case m.sess.Loading:
		b.WriteString(m.spinner.View() + m.styles.Muted.Render(" Converting..."))
	case m.sess.CanConvert():
		b.WriteString(m.styles.Selected.Render("ctrl+s  Convert ✨"))
	default:
		b.WriteString(m.styles.Muted.Render("ctrl+s  Convert ✨"))
	}
	return b.String()
}

func (m *Model) viewResult() string {
	var b strings.Builder
	b.WriteString(m.styles.Selected.Render(m.sess.ResultTitle()))
	b.WriteString("\n\n")
	m.result.SetContent(m.styles.Result.Width(max(m.result.Width-1, 10)).Render(m.sess.Output))
	b.WriteString(m.result.View())
	b.WriteString("\n")
	return b.String()
}

func (m *Model) viewList() string {
	if m.loading && len(m.items) == 0 {
		return m.styles.Muted.Render("Loading...")
	}
	if len(m.items) == 0 {
		if m.sess.Tab == session.Saved {
			return m.styles.Muted.Render("No saved items yet.")
		}
		return m.styles.Muted.Render("No history yet.")
	}
	now := m.deps.Now()
	var b strings.Builder
	for i, it := range m.items {
		cursor := "  "
		if i == m.itemPos {
			cursor = "> "
		}
		mark := " "
		if m.marks.Has(it.ID) {
			mark = "✓"
		}
		star := ""
		if it.IsSaved {
			star = " ⭐"
		}
		fmt.Fprintf(&b, "%s%s %s  %s%s\n", cursor, mark,
			m.styles.Label.Render(history.TypeLabel(it.TransformationType)),
			m.styles.Muted.Render(history.Ago(it.CreatedAt.Time, now)), star)
		fmt.Fprintf(&b, "     %s\n     ↓ %s\n", truncate(it.OriginalText, 60), truncate(it.TransformedText, 60))
	}
	return b.String()
}

func (m *Model) help() string {
	switch {
	case m.sess.Tab != session.Chat:
		return "tab switch • ↑/↓ move • enter use • s save • space mark • d delete marked • R refresh • ctrl+c quit"
	case m.sess.ShowResult:
		return "c copy • ↑/↓ scroll • r reset • e edit • tab switch • ctrl+c quit"
	case m.focus == focusOptions:
		return "←/→ move • space toggle • 1-8 toggle • esc edit text • ctrl+s convert • ctrl+c quit"
	}
	return "esc pick options • ctrl+s convert • tab switch • ctrl+c quit"
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
