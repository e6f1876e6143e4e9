package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"wordsmith/internal/api"
	"wordsmith/internal/history"
	"wordsmith/internal/monitor"
	"wordsmith/internal/pipeline"
	"wordsmith/internal/session"
)

type statusMsg monitor.Status

type runDoneMsg struct {
	ticket session.Ticket
	res    pipeline.Result
	err    error
}

type historyMsg struct {
	filter history.Filter
	page   api.HistoryPage
	err    error
}

type savedMsg struct {
	id  string
	err error
}

type deletedMsg struct {
	n   int
	err error
}

type copiedMsg struct{ err error }

func waitStatus(ch <-chan monitor.Status) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return statusMsg(s)
	}
}

func (m *Model) runCmd(t session.Ticket, text string, ids []string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.deps.Run(context.Background(), text, ids)
		return runDoneMsg{ticket: t, res: res, err: err}
	}
}

func (m *Model) loadCmd(f history.Filter) tea.Cmd {
	if m.deps.History == nil {
		return nil
	}
	return func() tea.Msg {
		page, err := m.deps.History.History(context.Background(), history.Query(f))
		return historyMsg{filter: f, page: page, err: err}
	}
}

func (m *Model) saveCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{id: id, err: m.deps.History.SaveHistory(context.Background(), id)}
	}
}

func (m *Model) deleteCmd(ids []string) tea.Cmd {
	return func() tea.Msg {
		n, err := m.deps.History.DeleteHistory(context.Background(), ids)
		return deletedMsg{n: n, err: err}
	}
}

func (m *Model) copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: m.deps.Copy(text)}
	}
}
