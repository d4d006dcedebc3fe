package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type actionMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	action  func(context.Context) ([]string, error)
	done    bool
	details []string
	err     error
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		details, err := m.action(context.Background())
		return actionMsg{details: details, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case actionMsg:
		m.done = true
		m.details = msg.details
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	if !m.done {
		return runningStyle.Render("Running "+m.title+" ...") + "\n"
	}
	if m.err != nil {
		return failedStyle.Render("FAILED "+m.title) + "\n" + detailStyle.Render(m.err.Error()) + "\n"
	}
	out := okStyle.Render("OK "+m.title) + "\n"
	for _, d := range m.details {
		out += detailStyle.Render("  - "+d) + "\n"
	}
	return out
}

// Run executes action behind a terminal progress view and returns the
// action's error once the program exits.
func Run(title string, action func(context.Context) ([]string, error)) error {
	final, err := tea.NewProgram(model{title: title, action: action}).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(model); ok {
		return m.err
	}
	return nil
}
