// Package viewer renders a console browser for a question bank using
// Bubble Tea. It is read-only: chapters, then questions, then answers.
package viewer

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"drivebank/internal/bank"
	"drivebank/internal/question"
)

type mode int

const (
	modeChapters mode = iota
	modeQuestions
)

// Model browses a loaded question bank chapter by chapter.
type Model struct {
	chapters []string
	byID     map[string][]question.Question

	mode       mode
	table      table.Model
	chapter    string
	questions  []question.Question
	index      int
	showAnswer bool
	noColor    bool
}

// Options configures the viewer model.
type Options struct {
	NoColor bool
}

// NewModel constructs a viewer over the given bank.
func NewModel(b *bank.Bank, opts Options) Model {
	chapters := b.Chapters()
	byID := make(map[string][]question.Question, len(chapters))
	rows := make([]table.Row, 0, len(chapters))
	for _, chapter := range chapters {
		byID[chapter] = b.Chapter(chapter)
		rows = append(rows, table.Row{chapter, strconv.Itoa(len(byID[chapter]))})
	}
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Chapter", Width: 12},
			{Title: "Questions", Width: 10},
		}),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(min(len(rows)+1, 12)),
	)
	t.SetStyles(tableStyles(opts.NoColor))
	return Model{
		chapters: chapters,
		byID:     byID,
		table:    t,
		noColor:  opts.NoColor,
	}
}

func tableStyles(noColor bool) table.Styles {
	styles := table.DefaultStyles()
	if noColor {
		styles.Selected = lipgloss.NewStyle()
		styles.Header = lipgloss.NewStyle().Bold(false)
	}
	return styles
}

// Init performs no IO; the bank is loaded before the viewer starts.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles navigation keys.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	}
	if m.mode == modeChapters {
		return m.updateChapters(key)
	}
	return m.updateQuestions(key), nil
}

func (m Model) updateChapters(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.String() == "enter" {
		if len(m.chapters) == 0 {
			return m, nil
		}
		m.chapter = m.table.SelectedRow()[0]
		m.questions = m.byID[m.chapter]
		m.index = 0
		m.showAnswer = false
		m.mode = modeQuestions
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(key)
	return m, cmd
}

func (m Model) updateQuestions(key tea.KeyMsg) Model {
	switch key.String() {
	case "right", "n", "l":
		if m.index < len(m.questions)-1 {
			m.index++
			m.showAnswer = false
		}
	case "left", "p", "h":
		if m.index > 0 {
			m.index--
			m.showAnswer = false
		}
	case " ", "a":
		m.showAnswer = !m.showAnswer
	case "esc", "b":
		m.mode = modeChapters
		m.showAnswer = false
	}
	return m
}

// View renders the current screen.
func (m Model) View() string {
	if m.mode == modeChapters {
		return m.viewChapters()
	}
	return m.viewQuestion()
}
