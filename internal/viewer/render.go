package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) viewChapters() string {
	if len(m.chapters) == 0 {
		return "Question bank is empty. Run a scrape first.\n"
	}
	header := stylize("Chapters", m.noColor, lipgloss.Color("33"))
	footer := stylize("up/down: move  enter: open  q: quit", m.noColor, lipgloss.Color("242"))
	return lipgloss.JoinVertical(lipgloss.Left, header, m.table.View(), footer) + "\n"
}

func (m Model) viewQuestion() string {
	if len(m.questions) == 0 {
		return fmt.Sprintf("Chapter %s has no questions.\n\n%s\n", m.chapter,
			stylize("esc: back  q: quit", m.noColor, lipgloss.Color("242")))
	}
	q := m.questions[m.index]
	var b strings.Builder
	header := fmt.Sprintf("Chapter %s | Question %d/%d | %s", m.chapter, m.index+1, len(m.questions), q.ID)
	b.WriteString(stylize(header, m.noColor, lipgloss.Color("33")))
	b.WriteString("\n\n")
	b.WriteString(q.Text)
	b.WriteString("\n")
	if q.ImageRef != "" {
		b.WriteString(stylize("[image: "+q.ImageRef+"]", m.noColor, lipgloss.Color("240")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	for i, option := range q.Options {
		line := fmt.Sprintf("%c. %s", 'A'+i, option)
		if m.showAnswer && contains(q.CorrectAnswers, option) {
			line = stylize(line+"  *", m.noColor, lipgloss.Color("42"))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.showAnswer {
		b.WriteString(stylize("Answer: "+strings.Join(q.CorrectAnswers, ", "), m.noColor, lipgloss.Color("42")))
	} else {
		b.WriteString(stylize("Answer hidden", m.noColor, lipgloss.Color("242")))
	}
	b.WriteString("\n\n")
	b.WriteString(stylize("left/right: move  a: answer  esc: chapters  q: quit", m.noColor, lipgloss.Color("242")))
	b.WriteString("\n")
	return b.String()
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
