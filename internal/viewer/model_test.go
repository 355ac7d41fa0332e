package viewer

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"drivebank/internal/bank"
	"drivebank/internal/question"
)

func sampleBank(t *testing.T) *bank.Bank {
	t.Helper()
	b := bank.New()
	specs := []struct {
		chapter, id, text string
		options, correct  []string
	}{
		{"1", "aa1", "First question?", []string{"Yes", "No"}, []string{"Yes"}},
		{"1", "aa2", "Second question?", []string{"Left", "Right"}, []string{"Right"}},
		{"4", "bb1", "A statement.", nil, []string{"对"}},
	}
	for _, spec := range specs {
		q, err := question.New(spec.chapter, spec.id, spec.text, spec.options, spec.correct, "")
		if err != nil {
			t.Fatalf("build question: %v", err)
		}
		b.AddOrUpdate(q)
	}
	return b
}

func press(t *testing.T, m tea.Model, keys ...string) tea.Model {
	t.Helper()
	for _, key := range keys {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		switch key {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		}
		m, _ = m.Update(msg)
	}
	return m
}

// TestChapterListShowsCounts renders the chapter table with question counts.
func TestChapterListShowsCounts(t *testing.T) {
	m := NewModel(sampleBank(t), Options{NoColor: true})
	view := m.View()
	if !strings.Contains(view, "1") || !strings.Contains(view, "4") {
		t.Fatalf("expected both chapters in view:\n%s", view)
	}
	if !strings.Contains(view, "2") {
		t.Fatalf("expected chapter 1 question count in view:\n%s", view)
	}
}

// TestEnterOpensChapterAndStepsQuestions walks into a chapter and moves to
// the next question.
func TestEnterOpensChapterAndStepsQuestions(t *testing.T) {
	m := press(t, NewModel(sampleBank(t), Options{NoColor: true}), "enter")
	view := m.View()
	if !strings.Contains(view, "First question?") || !strings.Contains(view, "Question 1/2") {
		t.Fatalf("expected first question of chapter 1:\n%s", view)
	}

	m = press(t, m, "right")
	view = m.View()
	if !strings.Contains(view, "Second question?") || !strings.Contains(view, "Question 2/2") {
		t.Fatalf("expected second question:\n%s", view)
	}
}

// TestAnswerHiddenUntilToggled verifies the answer reveal key.
func TestAnswerHiddenUntilToggled(t *testing.T) {
	m := press(t, NewModel(sampleBank(t), Options{NoColor: true}), "enter")
	if view := m.View(); !strings.Contains(view, "Answer hidden") {
		t.Fatalf("expected hidden answer by default:\n%s", view)
	}
	m = press(t, m, "a")
	if view := m.View(); !strings.Contains(view, "Answer: Yes") {
		t.Fatalf("expected revealed answer:\n%s", view)
	}
}

// TestMovingResetsAnswerVisibility hides the answer again on navigation.
func TestMovingResetsAnswerVisibility(t *testing.T) {
	m := press(t, NewModel(sampleBank(t), Options{NoColor: true}), "enter", "a", "right")
	if view := m.View(); !strings.Contains(view, "Answer hidden") {
		t.Fatalf("expected answer hidden after moving:\n%s", view)
	}
}

// TestEscReturnsToChapters leaves question mode.
func TestEscReturnsToChapters(t *testing.T) {
	m := press(t, NewModel(sampleBank(t), Options{NoColor: true}), "enter", "esc")
	if view := m.View(); !strings.Contains(view, "Chapters") {
		t.Fatalf("expected chapter list after esc:\n%s", view)
	}
}

// TestEmptyBankView renders a hint instead of an empty table.
func TestEmptyBankView(t *testing.T) {
	m := NewModel(bank.New(), Options{NoColor: true})
	if view := m.View(); !strings.Contains(view, "empty") {
		t.Fatalf("expected empty bank hint:\n%s", view)
	}
}
