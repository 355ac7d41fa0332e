// Package bank holds the in-memory, chapter-keyed question collection that
// the pipeline merges scrape results into before persisting.
package bank

import "drivebank/internal/question"

// Bank is a chapter-keyed question collection. Within a chapter, question
// ids are unique and questions keep their arrival order. Bank does no I/O
// and is not safe for concurrent use.
type Bank struct {
	chapters  []string
	questions map[string][]question.Question
	positions map[string]int
}

// New returns an empty bank.
func New() *Bank {
	return &Bank{
		questions: map[string][]question.Question{},
		positions: map[string]int{},
	}
}

// AddOrUpdate merges a question into the bank and reports whether it was
// newly inserted. An unseen (chapter, id) pair is appended, preserving
// arrival order; a known pair has its stored fields replaced in place
// without changing its position. A question's local image reference
// survives an update that carries none, so a rescrape does not discard an
// already-downloaded image.
func (b *Bank) AddOrUpdate(q question.Question) bool {
	key := q.Key()
	if pos, seen := b.positions[key]; seen {
		existing := b.questions[q.Chapter][pos]
		if q.ImageRef == "" {
			q.ImageRef = existing.ImageRef
		}
		b.questions[q.Chapter][pos] = q
		return false
	}
	if _, known := b.questions[q.Chapter]; !known {
		b.chapters = append(b.chapters, q.Chapter)
	}
	b.positions[key] = len(b.questions[q.Chapter])
	b.questions[q.Chapter] = append(b.questions[q.Chapter], q)
	return true
}

// Chapter returns the ordered questions for a chapter. An unknown chapter
// yields an empty slice, never an error.
func (b *Bank) Chapter(chapter string) []question.Question {
	stored := b.questions[chapter]
	out := make([]question.Question, len(stored))
	copy(out, stored)
	return out
}

// Chapters returns the known chapter identifiers in insertion order.
func (b *Bank) Chapters() []string {
	out := make([]string, len(b.chapters))
	copy(out, b.chapters)
	return out
}

// Len returns the total number of questions across all chapters.
func (b *Bank) Len() int {
	total := 0
	for _, chapter := range b.questions {
		total += len(chapter)
	}
	return total
}
