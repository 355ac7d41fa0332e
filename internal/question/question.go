package question

import (
	"fmt"
	"strings"
)

// Question is a single exam question scraped from the remote source.
// Identity for dedup purposes is the (Chapter, ID) pair, not full field
// equality, so a rescrape of a known question is detected as an update.
type Question struct {
	ID             string   `json:"id"`
	Chapter        string   `json:"-"`
	Text           string   `json:"text"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answer"`
	ImageRef       string   `json:"image_ref,omitempty"`

	// ImageURL is the remote image location discovered at parse time.
	// It is runtime-only state for the image fetch step and is never
	// persisted.
	ImageURL string `json:"-"`
}

// MalformedError reports a question that failed construction validation.
// A malformed question is always fatal to that single record.
type MalformedError struct {
	Chapter string
	ID      string
	Reason  string
}

// Error returns a readable message identifying the bad record.
func (err *MalformedError) Error() string {
	return fmt.Sprintf("malformed question %s/%s: %s", err.Chapter, err.ID, err.Reason)
}

// New validates and constructs a Question. Text must be non-empty, at least
// one correct answer is required, and every correct answer must be one of
// the declared options when options are present (true/false style questions
// may omit options entirely).
func New(chapter, id, text string, options, correct []string, imageURL string) (Question, error) {
	chapter = strings.TrimSpace(chapter)
	id = strings.TrimSpace(id)
	text = strings.TrimSpace(text)
	fail := func(reason string) (Question, error) {
		return Question{}, &MalformedError{Chapter: chapter, ID: id, Reason: reason}
	}
	if id == "" {
		return fail("id is required")
	}
	if chapter == "" {
		return fail("chapter is required")
	}
	if text == "" {
		return fail("text is required")
	}
	options = trimAll(options)
	for i, option := range options {
		if option == "" {
			return fail(fmt.Sprintf("options[%d] is empty", i))
		}
	}
	correct = trimAll(correct)
	if len(correct) == 0 {
		return fail("correct answer is required")
	}
	if len(options) > 0 {
		known := make(map[string]struct{}, len(options))
		for _, option := range options {
			known[option] = struct{}{}
		}
		for _, answer := range correct {
			if _, ok := known[answer]; !ok {
				return fail(fmt.Sprintf("correct answer %q is not among the options", answer))
			}
		}
	}
	return Question{
		ID:             id,
		Chapter:        chapter,
		Text:           text,
		Options:        options,
		CorrectAnswers: correct,
		ImageURL:       strings.TrimSpace(imageURL),
	}, nil
}

// Key returns the dedup identity of the question.
func (q Question) Key() string {
	return q.Chapter + "/" + q.ID
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	trimmed := make([]string, 0, len(values))
	for _, value := range values {
		trimmed = append(trimmed, strings.TrimSpace(value))
	}
	return trimmed
}
