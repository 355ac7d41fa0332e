// Package scrape fetches and parses remote chapter pages into questions.
package scrape

import (
	"context"
	"fmt"
	"net/http"

	"drivebank/internal/question"
)

// Scraper produces the chapters available from a source and the questions
// within one chapter. Additional sources are added as new implementations
// without touching the pipeline.
type Scraper interface {
	// Chapters lists the chapter identifiers available from the source.
	// Re-invocable; it does not consume shared state.
	Chapters(ctx context.Context) ([]string, error)
	// ChapterQuestions fetches one chapter's questions in source page
	// order. On a page-level failure it returns the questions gathered
	// before the failure together with the error, so a skip-and-continue
	// policy keeps partial progress.
	ChapterQuestions(ctx context.Context, chapter string) ([]question.Question, error)
}

// HTTPDoer abstracts the HTTP client so tests can substitute fakes and no
// package-level session state exists.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetchError reports a page fetch whose bounded retries were exhausted.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

// Error returns a readable message naming the page.
func (err *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", err.URL, err.Attempts, err.Err)
}

// Unwrap exposes the final attempt's failure.
func (err *FetchError) Unwrap() error {
	return err.Err
}

// ParseError reports a page whose markup did not match expectations. It
// carries the page identity so the pipeline can report what was skipped.
type ParseError struct {
	Chapter string
	Page    int
	URL     string
	Err     error
}

// Error returns a readable message naming the page.
func (err *ParseError) Error() string {
	return fmt.Sprintf("parse chapter %s page %d (%s): %v", err.Chapter, err.Page, err.URL, err.Err)
}

// Unwrap exposes the underlying parse failure.
func (err *ParseError) Unwrap() error {
	return err.Err
}
