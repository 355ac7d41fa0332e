package scrape

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"drivebank/internal/config"
	"drivebank/internal/question"
)

// Site scrapes a tiba.jsyks.com-style source: paginated chapter index pages
// listing question links, one page per question.
type Site struct {
	client  HTTPDoer
	cfg     config.SourceConfig
	retry   retryPolicy
	timeout time.Duration
	sleep   func(ctx context.Context, d time.Duration) error

	// interval spaces out requests so the source is not hammered.
	interval  time.Duration
	lastFetch time.Time
}

// NewSite constructs a scraper for the configured source. A nil client uses
// http.DefaultClient.
func NewSite(cfg config.SourceConfig, client HTTPDoer) (*Site, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("source base url is required")
	}
	if len(cfg.Chapters) == 0 {
		return nil, fmt.Errorf("source chapters are required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Site{
		client:   client,
		cfg:      cfg,
		retry:    policyFromConfig(cfg.Retry),
		timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
		sleep:    waitContext,
		interval: time.Duration(cfg.MinIntervalMs) * time.Millisecond,
	}, nil
}

// Chapters returns the configured chapter identifiers.
func (s *Site) Chapters(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]string, len(s.cfg.Chapters))
	copy(out, s.cfg.Chapters)
	return out, nil
}

// ChapterQuestions walks the chapter's index pages until an empty page or
// the configured page count, then fetches and parses each listed question.
// Questions gathered before a failing page are returned alongside the error.
func (s *Site) ChapterQuestions(ctx context.Context, chapter string) ([]question.Question, error) {
	maxPages := s.cfg.PageCounts[chapter]
	var questions []question.Question
	for page := 1; maxPages == 0 || page <= maxPages; page++ {
		indexURL := s.indexURL(chapter, page)
		body, err := s.fetch(ctx, indexURL)
		if err != nil {
			return questions, err
		}
		ids, err := extractQuestionIDs(body, s.cfg.Selectors.QuestionLink)
		if err != nil {
			return questions, &ParseError{Chapter: chapter, Page: page, URL: indexURL, Err: err}
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			q, err := s.fetchQuestion(ctx, chapter, page, id)
			if err != nil {
				return questions, err
			}
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (s *Site) fetchQuestion(ctx context.Context, chapter string, page int, id string) (question.Question, error) {
	questionURL := s.questionURL(id)
	body, err := s.fetch(ctx, questionURL)
	if err != nil {
		return question.Question{}, err
	}
	parsed, err := parseQuestionPage(body, s.cfg.Selectors, s.cfg.BaseURL)
	if err != nil {
		return question.Question{}, &ParseError{Chapter: chapter, Page: page, URL: questionURL, Err: err}
	}
	q, err := question.New(chapter, id, parsed.text, parsed.options, parsed.correct, parsed.imageURL)
	if err != nil {
		return question.Question{}, &ParseError{Chapter: chapter, Page: page, URL: questionURL, Err: err}
	}
	return q, nil
}

func (s *Site) indexURL(chapter string, page int) string {
	return fmt.Sprintf("%s/%s_%s_%d", strings.TrimRight(s.cfg.BaseURL, "/"), s.cfg.IndexSlug, chapter, page)
}

func (s *Site) questionURL(id string) string {
	return fmt.Sprintf("%s/Post/%s.htm", strings.TrimRight(s.cfg.BaseURL, "/"), id)
}
