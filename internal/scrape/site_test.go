package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"drivebank/internal/config"
	"drivebank/internal/testutil"
)

func sourceConfig(baseURL string, chapters ...string) config.SourceConfig {
	cfg := config.Default().Source
	cfg.BaseURL = baseURL
	cfg.Chapters = chapters
	return cfg
}

// newTestSite builds a Site with backoff sleeps disabled.
func newTestSite(t *testing.T, cfg config.SourceConfig) *Site {
	t.Helper()
	site, err := NewSite(cfg, nil)
	if err != nil {
		t.Fatalf("new site: %v", err)
	}
	site.sleep = func(context.Context, time.Duration) error { return nil }
	return site
}

func fixtureChapter(ids ...string) []testutil.FixtureQuestion {
	questions := make([]testutil.FixtureQuestion, 0, len(ids))
	for _, id := range ids {
		questions = append(questions, testutil.FixtureQuestion{
			ID:      id,
			Text:    "Question " + id + "?",
			Options: []string{"Yes", "No", "Only at night", "Only downtown"},
			Answer:  "A",
		})
	}
	return questions
}

// TestChaptersRestartable verifies the chapter listing is re-invocable.
func TestChaptersRestartable(t *testing.T) {
	site := newTestSite(t, sourceConfig("https://example.com", "1", "2"))
	first, err := site.Chapters(context.Background())
	if err != nil {
		t.Fatalf("chapters: %v", err)
	}
	second, err := site.Chapters(context.Background())
	if err != nil {
		t.Fatalf("chapters again: %v", err)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both listings to have 2 chapters: %v / %v", first, second)
	}
}

// TestPaginationStopsAtEmptyPage verifies fetching pages 1..N plus the empty
// page N+1, and never an N+2 fetch.
func TestPaginationStopsAtEmptyPage(t *testing.T) {
	source := testutil.StartFixtureSource(t, map[string][][]testutil.FixtureQuestion{
		"1": {fixtureChapter("aa001", "aa002"), fixtureChapter("aa003")},
	})
	site := newTestSite(t, sourceConfig(source.BaseURL(), "1"))

	questions, err := site.ChapterQuestions(context.Background(), "1")
	if err != nil {
		t.Fatalf("chapter questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(questions))
	}
	for i, id := range []string{"aa001", "aa002", "aa003"} {
		if questions[i].ID != id {
			t.Fatalf("expected %s at position %d, got %s", id, i, questions[i].ID)
		}
	}
	for page, want := range map[string]int{"/kmytk_1_1": 1, "/kmytk_1_2": 1, "/kmytk_1_3": 1, "/kmytk_1_4": 0} {
		if got := source.Requests(page); got != want {
			t.Fatalf("expected %d fetches of %s, got %d", want, page, got)
		}
	}
}

// TestPaginationHonorsPageCount verifies a configured page count stops the
// walk without probing for an empty page.
func TestPaginationHonorsPageCount(t *testing.T) {
	source := testutil.StartFixtureSource(t, map[string][][]testutil.FixtureQuestion{
		"1": {fixtureChapter("aa001"), fixtureChapter("aa002"), fixtureChapter("aa003")},
	})
	cfg := sourceConfig(source.BaseURL(), "1")
	cfg.PageCounts = map[string]int{"1": 2}
	site := newTestSite(t, cfg)

	questions, err := site.ChapterQuestions(context.Background(), "1")
	if err != nil {
		t.Fatalf("chapter questions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if got := source.Requests("/kmytk_1_3"); got != 0 {
		t.Fatalf("expected no fetch beyond the page count, got %d", got)
	}
}

// TestFetchRetriesTransientFailure verifies a 500 is retried with backoff
// until the page succeeds.
func TestFetchRetriesTransientFailure(t *testing.T) {
	source := testutil.StartFixtureSource(t, map[string][][]testutil.FixtureQuestion{
		"1": {fixtureChapter("aa001")},
	})
	source.FailNext("/kmytk_1_1", 2)
	site := newTestSite(t, sourceConfig(source.BaseURL(), "1"))

	questions, err := site.ChapterQuestions(context.Background(), "1")
	if err != nil {
		t.Fatalf("chapter questions: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	if got := source.Requests("/kmytk_1_1"); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

// TestFetchErrorAfterExhaustedRetries verifies the error carries the page
// identity and attempt count.
func TestFetchErrorAfterExhaustedRetries(t *testing.T) {
	source := testutil.StartFixtureSource(t, map[string][][]testutil.FixtureQuestion{
		"1": {fixtureChapter("aa001")},
	})
	source.FailNext("/kmytk_1_1", 10)
	site := newTestSite(t, sourceConfig(source.BaseURL(), "1"))

	_, err := site.ChapterQuestions(context.Background(), "1")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", fetchErr.Attempts)
	}
	if got := source.Requests("/kmytk_1_1"); got != 3 {
		t.Fatalf("expected exactly 3 fetches, got %d", got)
	}
}

// TestParseErrorCarriesPage verifies unexpected markup reports the failing
// page and keeps questions parsed before it.
func TestParseErrorCarriesPage(t *testing.T) {
	source := testutil.StartFixtureSource(t, map[string][][]testutil.FixtureQuestion{
		"1": {fixtureChapter("aa001", "aa002")},
	})
	source.BreakPage("/Post/aa002.htm")
	site := newTestSite(t, sourceConfig(source.BaseURL(), "1"))

	questions, err := site.ChapterQuestions(context.Background(), "1")
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Chapter != "1" || parseErr.Page != 1 {
		t.Fatalf("expected chapter 1 page 1, got %s/%d", parseErr.Chapter, parseErr.Page)
	}
	if len(questions) != 1 || questions[0].ID != "aa001" {
		t.Fatalf("expected partial progress with aa001, got %v", questions)
	}
}

// TestCancelledContextStopsFetching verifies cooperative cancellation.
func TestCancelledContextStopsFetching(t *testing.T) {
	source := testutil.StartFixtureSource(t, map[string][][]testutil.FixtureQuestion{
		"1": {fixtureChapter("aa001")},
	})
	site := newTestSite(t, sourceConfig(source.BaseURL(), "1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := site.ChapterQuestions(ctx, "1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// TestPoliteIntervalBetweenFetches verifies requests are spaced out.
func TestPoliteIntervalBetweenFetches(t *testing.T) {
	source := testutil.StartFixtureSource(t, map[string][][]testutil.FixtureQuestion{
		"1": {fixtureChapter("aa001", "aa002")},
	})
	cfg := sourceConfig(source.BaseURL(), "1")
	cfg.MinIntervalMs = 50
	site := newTestSite(t, cfg)
	var waits []time.Duration
	site.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	if _, err := site.ChapterQuestions(context.Background(), "1"); err != nil {
		t.Fatalf("chapter questions: %v", err)
	}
	// Index page 1, two questions, empty index page 2: three waits.
	if len(waits) != 3 {
		t.Fatalf("expected 3 polite waits, got %d (%v)", len(waits), waits)
	}
	for _, wait := range waits {
		if wait <= 0 || wait > 50*time.Millisecond {
			t.Fatalf("unexpected wait %v", wait)
		}
	}
}

// TestBackoffDelayGrowth verifies exponential growth capped at the maximum.
func TestBackoffDelayGrowth(t *testing.T) {
	policy := retryPolicy{maxAttempts: 5, baseDelay: 100 * time.Millisecond, maxDelay: 500 * time.Millisecond}
	expected := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond, 500 * time.Millisecond}
	for i, want := range expected {
		if got := policy.delayFor(i + 1); got != want {
			t.Fatalf("attempt %d: expected %v, got %v", i+1, want, got)
		}
	}
}
