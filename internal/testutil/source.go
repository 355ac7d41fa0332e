// Package testutil provides test doubles for the remote question source.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// FixtureQuestion describes one question served by the fixture source.
// Answer holds the option letters ("A", "BC") or, for statement questions
// without options, the literal answer text.
type FixtureQuestion struct {
	ID       string
	Text     string
	Options  []string
	Answer   string
	HasImage bool
}

// FixtureSource is an in-process HTTP server mimicking the remote source's
// page layout: paginated chapter index pages and one page per question.
type FixtureSource struct {
	mu       sync.Mutex
	chapters map[string][][]FixtureQuestion
	requests map[string]int
	failures map[string]int
	broken   map[string]bool
	server   *httptest.Server
}

var indexPathPattern = regexp.MustCompile(`^/kmytk_([^_]+)_(\d+)$`)
var questionPathPattern = regexp.MustCompile(`^/Post/([a-zA-Z0-9]+)\.htm$`)

// StartFixtureSource launches a fixture server. Chapters map chapter ids to
// pages, each page holding the questions it lists.
func StartFixtureSource(t testing.TB, chapters map[string][][]FixtureQuestion) *FixtureSource {
	t.Helper()
	source := &FixtureSource{
		chapters: chapters,
		requests: map[string]int{},
		failures: map[string]int{},
		broken:   map[string]bool{},
	}
	source.server = httptest.NewServer(http.HandlerFunc(source.handle))
	t.Cleanup(source.server.Close)
	return source
}

// BaseURL returns the server's base URL.
func (f *FixtureSource) BaseURL() string {
	return f.server.URL
}

// Requests returns how many times a path was fetched.
func (f *FixtureSource) Requests(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

// FailNext makes the next n fetches of path return a 500.
func (f *FixtureSource) FailNext(path string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[path] = n
}

// BreakPage makes a path serve markup without the expected structure.
func (f *FixtureSource) BreakPage(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broken[path] = true
}

func (f *FixtureSource) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests[r.URL.Path]++
	if f.failures[r.URL.Path] > 0 {
		f.failures[r.URL.Path]--
		f.mu.Unlock()
		http.Error(w, "temporarily unavailable", http.StatusInternalServerError)
		return
	}
	broken := f.broken[r.URL.Path]
	f.mu.Unlock()

	if broken {
		fmt.Fprint(w, "<html><body><p>maintenance</p></body></html>")
		return
	}

	if match := indexPathPattern.FindStringSubmatch(r.URL.Path); match != nil {
		page, _ := strconv.Atoi(match[2])
		f.serveIndex(w, match[1], page)
		return
	}
	if match := questionPathPattern.FindStringSubmatch(r.URL.Path); match != nil {
		f.serveQuestion(w, match[1])
		return
	}
	if strings.HasPrefix(r.URL.Path, "/images/") {
		fmt.Fprintf(w, "imagebytes:%s", strings.TrimPrefix(r.URL.Path, "/images/"))
		return
	}
	http.NotFound(w, r)
}

func (f *FixtureSource) serveIndex(w http.ResponseWriter, chapter string, page int) {
	pages := f.chapters[chapter]
	var builder strings.Builder
	builder.WriteString(`<html><body><div class="list">`)
	if page >= 1 && page <= len(pages) {
		for _, q := range pages[page-1] {
			fmt.Fprintf(&builder, `<a href="/Post/%s.htm">%s</a>`, q.ID, q.Text)
		}
	}
	builder.WriteString(`</div></body></html>`)
	fmt.Fprint(w, builder.String())
}

func (f *FixtureSource) serveQuestion(w http.ResponseWriter, id string) {
	q, ok := f.findQuestion(id)
	if !ok {
		http.NotFound(w, nil)
		return
	}
	var builder strings.Builder
	builder.WriteString(`<html><body><div class="question">`)
	fmt.Fprintf(&builder, "<h1>%s</h1>", q.Text)
	if q.HasImage {
		fmt.Fprintf(&builder, `<img src="/images/%s.jpg">`, q.ID)
	}
	if len(q.Options) > 0 {
		builder.WriteString(`<ul class="options">`)
		for i, option := range q.Options {
			fmt.Fprintf(&builder, "<li>%c、%s</li>", 'A'+i, option)
		}
		builder.WriteString(`</ul>`)
	}
	fmt.Fprintf(&builder, `<div class="answer">答案：<u>%s</u></div>`, q.Answer)
	builder.WriteString(`</div></body></html>`)
	fmt.Fprint(w, builder.String())
}

func (f *FixtureSource) findQuestion(id string) (FixtureQuestion, bool) {
	for _, pages := range f.chapters {
		for _, page := range pages {
			for _, q := range page {
				if q.ID == id {
					return q, true
				}
			}
		}
	}
	return FixtureQuestion{}, false
}
