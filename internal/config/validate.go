package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Issue captures a single validation problem.
type Issue struct {
	Field   string
	Message string
}

// ValidationError reports one or more validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("config validation failed: %s", strings.Join(parts, "; "))
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

// Validate checks a normalized config.
func Validate(cfg *Config) error {
	collector := &issueCollector{}
	if cfg.Version == 0 {
		collector.add("version", "is required")
	} else if cfg.Version != 1 {
		collector.add("version", fmt.Sprintf("unsupported version %d", cfg.Version))
	}
	if cfg.Policy != PolicySkip && cfg.Policy != PolicyAbort {
		collector.add("policy", fmt.Sprintf("must be %q or %q", PolicySkip, PolicyAbort))
	}

	parsed, err := url.Parse(cfg.Source.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		collector.add("source.base_url", "must be an absolute URL")
	}
	if strings.TrimSpace(cfg.Source.IndexSlug) == "" {
		collector.add("source.index_slug", "is required")
	}
	if len(cfg.Source.Chapters) == 0 {
		collector.add("source.chapters", "must include at least one entry")
	}
	seen := map[string]struct{}{}
	for i, chapter := range cfg.Source.Chapters {
		chapter = strings.TrimSpace(chapter)
		if chapter == "" {
			collector.add(fmt.Sprintf("source.chapters[%d]", i), "is required")
			continue
		}
		if _, dup := seen[chapter]; dup {
			collector.add(fmt.Sprintf("source.chapters[%d]", i), fmt.Sprintf("duplicate chapter %q", chapter))
		}
		seen[chapter] = struct{}{}
	}
	for chapter, count := range cfg.Source.PageCounts {
		if count < 1 {
			collector.add("source.page_counts."+chapter, "must be positive")
		}
		if _, ok := seen[chapter]; !ok {
			collector.add("source.page_counts."+chapter, "names an unknown chapter")
		}
	}
	if cfg.Source.Selectors.QuestionLink == "" {
		collector.add("source.selectors.question_link", "is required")
	}
	if cfg.Source.Selectors.Text == "" {
		collector.add("source.selectors.text", "is required")
	}
	if cfg.Source.Selectors.Answer == "" {
		collector.add("source.selectors.answer", "is required")
	}
	if cfg.Source.Retry.MaxAttempts < 1 {
		collector.add("source.retry.max_attempts", "must be positive")
	}
	if cfg.Source.Retry.BaseDelayMs < 1 {
		collector.add("source.retry.base_delay_ms", "must be positive")
	}
	if cfg.Source.Retry.MaxDelayMs < cfg.Source.Retry.BaseDelayMs {
		collector.add("source.retry.max_delay_ms", "must not be below base_delay_ms")
	}
	if cfg.Source.TimeoutSeconds < 1 {
		collector.add("source.timeout_seconds", "must be positive")
	}
	if cfg.Source.MinIntervalMs < 0 {
		collector.add("source.min_interval_ms", "must not be negative")
	}
	if strings.TrimSpace(cfg.Storage.Path) == "" {
		collector.add("storage.path", "is required")
	}
	if strings.TrimSpace(cfg.Storage.ImageDir) == "" {
		collector.add("storage.image_dir", "is required")
	}
	return collector.result()
}
