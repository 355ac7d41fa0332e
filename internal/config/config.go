// Package config loads and validates the YAML configuration describing the
// question source, on-disk storage, and the run's error policy.
package config

// Error policies for per-page scrape failures.
const (
	// PolicySkip records the failure and continues with the next chapter.
	PolicySkip = "skip"
	// PolicyAbort stops scraping further chapters; gathered state is
	// still saved.
	PolicyAbort = "abort"
)

// Config is the root configuration document.
type Config struct {
	Version int           `yaml:"version"`
	Source  SourceConfig  `yaml:"source"`
	Storage StorageConfig `yaml:"storage"`
	Archive ArchiveConfig `yaml:"archive"`
	Policy  string        `yaml:"policy"`
}

// SourceConfig describes the site being scraped: its URL layout, chapter
// list, CSS selectors, and fetch behavior.
type SourceConfig struct {
	BaseURL   string   `yaml:"base_url"`
	IndexSlug string   `yaml:"index_slug"`
	Chapters  []string `yaml:"chapters"`

	// PageCounts caps the pages fetched per chapter. Chapters without an
	// entry are paged until the first empty index page.
	PageCounts map[string]int `yaml:"page_counts"`

	Selectors      Selectors   `yaml:"selectors"`
	Retry          RetryConfig `yaml:"retry"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`

	// MinIntervalMs spaces out requests to the source. Zero falls back
	// to the default interval.
	MinIntervalMs int `yaml:"min_interval_ms"`
}

// Selectors are the CSS selectors locating question parts in pages.
type Selectors struct {
	QuestionLink string `yaml:"question_link"`
	Text         string `yaml:"text"`
	Options      string `yaml:"options"`
	Answer       string `yaml:"answer"`
	Image        string `yaml:"image"`
}

// RetryConfig bounds the retry loop around page fetches.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

// StorageConfig locates the question bank file and the image directory.
type StorageConfig struct {
	Path     string `yaml:"path"`
	ImageDir string `yaml:"image_dir"`
}

// ArchiveConfig locates the run history database. An empty path disables
// run archiving.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration for the known jsyks.com question site.
func Default() Config {
	return Config{
		Version: 1,
		Source: SourceConfig{
			BaseURL:   "https://tiba.jsyks.com",
			IndexSlug: "kmytk",
			Chapters:  []string{"1", "2", "3", "4"},
			Selectors: Selectors{
				QuestionLink: "a[href*='/Post/']",
				Text:         "h1",
				Options:      "ul.options li",
				Answer:       "div.answer u",
				Image:        "div.question img",
			},
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseDelayMs: 500,
				MaxDelayMs:  5000,
			},
			TimeoutSeconds: 15,
			MinIntervalMs:  250,
		},
		Storage: StorageConfig{
			Path:     "data/bank.json",
			ImageDir: "data/images",
		},
		Archive: ArchiveConfig{
			Path: "data/runs.duckdb",
		},
		Policy: PolicySkip,
	}
}
