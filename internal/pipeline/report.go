package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Report describes one scrape run: what was merged, what was skipped, and
// why. A run never silently drops a chapter; every loss shows up here.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Chapters   []ChapterSummary `json:"chapters"`
	Skips      []Skip           `json:"skips,omitempty"`
	Summary    Summary          `json:"summary"`
}

// ChapterSummary counts the merge outcome for one chapter.
type ChapterSummary struct {
	Chapter string `json:"chapter"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Images  int    `json:"images"`
}

// Skip records a chapter or page that was left out of the run.
type Skip struct {
	Chapter string `json:"chapter"`
	Page    int    `json:"page,omitempty"`
	Reason  string `json:"reason"`
}

// Summary aggregates the run counts.
type Summary struct {
	Chapters  int `json:"chapters"`
	Questions int `json:"questions"`
	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Images    int `json:"images"`
	Skips     int `json:"skips"`
}

// WriteReport writes the report JSON to path, creating parent directories.
func WriteReport(path string, report Report) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
