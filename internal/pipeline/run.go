// Package pipeline sequences the scraper, the question bank, and the store.
// It is the only component that references all three.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"drivebank/internal/bank"
	"drivebank/internal/config"
	"drivebank/internal/scrape"
	"drivebank/internal/store"
)

// ImageFetcher downloads one question image and returns its local reference.
type ImageFetcher interface {
	Fetch(ctx context.Context, chapter, id, imageURL string) (string, error)
}

// Params wires the pipeline's collaborators. Source and Store are required;
// a nil Images disables image downloads.
type Params struct {
	Source scrape.Scraper
	Store  store.Store
	Images ImageFetcher

	// Policy decides what a per-page scrape failure does: skip the rest
	// of the chapter and continue, or stop scraping further chapters.
	Policy string

	// StartFresh lets the operator explicitly discard a corrupt store
	// instead of failing the run. Off by default: silently starting
	// from empty would mask data loss.
	StartFresh bool

	Logger   *zap.Logger
	Observer Observer
	RunID    func() (string, error)
	Now      func() time.Time
}

// Run executes one scrape: load prior state, merge every chapter the source
// offers, download missing images, and atomically save the merged bank.
// Under the abort policy the first scrape failure stops fetching further
// chapters, but everything gathered so far is still saved before the error
// is returned; cancellation via ctx returns without saving.
func Run(ctx context.Context, params Params) (Report, error) {
	if params.Source == nil {
		return Report{}, fmt.Errorf("source is required")
	}
	if params.Store == nil {
		return Report{}, fmt.Errorf("store is required")
	}
	policy := params.Policy
	if policy == "" {
		policy = config.PolicySkip
	}
	if policy != config.PolicySkip && policy != config.PolicyAbort {
		return Report{}, fmt.Errorf("unknown error policy %q", policy)
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	observer := params.Observer
	if observer == nil {
		observer = NopObserver{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	runID, err := ensureRunID(params.RunID)
	if err != nil {
		return Report{}, err
	}

	merged, err := loadPriorState(params, logger)
	if err != nil {
		return Report{}, err
	}

	chapters, err := params.Source.Chapters(ctx)
	if err != nil {
		return Report{}, err
	}

	report := Report{RunID: runID, StartedAt: now()}
	logger.Info("scrape run started",
		zap.String("run_id", runID),
		zap.Int("chapters", len(chapters)),
		zap.Int("prior_questions", merged.Len()),
	)

	var abortErr error
	for _, chapter := range chapters {
		if err := ctx.Err(); err != nil {
			return Report{}, err
		}
		observer.ChapterStarted(chapter)
		summary, skip, err := mergeChapter(ctx, params.Source, merged, chapter)
		if err != nil {
			return Report{}, err
		}
		if skip != nil {
			report.Skips = append(report.Skips, *skip)
			observer.Skipped(*skip)
			logger.Warn("chapter partially skipped",
				zap.String("chapter", skip.Chapter),
				zap.Int("page", skip.Page),
				zap.String("reason", skip.Reason),
			)
		}
		report.Chapters = append(report.Chapters, summary)
		observer.ChapterFinished(summary)
		logger.Info("chapter merged",
			zap.String("chapter", chapter),
			zap.Int("added", summary.Added),
			zap.Int("updated", summary.Updated),
		)
		if skip != nil && policy == config.PolicyAbort {
			abortErr = fmt.Errorf("chapter %s: %s", skip.Chapter, skip.Reason)
			break
		}
	}

	imageSkips := fetchImages(ctx, params.Images, merged, &report, logger)
	for _, skip := range imageSkips {
		report.Skips = append(report.Skips, skip)
		observer.Skipped(skip)
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	if err := params.Store.Save(merged); err != nil {
		return Report{}, fmt.Errorf("save question bank: %w", err)
	}

	report.FinishedAt = now()
	report.Summary = summarize(merged, report)
	logger.Info("scrape run finished",
		zap.String("run_id", runID),
		zap.Int("questions", report.Summary.Questions),
		zap.Int("added", report.Summary.Added),
		zap.Int("skips", report.Summary.Skips),
	)
	if abortErr != nil {
		return report, abortErr
	}
	return report, nil
}

func ensureRunID(gen func() (string, error)) (string, error) {
	if gen == nil {
		gen = NewRunID
	}
	return gen()
}

func loadPriorState(params Params, logger *zap.Logger) (*bank.Bank, error) {
	loaded, err := params.Store.Load()
	if err == nil {
		return loaded, nil
	}
	var corrupt *store.CorruptError
	if errors.As(err, &corrupt) && params.StartFresh {
		logger.Warn("discarding corrupt store at operator request", zap.String("path", corrupt.Path))
		return bank.New(), nil
	}
	return nil, fmt.Errorf("load question bank: %w", err)
}

// mergeChapter pulls one chapter and merges it in page order. A scrape
// failure becomes a Skip describing what was lost; only cancellation is
// returned as an error.
func mergeChapter(ctx context.Context, source scrape.Scraper, merged *bank.Bank, chapter string) (ChapterSummary, *Skip, error) {
	summary := ChapterSummary{Chapter: chapter}
	questions, err := source.ChapterQuestions(ctx, chapter)
	for _, q := range questions {
		if merged.AddOrUpdate(q) {
			summary.Added++
		} else {
			summary.Updated++
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return summary, nil, ctx.Err()
		}
		return summary, skipForError(chapter, err), nil
	}
	return summary, nil, nil
}

func skipForError(chapter string, err error) *Skip {
	skip := &Skip{Chapter: chapter, Reason: err.Error()}
	var parseErr *scrape.ParseError
	if errors.As(err, &parseErr) {
		skip.Page = parseErr.Page
	}
	return skip
}

// fetchImages downloads images for newly scraped questions that reference a
// remote image but have no local copy yet. Failures are reported as skips;
// they never lose the question itself.
func fetchImages(ctx context.Context, fetcher ImageFetcher, merged *bank.Bank, report *Report, logger *zap.Logger) []Skip {
	if fetcher == nil {
		return nil
	}
	imagesByChapter := map[string]int{}
	var skips []Skip
	for _, chapter := range merged.Chapters() {
		for _, q := range merged.Chapter(chapter) {
			if q.ImageRef != "" || q.ImageURL == "" {
				continue
			}
			if ctx.Err() != nil {
				return skips
			}
			ref, err := fetcher.Fetch(ctx, q.Chapter, q.ID, q.ImageURL)
			if err != nil {
				skips = append(skips, Skip{Chapter: chapter, Reason: fmt.Sprintf("image for %s: %v", q.ID, err)})
				logger.Warn("image fetch failed",
					zap.String("chapter", chapter),
					zap.String("question", q.ID),
					zap.Error(err),
				)
				continue
			}
			withImage := q
			withImage.ImageRef = ref
			merged.AddOrUpdate(withImage)
			imagesByChapter[chapter]++
		}
	}
	for i := range report.Chapters {
		report.Chapters[i].Images = imagesByChapter[report.Chapters[i].Chapter]
	}
	return skips
}

func summarize(merged *bank.Bank, report Report) Summary {
	summary := Summary{
		Chapters:  len(report.Chapters),
		Questions: merged.Len(),
		Skips:     len(report.Skips),
	}
	for _, chapter := range report.Chapters {
		summary.Added += chapter.Added
		summary.Updated += chapter.Updated
		summary.Images += chapter.Images
	}
	return summary
}
