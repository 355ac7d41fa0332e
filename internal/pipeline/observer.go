package pipeline

// Observer receives run lifecycle events for logging or UI.
type Observer interface {
	ChapterStarted(chapter string)
	ChapterFinished(summary ChapterSummary)
	Skipped(skip Skip)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) ChapterStarted(string)          {}
func (NopObserver) ChapterFinished(ChapterSummary) {}
func (NopObserver) Skipped(Skip)                   {}
