package extractor

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// LimitedRecognizer admits at most n calls into the wrapped engine at once.
// A slot is held until the engine returns, even after the caller gave up,
// so engine calls that cannot be interrupted never pile up.
type LimitedRecognizer struct {
	next Recognizer
	sem  *semaphore.Weighted
}

// NewLimitedRecognizer wraps r. n must be positive.
func NewLimitedRecognizer(r Recognizer, n int64) *LimitedRecognizer {
	return &LimitedRecognizer{next: r, sem: semaphore.NewWeighted(n)}
}

// Recognize waits for a free slot, or for ctx to end, then calls the engine.
func (l *LimitedRecognizer) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)

	return l.next.Recognize(ctx, image)
}
