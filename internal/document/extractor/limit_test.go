package extractor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sanjeevkumarraob/study-material-service/internal/document/testdocs"
)

func TestLimitedRecognizer_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	engine := recognizerFunc(func(ctx context.Context, img []byte) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return "ok", nil
	})
	e := NewImageExtractor(NewLimitedRecognizer(engine, 2), 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Extract(context.Background(), testdocs.PNG()); err != nil {
				t.Errorf("Extract: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Fatalf("peak concurrency = %d, want at most 2", got)
	}
}

func TestLimitedRecognizer_StuckEngineHoldsSlot(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	engine := recognizerFunc(func(ctx context.Context, img []byte) (string, error) {
		calls.Add(1)
		<-release
		return "late", nil
	})
	limited := NewLimitedRecognizer(engine, 1)
	e := NewImageExtractor(limited, 20*time.Millisecond)

	// The first call times out but the engine keeps running.
	if _, err := e.Extract(context.Background(), testdocs.PNG()); !errors.Is(err, ErrEngineFailure) {
		t.Fatalf("first Extract() error = %v, want ErrEngineFailure", err)
	}
	// The second call cannot enter the engine while the first is stuck.
	if _, err := e.Extract(context.Background(), testdocs.PNG()); !errors.Is(err, ErrEngineFailure) {
		t.Fatalf("second Extract() error = %v, want ErrEngineFailure", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("engine entered %d times, want 1", got)
	}

	close(release)
	text, err := NewImageExtractor(limited, time.Second).Extract(context.Background(), testdocs.PNG())
	if err != nil || text != "late" {
		t.Fatalf("Extract() = %q, %v", text, err)
	}
}
