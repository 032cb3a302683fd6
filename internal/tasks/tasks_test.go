package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/oembed/internal/models"
	"github.com/desertthunder/oembed/internal/oembed"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/repositories"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
)

type mockResolver struct {
	mu       sync.Mutex
	requests []services.ConsumerRequest
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (m *mockResolver) Resolve(ctx context.Context, req services.ConsumerRequest) (*services.Embed, error) {
	n := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	switch {
	case strings.Contains(req.URL, "unknown"):
		return nil, fmt.Errorf("%w: %s", shared.ErrNoMatchingProvider, req.URL)
	case strings.Contains(req.URL, "broken"):
		return nil, fmt.Errorf("%w: status 500", shared.ErrTransport)
	}

	title := "title for " + req.URL
	return &services.Embed{
		URL:      req.URL,
		Provider: registry.Provider{Name: "Example"},
		Endpoint: registry.Endpoint{URL: "https://example.com/oembed"},
		Response: &oembed.Response{Variant: oembed.Link{}, Version: "1.0", Title: &title},
	}, nil
}

type mockArchiver struct {
	started  bool
	finished *models.BatchRun
	saved    []string
	saveErr  error
}

func (m *mockArchiver) StartBatch(run *models.BatchRun) error {
	m.started = true
	run.SetID("batch-1")
	return nil
}

func (m *mockArchiver) SaveEmbed(embed *services.Embed, batchID string) (*models.EmbedRecord, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = append(m.saved, embed.URL+"@"+batchID)
	return models.NewEmbedRecord(len(m.saved), embed.URL, embed.Provider.Name, embed.Endpoint.URL, embed.Response)
}

func (m *mockArchiver) FinishBatch(run *models.BatchRun) error {
	m.finished = run
	return nil
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func TestBatchEngineRun(t *testing.T) {
	urls := []string{
		"https://example.com/1",
		"https://unknown.example/2",
		"https://example.com/broken",
		"https://example.com/4",
	}

	t.Run("Outcomes", func(t *testing.T) {
		resolver := &mockResolver{}
		engine := NewBatchEngine(resolver, nil, quietLogger())

		width := 320
		result, err := engine.Run(context.Background(), nil, urls, BatchOpts{MaxWidth: &width, Params: map[string]string{"theme": "dark"}})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		want := []models.Outcome{OutcomeFetched, OutcomeUnmatched, OutcomeFailed, OutcomeFetched}
		for i, res := range result.Results {
			if res.URL != urls[i] || res.Index != i {
				t.Errorf("result %d out of order: %s", i, res.URL)
			}
			if res.Outcome != want[i] {
				t.Errorf("result %d: expected %s, got %s", i, want[i], res.Outcome)
			}
		}
		if !errors.Is(result.Results[1].Error, shared.ErrNoMatchingProvider) {
			t.Errorf("expected ErrNoMatchingProvider, got %v", result.Results[1].Error)
		}

		run := result.Run
		if run.Fetched() != 2 || run.Unmatched() != 1 || run.Failed() != 1 {
			t.Errorf("unexpected counters %d/%d/%d", run.Fetched(), run.Unmatched(), run.Failed())
		}
		if run.CompletedAt() == nil {
			t.Error("expected run to be completed")
		}

		for _, req := range resolver.requests {
			if req.MaxWidth == nil || *req.MaxWidth != 320 || req.Params["theme"] != "dark" {
				t.Errorf("request options not applied: %+v", req)
			}
		}
	})

	t.Run("Progress", func(t *testing.T) {
		engine := NewBatchEngine(&mockResolver{}, nil, quietLogger())
		progress := make(chan ProgressUpdate, 16)

		if _, err := engine.Run(context.Background(), progress, urls, BatchOpts{}); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for u := range progress {
			phases = append(phases, u.Phase)
		}
		if len(phases) != len(urls)+2 {
			t.Fatalf("expected %d updates, got %d", len(urls)+2, len(phases))
		}
		if phases[0] != StartBatch || phases[len(phases)-1] != FinishBatch {
			t.Errorf("unexpected phase order %v", phases)
		}
	})

	t.Run("ProgressNeverBlocks", func(t *testing.T) {
		engine := NewBatchEngine(&mockResolver{}, nil, quietLogger())
		progress := make(chan ProgressUpdate)

		done := make(chan struct{})
		go func() {
			defer close(done)
			if _, err := engine.Run(context.Background(), progress, urls, BatchOpts{}); err != nil {
				t.Errorf("Run failed: %v", err)
			}
		}()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Run blocked on an unread progress channel")
		}
	})

	t.Run("Archiver", func(t *testing.T) {
		archiver := &mockArchiver{}
		engine := NewBatchEngine(&mockResolver{}, archiver, quietLogger())

		result, err := engine.Run(context.Background(), nil, urls, BatchOpts{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !archiver.started || archiver.finished != result.Run {
			t.Error("expected batch to be started and finished")
		}
		if len(archiver.saved) != 2 || archiver.saved[0] != "https://example.com/1@batch-1" {
			t.Errorf("unexpected saved embeds %v", archiver.saved)
		}
		if result.Results[0].Record == nil {
			t.Error("expected archived record on fetched result")
		}
	})

	t.Run("ArchiverFailureDoesNotStopRun", func(t *testing.T) {
		archiver := &mockArchiver{saveErr: errors.New("disk full")}
		engine := NewBatchEngine(&mockResolver{}, archiver, quietLogger())

		result, err := engine.Run(context.Background(), nil, urls, BatchOpts{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Run.Fetched() != 2 {
			t.Errorf("expected 2 fetched, got %d", result.Run.Fetched())
		}
	})

	t.Run("Workers", func(t *testing.T) {
		resolver := &mockResolver{delay: 20 * time.Millisecond}
		engine := NewBatchEngine(resolver, nil, quietLogger())

		many := make([]string, 12)
		for i := range many {
			many[i] = fmt.Sprintf("https://example.com/%d", i)
		}

		result, err := engine.Run(context.Background(), nil, many, BatchOpts{Workers: 4})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Run.Fetched() != 12 {
			t.Errorf("expected 12 fetched, got %d", result.Run.Fetched())
		}
		if n := resolver.maxSeen.Load(); n > 4 {
			t.Errorf("expected at most 4 concurrent resolves, saw %d", n)
		}
		for i, res := range result.Results {
			if res.URL != many[i] {
				t.Errorf("result %d out of order: %s", i, res.URL)
			}
		}
	})

	t.Run("RateLimit", func(t *testing.T) {
		engine := NewBatchEngine(&mockResolver{}, nil, quietLogger())

		start := time.Now()
		if _, err := engine.Run(context.Background(), nil, urls[:3], BatchOpts{RateLimit: 20}); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		// burst of 1 at 20/s: the second and third requests wait ~50ms each
		if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
			t.Errorf("expected rate limiting, finished in %v", elapsed)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		resolver := &mockResolver{delay: 50 * time.Millisecond}
		engine := NewBatchEngine(resolver, nil, quietLogger())

		ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
		defer cancel()

		many := make([]string, 10)
		for i := range many {
			many[i] = fmt.Sprintf("https://example.com/%d", i)
		}

		result, err := engine.Run(ctx, nil, many, BatchOpts{})
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected DeadlineExceeded, got %v", err)
		}
		if result == nil {
			t.Fatal("expected partial result")
		}
		if result.Run.Processed() != len(many) {
			t.Errorf("expected every url accounted for, got %d", result.Run.Processed())
		}
		if result.Results[len(many)-1].Outcome != OutcomeFailed {
			t.Errorf("expected trailing url to fail, got %s", result.Results[len(many)-1].Outcome)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		if _, err := NewBatchEngine(nil, nil, quietLogger()).Run(context.Background(), nil, urls, BatchOpts{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for nil resolver, got %v", err)
		}
		if _, err := NewBatchEngine(&mockResolver{}, nil, quietLogger()).Run(context.Background(), nil, nil, BatchOpts{}); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for empty list, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if err := shared.RunMigrations(db); err != nil {
		t.Fatal(err)
	}

	embeds := repositories.NewEmbedRepository(db)
	history := NewHistory(embeds, repositories.NewBatchRepository(db))
	engine := NewBatchEngine(&mockResolver{}, history, quietLogger())

	result, err := engine.Run(context.Background(), nil, []string{"https://example.com/1", "https://unknown.example/2"}, BatchOpts{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	saved, err := embeds.List(map[string]any{"batch_id": result.Run.ID()})
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].URL() != "https://example.com/1" {
		t.Fatalf("unexpected saved embeds %v", saved)
	}
	if saved[0].Title() != "title for https://example.com/1" {
		t.Errorf("unexpected title %q", saved[0].Title())
	}

	run, err := repositories.NewBatchRepository(db).Get(result.Run.ID())
	if err != nil {
		t.Fatal(err)
	}
	if run.Fetched() != 1 || run.Unmatched() != 1 || run.CompletedAt() == nil {
		t.Errorf("batch counters not stored: %d/%d", run.Fetched(), run.Unmatched())
	}

	single, err := history.SaveEmbed(result.Results[0].Embed, "")
	if err != nil {
		t.Fatalf("SaveEmbed failed: %v", err)
	}
	if single.BatchID() != "" || single.Sequence() != 2 {
		t.Errorf("unexpected standalone record batch=%q seq=%d", single.BatchID(), single.Sequence())
	}
}

func TestReadURLs(t *testing.T) {
	input := "https://a.example/1\n\n  # comment\n  https://b.example/2  \n#https://skipped\n"
	urls, err := ReadURLs(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadURLs failed: %v", err)
	}
	want := []string{"https://a.example/1", "https://b.example/2"}
	if len(urls) != len(want) {
		t.Fatalf("expected %v, got %v", want, urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("expected %s, got %s", want[i], urls[i])
		}
	}
}

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		StartBatch:  "start_batch",
		FetchEmbeds: "fetch_embeds",
		SaveEmbeds:  "save_embeds",
		FinishBatch: "finish_batch",
		Phase(99):   "",
	}
	for phase, want := range tests {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
