package generate

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"photostyler/internal/cache"
	"photostyler/internal/domain"
	"photostyler/internal/i18n"
	"photostyler/internal/providers/image"
	"photostyler/internal/style"
)

type fakeGenerator struct {
	mu      sync.Mutex
	result  *image.Result
	err     error
	calls   int
	lastReq image.Request
	gate    chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, req image.Request) (*image.Result, error) {
	g.mu.Lock()
	g.calls++
	g.lastReq = req
	gate := g.gate
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestController(gen image.Generator, store cache.Store) *Controller {
	providers := map[domain.Model]image.Generator{
		domain.ModelKolors: gen,
		domain.ModelOpenAI: gen,
	}
	return NewController("user-1", style.NewCatalog(), providers, store, zerolog.New(io.Discard))
}

func TestGenerateSuccessCachesFirstImage(t *testing.T) {
	gen := &fakeGenerator{result: &image.Result{Images: []image.Image{
		{URL: "https://img.example.com/first.png"},
		{URL: "https://img.example.com/second.png"},
	}}}
	store := cache.NewMemoryStore()
	ctrl := newTestController(gen, store)

	before := time.Now()
	snap := ctrl.Generate(context.Background(), Input{StyleID: "pixar"})
	if snap.State != StateSucceeded {
		t.Fatalf("state = %q, want succeeded", snap.State)
	}
	if snap.ResultURL != "https://img.example.com/first.png" {
		t.Fatalf("result url = %q, want the first image", snap.ResultURL)
	}

	rec, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected cached record")
	}
	if rec.URL != snap.ResultURL {
		t.Fatalf("cached url = %q", rec.URL)
	}
	drift := math.Abs(float64(rec.Timestamp - before.UnixMilli()))
	if drift > float64((5 * time.Second).Milliseconds()) {
		t.Fatalf("cached timestamp drifted %fms from call time", drift)
	}
}

func TestGenerateEmptyResultFailsAndLeavesCacheAlone(t *testing.T) {
	gen := &fakeGenerator{result: &image.Result{}}
	store := cache.NewMemoryStore()
	ctrl := newTestController(gen, store)

	prior := cache.NewRecord("https://img.example.com/old.png", time.Now())
	if err := store.Save(context.Background(), "user-1", prior); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	snap := ctrl.Generate(context.Background(), Input{StyleID: "pixar"})
	if snap.State != StateFailed {
		t.Fatalf("state = %q, want failed", snap.State)
	}
	if snap.MessageKey != i18n.KeyEmptyResult {
		t.Fatalf("message key = %q, want empty result", snap.MessageKey)
	}

	rec, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if rec == nil || rec.URL != prior.URL {
		t.Fatalf("cache = %+v, want prior record untouched", rec)
	}
}

func TestGenerateEmptyCustomPromptSkipsProvider(t *testing.T) {
	gen := &fakeGenerator{result: &image.Result{Images: []image.Image{{URL: "x"}}}}
	ctrl := newTestController(gen, cache.NewMemoryStore())

	for _, text := range []string{"", "   "} {
		snap := ctrl.Generate(context.Background(), Input{StyleID: domain.CustomStyleID, CustomPrompt: text})
		if snap.State != StateFailed {
			t.Fatalf("custom %q: state = %q, want failed", text, snap.State)
		}
		if snap.MessageKey != i18n.KeyEmptyCustomPrompt {
			t.Fatalf("custom %q: message key = %q", text, snap.MessageKey)
		}
	}
	if gen.callCount() != 0 {
		t.Fatalf("provider called %d times, want 0", gen.callCount())
	}
}

func TestGenerateMapsProviderErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		key  string
	}{
		{"invalid key", image.NewStatusError("kolors", 401), i18n.KeyInvalidKey},
		{"rate limited", image.NewStatusError("kolors", 429), i18n.KeyRateLimited},
		{"access denied", image.NewStatusError("openai", 403), i18n.KeyAccessDenied},
		{"server error", image.NewStatusError("openai", 500), i18n.KeyServerError},
		{"bad request", image.NewStatusError("kolors", 422), i18n.KeyBadRequest},
		{"network", &image.NetworkError{Provider: "kolors", Err: errors.New("refused")}, i18n.KeyNetworkError},
		{"missing credential", domain.ErrMissingCredential, i18n.KeyMissingCredential},
		{"unknown", errors.New("boom"), i18n.KeyGenerationFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tc.err}
			ctrl := newTestController(gen, cache.NewMemoryStore())
			snap := ctrl.Generate(context.Background(), Input{StyleID: "pixar"})
			if snap.State != StateFailed {
				t.Fatalf("state = %q, want failed", snap.State)
			}
			if snap.MessageKey != tc.key {
				t.Fatalf("message key = %q, want %q", snap.MessageKey, tc.key)
			}
		})
	}
}

func TestRetryUsesDefaultOptionsAndLastInput(t *testing.T) {
	gen := &fakeGenerator{result: &image.Result{Images: []image.Image{{URL: "x"}}}}
	ctrl := newTestController(gen, cache.NewMemoryStore())

	seed := int64(99)
	ctrl.Generate(context.Background(), Input{
		StyleID: "snoopy",
		Options: domain.GenerationOptions{GuidanceScale: 12, NumInferenceSteps: 50, Seed: &seed, NegativePrompt: "text"},
	})

	snap := ctrl.Retry(context.Background())
	if snap.State != StateSucceeded {
		t.Fatalf("state = %q", snap.State)
	}
	if gen.callCount() != 2 {
		t.Fatalf("provider calls = %d, want 2", gen.callCount())
	}

	gen.mu.Lock()
	last := gen.lastReq
	gen.mu.Unlock()
	if last.Options.GuidanceScale != 7.5 || last.Options.NumInferenceSteps != 20 {
		t.Fatalf("retry options = %+v, want defaults", last.Options)
	}
	if last.Options.Seed != nil || last.Options.NegativePrompt != "" {
		t.Fatalf("retry carried over seed/negative prompt: %+v", last.Options)
	}
}

func TestRetryWithoutPriorAttemptIsNoop(t *testing.T) {
	gen := &fakeGenerator{}
	ctrl := newTestController(gen, cache.NewMemoryStore())

	snap := ctrl.Retry(context.Background())
	if snap.State != StateIdle {
		t.Fatalf("state = %q, want idle", snap.State)
	}
	if gen.callCount() != 0 {
		t.Fatalf("provider calls = %d, want 0", gen.callCount())
	}
}

func TestLoadCachedFreshRecord(t *testing.T) {
	store := cache.NewMemoryStore()
	rec := cache.NewRecord("https://img.example.com/cached.png", time.Now().Add(-59*time.Minute))
	if err := store.Save(context.Background(), "user-1", rec); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	ctrl := newTestController(&fakeGenerator{}, store)

	snap := ctrl.LoadCached(context.Background())
	if snap.State != StateSucceeded {
		t.Fatalf("state = %q, want succeeded", snap.State)
	}
	if snap.ResultURL != rec.URL {
		t.Fatalf("result url = %q", snap.ResultURL)
	}
}

func TestLoadCachedStaleRecordIsDiscarded(t *testing.T) {
	store := cache.NewMemoryStore()
	rec := cache.NewRecord("https://img.example.com/cached.png", time.Now().Add(-61*time.Minute))
	if err := store.Save(context.Background(), "user-1", rec); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	ctrl := newTestController(&fakeGenerator{}, store)

	snap := ctrl.LoadCached(context.Background())
	if snap.State != StateIdle || snap.ResultURL != "" {
		t.Fatalf("snapshot = %+v, want untouched idle state", snap)
	}

	left, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if left != nil {
		t.Fatalf("stale record should have been deleted, got %+v", left)
	}
}

func TestLoadCachedEmptyStoreIsNoop(t *testing.T) {
	ctrl := newTestController(&fakeGenerator{}, cache.NewMemoryStore())
	snap := ctrl.LoadCached(context.Background())
	if snap.State != StateIdle || snap.ResultURL != "" {
		t.Fatalf("snapshot = %+v, want idle", snap)
	}
}

func TestStaleCompletionDoesNotOverwriteNewerState(t *testing.T) {
	slow := &fakeGenerator{
		result: &image.Result{Images: []image.Image{{URL: "https://img.example.com/stale.png"}}},
		gate:   make(chan struct{}),
	}
	store := cache.NewMemoryStore()
	providers := map[domain.Model]image.Generator{domain.ModelKolors: slow}
	ctrl := NewController("user-1", style.NewCatalog(), providers, store, zerolog.New(io.Discard))

	done := make(chan Snapshot, 1)
	go func() {
		done <- ctrl.Generate(context.Background(), Input{StyleID: "pixar"})
	}()

	// Wait for the first attempt to reach the provider.
	for i := 0; i < 100 && slow.callCount() == 0; i++ {
		time.Sleep(time.Millisecond)
	}
	if slow.callCount() == 0 {
		t.Fatalf("first attempt never reached the provider")
	}

	// Second attempt completes immediately and becomes the latest token.
	fast := &fakeGenerator{result: &image.Result{Images: []image.Image{{URL: "https://img.example.com/fresh.png"}}}}
	providers[domain.ModelKolors] = fast
	snap := ctrl.Generate(context.Background(), Input{StyleID: "pixar"})
	if snap.ResultURL != "https://img.example.com/fresh.png" {
		t.Fatalf("second attempt url = %q", snap.ResultURL)
	}

	// Release the first attempt; its completion must be discarded.
	close(slow.gate)
	stale := <-done
	if stale.ResultURL != "https://img.example.com/fresh.png" {
		t.Fatalf("stale completion returned %q, want the newer state", stale.ResultURL)
	}
	if got := ctrl.Snapshot(); got.ResultURL != "https://img.example.com/fresh.png" {
		t.Fatalf("controller state = %+v, want the newer result", got)
	}

	rec, err := store.Load(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("load cache: %v", err)
	}
	if rec == nil || rec.URL != "https://img.example.com/fresh.png" {
		t.Fatalf("cache = %+v, stale completion must not overwrite it", rec)
	}
}
