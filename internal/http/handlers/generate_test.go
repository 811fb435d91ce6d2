package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"photostyler/internal/cache"
	"photostyler/internal/domain"
	"photostyler/internal/generate"
	"photostyler/internal/middleware"
	"photostyler/internal/providers/image"
	"photostyler/internal/style"
)

type fakeSettings struct {
	cfg   domain.ModelConfig
	saved *domain.ModelConfig
	err   error
}

func (f *fakeSettings) Get(ctx context.Context, userID string) (domain.ModelConfig, error) {
	if f.err != nil {
		return domain.ModelConfig{}, f.err
	}
	return f.cfg, nil
}

func (f *fakeSettings) Save(ctx context.Context, userID string, cfg domain.ModelConfig) error {
	if f.err != nil {
		return f.err
	}
	f.saved = &cfg
	return nil
}

type fakeGenerator struct {
	result  *image.Result
	err     error
	lastReq image.Request
	calls   int
}

func (g *fakeGenerator) Generate(ctx context.Context, req image.Request) (*image.Result, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func newTestApp(gen image.Generator, settings SettingsStore, store cache.Store) *App {
	providers := map[domain.Model]image.Generator{
		domain.ModelKolors: gen,
		domain.ModelOpenAI: gen,
	}
	registry := generate.NewRegistry(style.NewCatalog(), providers, store, zerolog.New(io.Discard))
	return NewApp(registry, style.NewCatalog(), settings, zerolog.New(io.Discard))
}

func authedRequest(method, target, body, locale string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), "user-1")
	if locale != "" {
		ctx = context.WithValue(ctx, middleware.LocaleKey, locale)
	}
	return req.WithContext(ctx)
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var view map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return view
}

func TestGenerateRequiresUserContext(t *testing.T) {
	app := newTestApp(&fakeGenerator{}, &fakeSettings{}, cache.NewMemoryStore())
	req := httptest.NewRequest(http.MethodPost, "/generations", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	app.Generate(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestGenerateSuccess(t *testing.T) {
	gen := &fakeGenerator{result: &image.Result{Images: []image.Image{{URL: "https://img.example.com/out.png"}}}}
	store := cache.NewMemoryStore()
	app := newTestApp(gen, &fakeSettings{cfg: domain.ModelConfig{Model: domain.ModelKolors}}, store)

	req := authedRequest(http.MethodPost, "/generations", `{"style_id":"pixar"}`, "")
	rec := httptest.NewRecorder()
	app.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	view := decodeView(t, rec)
	if view["state"] != "succeeded" {
		t.Fatalf("state = %v", view["state"])
	}
	if view["result_url"] != "https://img.example.com/out.png" {
		t.Fatalf("result_url = %v", view["result_url"])
	}
	if gen.calls != 1 {
		t.Fatalf("provider calls = %d", gen.calls)
	}

	rec2, err := store.Load(context.Background(), "user-1")
	if err != nil || rec2 == nil {
		t.Fatalf("cache record = %+v, err = %v", rec2, err)
	}
}

func TestGenerateEmptyCustomPromptLocalizedMessage(t *testing.T) {
	gen := &fakeGenerator{}
	app := newTestApp(gen, &fakeSettings{}, cache.NewMemoryStore())

	req := authedRequest(http.MethodPost, "/generations", `{"style_id":"custom","custom_prompt":"  "}`, "zh")
	rec := httptest.NewRecorder()
	app.Generate(rec, req)

	view := decodeView(t, rec)
	if view["state"] != "failed" {
		t.Fatalf("state = %v", view["state"])
	}
	if view["error_message"] != "请输入自定义风格描述" {
		t.Fatalf("error_message = %v", view["error_message"])
	}
	if gen.calls != 0 {
		t.Fatalf("provider calls = %d, want none for validation failure", gen.calls)
	}
}

func TestGenerateUsesStoredSettings(t *testing.T) {
	gen := &fakeGenerator{result: &image.Result{Images: []image.Image{{URL: "x"}}}}
	settings := &fakeSettings{cfg: domain.ModelConfig{Model: domain.ModelOpenAI, OpenAIAPIKey: "stored-key"}}
	app := newTestApp(gen, settings, cache.NewMemoryStore())

	req := authedRequest(http.MethodPost, "/generations", `{"style_id":"pixar"}`, "")
	rec := httptest.NewRecorder()
	app.Generate(rec, req)

	if gen.lastReq.Config.OpenAIAPIKey != "stored-key" {
		t.Fatalf("config = %+v, want stored settings", gen.lastReq.Config)
	}
}

func TestGenerateConfigOverrideBeatsStoredSettings(t *testing.T) {
	gen := &fakeGenerator{result: &image.Result{Images: []image.Image{{URL: "x"}}}}
	settings := &fakeSettings{cfg: domain.ModelConfig{Model: domain.ModelKolors}}
	app := newTestApp(gen, settings, cache.NewMemoryStore())

	body := `{"style_id":"pixar","config":{"model":"openai","openai_api_key":"inline-key"}}`
	req := authedRequest(http.MethodPost, "/generations", body, "")
	rec := httptest.NewRecorder()
	app.Generate(rec, req)

	if gen.lastReq.Config.Model != domain.ModelOpenAI || gen.lastReq.Config.OpenAIAPIKey != "inline-key" {
		t.Fatalf("config = %+v, want the inline override", gen.lastReq.Config)
	}
}

func TestRetryAfterFailureSucceeds(t *testing.T) {
	gen := &fakeGenerator{err: image.NewStatusError("kolors", http.StatusTooManyRequests)}
	app := newTestApp(gen, &fakeSettings{}, cache.NewMemoryStore())

	req := authedRequest(http.MethodPost, "/generations", `{"style_id":"pixar"}`, "")
	rec := httptest.NewRecorder()
	app.Generate(rec, req)
	view := decodeView(t, rec)
	if view["state"] != "failed" {
		t.Fatalf("state = %v", view["state"])
	}

	gen.err = nil
	gen.result = &image.Result{Images: []image.Image{{URL: "https://img.example.com/retry.png"}}}
	req = authedRequest(http.MethodPost, "/generations/retry", "", "")
	rec = httptest.NewRecorder()
	app.Retry(rec, req)
	view = decodeView(t, rec)
	if view["state"] != "succeeded" || view["result_url"] != "https://img.example.com/retry.png" {
		t.Fatalf("retry view = %v", view)
	}
}

func TestLastResultRestoresFreshRecord(t *testing.T) {
	store := cache.NewMemoryStore()
	rec0 := cache.NewRecord("https://img.example.com/cached.png", time.Now().Add(-10*time.Minute))
	if err := store.Save(context.Background(), "user-1", rec0); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	app := newTestApp(&fakeGenerator{}, &fakeSettings{}, store)

	req := authedRequest(http.MethodGet, "/generations/last", "", "")
	rec := httptest.NewRecorder()
	app.LastResult(rec, req)
	view := decodeView(t, rec)
	if view["state"] != "succeeded" || view["result_url"] != "https://img.example.com/cached.png" {
		t.Fatalf("view = %v", view)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	settings := &fakeSettings{cfg: domain.ModelConfig{Model: domain.ModelKolors}}
	app := newTestApp(&fakeGenerator{}, settings, cache.NewMemoryStore())

	req := authedRequest(http.MethodGet, "/settings", "", "")
	rec := httptest.NewRecorder()
	app.GetSettings(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	req = authedRequest(http.MethodPut, "/settings", `{"model":"OPENAI","openai_api_key":"k"}`, "")
	rec = httptest.NewRecorder()
	app.PutSettings(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d", rec.Code)
	}
	if settings.saved == nil || settings.saved.Model != domain.ModelOpenAI {
		t.Fatalf("saved = %+v, want normalized openai model", settings.saved)
	}
}
