// Package generate owns the lifecycle of an image generation request:
// resolving the prompt, dispatching to the provider selected by the user's
// model configuration, and persisting the last successful result.
package generate

import (
	"context"
	"errors"
	"sync"
	"time"

	"photostyler/internal/cache"
	"photostyler/internal/domain"
	"photostyler/internal/i18n"
	"photostyler/internal/infra"
	"photostyler/internal/providers/image"
	"photostyler/internal/style"
)

// State is the externally visible phase of a controller.
type State string

const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Snapshot is an immutable view of a controller, safe to hand to the
// rendering layer. MessageKey is set only in the failed state and is
// translated per-request by the HTTP layer.
type Snapshot struct {
	State      State
	ResultURL  string
	MessageKey string
}

// Input carries everything one generation attempt needs.
type Input struct {
	StyleID      string
	CustomPrompt string
	ImageBase64  string
	Config       domain.ModelConfig
	Options      domain.GenerationOptions
}

// Controller serializes state transitions for a single user. All state
// changes happen under the mutex; provider calls do not, so overlapping
// requests race only on completion, where the request token decides: a
// completion that is no longer the latest issued attempt is discarded
// rather than overwriting newer state.
type Controller struct {
	userID    string
	styles    *style.Catalog
	providers map[domain.Model]image.Generator
	store     cache.Store
	logger    infra.Logger

	mu        sync.Mutex
	snapshot  Snapshot
	token     uint64
	lastInput *Input
}

// NewController wires a controller for one user.
func NewController(userID string, styles *style.Catalog, providers map[domain.Model]image.Generator, store cache.Store, logger infra.Logger) *Controller {
	return &Controller{
		userID:    userID,
		styles:    styles,
		providers: providers,
		store:     store,
		logger:    logger,
		snapshot:  Snapshot{State: StateIdle},
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Generate runs one attempt end to end and returns the resulting snapshot.
func (c *Controller) Generate(ctx context.Context, in Input) Snapshot {
	prompt, err := c.styles.Resolve(in.StyleID, in.CustomPrompt)
	if err != nil {
		// Validation failures block before any network call.
		c.mu.Lock()
		c.snapshot = Snapshot{State: StateFailed, MessageKey: messageKey(err)}
		snap := c.snapshot
		c.mu.Unlock()
		return snap
	}

	model := domain.NormalizeModel(string(in.Config.Model))

	c.mu.Lock()
	c.token++
	token := c.token
	stored := in
	c.lastInput = &stored
	c.snapshot = Snapshot{State: StateGenerating}
	c.mu.Unlock()

	generator, ok := c.providers[model]
	if !ok {
		snap, _ := c.finish(token, "", domain.ErrUnsupportedModel)
		return snap
	}

	result, err := generator.Generate(ctx, image.Request{
		Prompt:      prompt,
		ImageBase64: in.ImageBase64,
		Options:     in.Options,
		Config:      in.Config,
	})
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("user_id", c.userID).
			Str("model", string(model)).
			Msg("generation failed")
		snap, _ := c.finish(token, "", err)
		return snap
	}
	if len(result.Images) == 0 {
		// HTTP success with zero images is a provider contract violation.
		c.logger.Warn().
			Str("user_id", c.userID).
			Str("model", string(model)).
			Msg("provider returned empty image list")
		snap, _ := c.finish(token, "", domain.ErrEmptyResult)
		return snap
	}

	url := result.Images[0].URL
	snap, applied := c.finish(token, url, nil)
	if applied {
		if err := c.store.Save(ctx, c.userID, cache.NewRecord(url, time.Now())); err != nil {
			c.logger.Warn().Err(err).Str("user_id", c.userID).Msg("failed to cache result")
		}
	}
	return snap
}

// Retry reruns the previous attempt with default tuning options, dropping
// any earlier seed and negative prompt on purpose.
func (c *Controller) Retry(ctx context.Context) Snapshot {
	c.mu.Lock()
	last := c.lastInput
	if last == nil {
		snap := c.snapshot
		c.mu.Unlock()
		return snap
	}
	in := *last
	c.mu.Unlock()

	in.Options = domain.DefaultGenerationOptions()
	return c.Generate(ctx, in)
}

// LoadCached restores the last persisted result, deleting records that are
// stale or unreadable. It never passes through the generating state.
func (c *Controller) LoadCached(ctx context.Context) Snapshot {
	rec, err := c.store.Load(ctx, c.userID)
	if err != nil {
		c.logger.Warn().Err(err).Str("user_id", c.userID).Msg("failed to load cached result")
		return c.Snapshot()
	}
	if rec == nil {
		return c.Snapshot()
	}
	if rec.Expired(time.Now()) {
		if err := c.store.Delete(ctx, c.userID); err != nil {
			c.logger.Warn().Err(err).Str("user_id", c.userID).Msg("failed to drop stale cached result")
		}
		return c.Snapshot()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = Snapshot{State: StateSucceeded, ResultURL: rec.URL}
	return c.snapshot
}

// finish applies a terminal transition if token still identifies the latest
// attempt. Stale completions leave the newer state untouched and report
// applied=false so side effects like the cache write are skipped too.
func (c *Controller) finish(token uint64, url string, err error) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token {
		return c.snapshot, false
	}
	if err != nil {
		c.snapshot = Snapshot{State: StateFailed, MessageKey: messageKey(err)}
	} else {
		c.snapshot = Snapshot{State: StateSucceeded, ResultURL: url}
	}
	return c.snapshot, true
}

func messageKey(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyCustomPrompt):
		return i18n.KeyEmptyCustomPrompt
	case errors.Is(err, domain.ErrMissingCredential):
		return i18n.KeyMissingCredential
	case errors.Is(err, domain.ErrEmptyResult):
		return i18n.KeyEmptyResult
	}
	var statusErr *image.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Kind {
		case image.KindInvalidKey:
			return i18n.KeyInvalidKey
		case image.KindAccessDenied:
			return i18n.KeyAccessDenied
		case image.KindRateLimited:
			return i18n.KeyRateLimited
		case image.KindServerError:
			return i18n.KeyServerError
		case image.KindBadRequest:
			return i18n.KeyBadRequest
		}
	}
	var netErr *image.NetworkError
	if errors.As(err, &netErr) {
		return i18n.KeyNetworkError
	}
	return i18n.KeyGenerationFailed
}
