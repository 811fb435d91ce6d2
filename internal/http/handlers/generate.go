package handlers

import (
	"encoding/json"
	"net/http"

	"photostyler/internal/domain"
	"photostyler/internal/generate"
	"photostyler/internal/i18n"
	"photostyler/internal/middleware"
)

type generateRequest struct {
	StyleID      string                    `json:"style_id"`
	CustomPrompt string                    `json:"custom_prompt"`
	ImageBase64  string                    `json:"image_base64"`
	Options      *domain.GenerationOptions `json:"options"`
	Config       *domain.ModelConfig       `json:"config"`
}

type generationView struct {
	State        string `json:"state"`
	ResultURL    string `json:"result_url,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Generate runs one generation attempt for the caller. Validation failures
// and provider errors come back as the failed state with a localized
// message, mirroring how the front end renders them.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	cfg, err := a.resolveConfig(r, userID, req.Config)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load settings")
		return
	}
	opts := domain.DefaultGenerationOptions()
	if req.Options != nil {
		opts = *req.Options
	}

	snap := a.Registry.Controller(userID).Generate(r.Context(), generate.Input{
		StyleID:      req.StyleID,
		CustomPrompt: req.CustomPrompt,
		ImageBase64:  req.ImageBase64,
		Config:       cfg,
		Options:      opts,
	})
	a.renderSnapshot(w, r, snap)
}

// Retry reruns the caller's previous attempt with default tuning options.
func (a *App) Retry(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	snap := a.Registry.Controller(userID).Retry(r.Context())
	a.renderSnapshot(w, r, snap)
}

// LastResult restores the cached result from a previous session, discarding
// it when stale.
func (a *App) LastResult(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	snap := a.Registry.Controller(userID).LoadCached(r.Context())
	a.renderSnapshot(w, r, snap)
}

// resolveConfig prefers a per-request config override and falls back to the
// caller's stored settings.
func (a *App) resolveConfig(r *http.Request, userID string, override *domain.ModelConfig) (domain.ModelConfig, error) {
	if override != nil {
		cfg := *override
		cfg.Model = domain.NormalizeModel(string(cfg.Model))
		return cfg, nil
	}
	cfg, err := a.Settings.Get(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load settings")
		return domain.ModelConfig{}, err
	}
	return cfg, nil
}

func (a *App) renderSnapshot(w http.ResponseWriter, r *http.Request, snap generate.Snapshot) {
	view := generationView{
		State:     string(snap.State),
		ResultURL: snap.ResultURL,
	}
	if snap.MessageKey != "" {
		view.ErrorMessage = i18n.T(middleware.LocaleFromContext(r.Context()), snap.MessageKey)
	}
	a.json(w, http.StatusOK, view)
}
