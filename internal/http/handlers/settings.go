package handlers

import (
	"encoding/json"
	"net/http"

	"photostyler/internal/domain"
	"photostyler/internal/middleware"
)

// GetSettings returns the caller's stored model configuration, defaults
// included. The API key is echoed back so the configuration UI can show
// that one is set; it never appears in logs.
func (a *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	cfg, err := a.Settings.Get(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("load settings")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load settings")
		return
	}
	a.json(w, http.StatusOK, cfg)
}

// PutSettings replaces the caller's model configuration.
func (a *App) PutSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var cfg domain.ModelConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	cfg.Model = domain.NormalizeModel(string(cfg.Model))
	if err := a.Settings.Save(r.Context(), userID, cfg); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("save settings")
		a.error(w, http.StatusInternalServerError, "internal", "failed to save settings")
		return
	}
	a.json(w, http.StatusOK, cfg)
}
