package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"photostyler/internal/domain"
	"photostyler/internal/generate"
	"photostyler/internal/infra"
	"photostyler/internal/style"
)

// SettingsStore abstracts the per-user model configuration storage so
// handlers can be tested without a database.
type SettingsStore interface {
	Get(ctx context.Context, userID string) (domain.ModelConfig, error)
	Save(ctx context.Context, userID string, cfg domain.ModelConfig) error
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Registry *generate.Registry
	Styles   *style.Catalog
	Settings SettingsStore
	Logger   infra.Logger
}

func NewApp(registry *generate.Registry, styles *style.Catalog, settings SettingsStore, logger infra.Logger) *App {
	return &App{Registry: registry, Styles: styles, Settings: settings, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"code": code, "message": message})
}
