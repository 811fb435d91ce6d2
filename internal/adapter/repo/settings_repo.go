package repo

import (
	"context"
	"fmt"
	"strings"

	"photostyler/internal/domain"
	"photostyler/internal/infra"
	"photostyler/internal/sqlinline"
)

// SettingsRepo persists each user's model configuration. A user with no
// stored row gets the product default (Kolors, no overrides).
type SettingsRepo struct {
	sql infra.SQLExecutor
}

func NewSettingsRepo(sql infra.SQLExecutor) *SettingsRepo {
	return &SettingsRepo{sql: sql}
}

func (r *SettingsRepo) Get(ctx context.Context, userID string) (domain.ModelConfig, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectUserSettings, userID)
	var model, apiKey, baseURL string
	if err := row.Scan(&model, &apiKey, &baseURL); err != nil {
		if infra.IsNoRows(err) {
			return domain.ModelConfig{Model: domain.ModelKolors}, nil
		}
		return domain.ModelConfig{}, fmt.Errorf("settings: load: %w", err)
	}
	return domain.ModelConfig{
		Model:         domain.NormalizeModel(model),
		OpenAIAPIKey:  strings.TrimSpace(apiKey),
		OpenAIBaseURL: strings.TrimSpace(baseURL),
	}, nil
}

func (r *SettingsRepo) Save(ctx context.Context, userID string, cfg domain.ModelConfig) error {
	model := domain.NormalizeModel(string(cfg.Model))
	_, err := r.sql.Exec(ctx, sqlinline.QUpsertUserSettings,
		userID, string(model), strings.TrimSpace(cfg.OpenAIAPIKey), strings.TrimSpace(cfg.OpenAIBaseURL))
	if err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
