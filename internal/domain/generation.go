package domain

import "strings"

// Model identifies which image provider serves a generation request.
type Model string

const (
	ModelKolors Model = "kolors"
	ModelOpenAI Model = "openai"
)

// NormalizeModel sanitizes free-form user input into a supported model,
// defaulting to Kolors the way the original product does.
func NormalizeModel(raw string) Model {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(ModelOpenAI):
		return ModelOpenAI
	default:
		return ModelKolors
	}
}

// ModelConfig carries the user-selected provider and optional per-user
// OpenAI overrides. Empty override fields mean "use process configuration".
type ModelConfig struct {
	Model         Model  `json:"model"`
	OpenAIAPIKey  string `json:"openai_api_key,omitempty"`
	OpenAIBaseURL string `json:"openai_base_url,omitempty"`
}

// GenerationOptions tunes the style-transfer provider. The OpenAI adapter
// ignores all of it.
type GenerationOptions struct {
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	Seed              *int64  `json:"seed,omitempty"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
}

// DefaultGenerationOptions returns the values used when the caller supplies
// none, and for every manual retry.
func DefaultGenerationOptions() GenerationOptions {
	return GenerationOptions{GuidanceScale: 7.5, NumInferenceSteps: 20}
}

// StylePreset is one entry of the fixed style catalog. The "custom" preset
// carries an empty prompt and signals that user-entered text substitutes
// for the template.
type StylePreset struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
}

// CustomStyleID marks the catalog entry whose prompt comes from the user.
const CustomStyleID = "custom"
