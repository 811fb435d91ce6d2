package kolors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photostyler/internal/domain"
	"photostyler/internal/infra"
	"photostyler/internal/providers/image"
)

const providerName = "kolors"

// Options configures the SiliconFlow Kolors client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the SiliconFlow style-transfer API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type generationRequest struct {
	Model             string  `json:"model"`
	Prompt            string  `json:"prompt"`
	ImageSize         string  `json:"image_size"`
	BatchSize         int     `json:"batch_size"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale"`
	Seed              *int64  `json:"seed,omitempty"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Image             string  `json:"image,omitempty"`
}

type generationResponse struct {
	Images []image.Image `json:"images"`
	Timings struct {
		Inference float64 `json:"inference"`
	} `json:"timings"`
	Seed int64 `json:"seed"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.siliconflow.cn/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "Kwai-Kolors/Kolors"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate issues a single style-transfer call. The credential check happens
// before any network traffic.
func (c *Client) Generate(ctx context.Context, req image.Request) (*image.Result, error) {
	if !c.HasCredentials() {
		return nil, fmt.Errorf("%s: %w", providerName, domain.ErrMissingCredential)
	}
	opts := req.Options
	if opts.NumInferenceSteps <= 0 {
		opts.NumInferenceSteps = 20
	}
	if opts.GuidanceScale <= 0 {
		opts.GuidanceScale = 7.5
	}
	payload := generationRequest{
		Model:             c.model,
		Prompt:            req.Prompt,
		ImageSize:         "1024x1024",
		BatchSize:         1,
		NumInferenceSteps: opts.NumInferenceSteps,
		GuidanceScale:     opts.GuidanceScale,
	}
	if opts.Seed != nil {
		payload.Seed = opts.Seed
	}
	if neg := strings.TrimSpace(opts.NegativePrompt); neg != "" {
		payload.NegativePrompt = neg
	}
	if img := strings.TrimSpace(req.ImageBase64); img != "" {
		payload.Image = img
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", providerName, err)
	}
	endpoint := c.baseURL + "/images/generations"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &image.NetworkError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &image.NetworkError{Provider: providerName, Err: err}
	}

	if resp.StatusCode >= 300 {
		// The raw body stays in the logs; callers only ever see the kind.
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("body", strings.TrimSpace(string(raw))).
			Msg("kolors: provider error response")
		return nil, image.NewStatusError(providerName, resp.StatusCode)
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", providerName, err)
	}
	c.logger.Debug().
		Str("model", c.model).
		Int("images", len(decoded.Images)).
		Int64("seed", decoded.Seed).
		Msg("kolors: generation complete")
	return &image.Result{Images: decoded.Images}, nil
}

var _ image.Generator = (*Client)(nil)
