package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"photostyler/internal/domain"
	"photostyler/internal/infra"
	"photostyler/internal/providers/image"
)

const providerName = "openai"

// Options configures the OpenAI-compatible image client. APIKey and BaseURL
// are process-wide defaults; per-request overrides in the ModelConfig win.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to an OpenAI-style image API, switching between the generate
// and edit endpoints depending on whether a reference image was supplied.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	ResponseFormat string `json:"response_format"`
	Size           string `json:"size"`
	N              int    `json:"n"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gpt-image-1"
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
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		model:      model,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Generate dispatches to the edit endpoint when a reference image is present
// and to the generation endpoint otherwise. Both paths normalize the
// response into the shared Result shape.
func (c *Client) Generate(ctx context.Context, req image.Request) (*image.Result, error) {
	apiKey := strings.TrimSpace(req.Config.OpenAIAPIKey)
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %w", providerName, domain.ErrMissingCredential)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(req.Config.OpenAIBaseURL), "/")
	if baseURL == "" {
		baseURL = c.baseURL
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	var httpReq *http.Request
	var err error
	if strings.TrimSpace(req.ImageBase64) != "" {
		httpReq, err = c.buildEditRequest(ctx, baseURL, req)
	} else {
		httpReq, err = c.buildGenerateRequest(ctx, baseURL, req)
	}
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

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
		c.logger.Debug().
			Int("status", resp.StatusCode).
			Str("body", strings.TrimSpace(string(raw))).
			Msg("openai: provider error response")
		return nil, image.NewStatusError(providerName, resp.StatusCode)
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", providerName, err)
	}

	result := &image.Result{Images: make([]image.Image, 0, len(decoded.Data))}
	for _, item := range decoded.Data {
		switch {
		case item.B64JSON != "":
			result.Images = append(result.Images, image.Image{URL: "data:image/png;base64," + item.B64JSON})
		case item.URL != "":
			result.Images = append(result.Images, image.Image{URL: item.URL})
		}
	}
	c.logger.Debug().
		Str("model", c.model).
		Int("images", len(result.Images)).
		Msg("openai: generation complete")
	return result, nil
}

func (c *Client) buildGenerateRequest(ctx context.Context, baseURL string, req image.Request) (*http.Request, error) {
	payload := generationRequest{
		Model:          c.model,
		Prompt:         req.Prompt,
		ResponseFormat: "b64_json",
		Size:           "1024x1024",
		N:              1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", providerName, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (c *Client) buildEditRequest(ctx context.Context, baseURL string, req image.Request) (*http.Request, error) {
	data, err := DecodeImagePayload(req.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("%s: decode reference image: %w", providerName, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image[]", "image.png")
	if err != nil {
		return nil, fmt.Errorf("%s: build multipart body: %w", providerName, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%s: build multipart body: %w", providerName, err)
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, fmt.Errorf("%s: build multipart body: %w", providerName, err)
	}
	if err := writer.WriteField("prompt", req.Prompt); err != nil {
		return nil, fmt.Errorf("%s: build multipart body: %w", providerName, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%s: build multipart body: %w", providerName, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/images/edits", &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", providerName, err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	return httpReq, nil
}

// DecodeImagePayload strips an optional data URI prefix and decodes the
// remaining base64 payload into raw image bytes.
func DecodeImagePayload(payload string) ([]byte, error) {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "data:") {
		idx := strings.Index(trimmed, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data uri")
		}
		trimmed = trimmed[idx+1:]
	}
	return base64.StdEncoding.DecodeString(trimmed)
}

var _ image.Generator = (*Client)(nil)
