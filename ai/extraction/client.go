package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// Config represents extraction backend configuration. The backend is an
// Ollama-style generate endpoint; it is deliberately decoupled from the
// narrative provider so a small local model can do memory work while a hosted
// model narrates.
type Config struct {
	// BaseURL of the generate server, e.g. http://localhost:11434.
	BaseURL string
	// Model name passed on every request.
	Model string
	// Timeout per request in seconds (default: 30).
	Timeout int
}

// Client calls the extraction model. All failures are absorbed: Extract
// never returns an error, only a failed Result.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	timeout    time.Duration
}

// NewClient creates an extraction client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		timeout: time.Duration(timeout) * time.Second,
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Extract sends one extraction request and parses the decision out of the
// model's reply. A single attempt is made; every failure is logged and
// collapsed into a failed Result so the calling turn keeps going.
func (c *Client) Extract(ctx context.Context, req *Request) Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: BuildPrompt(req),
		Stream: false,
	})
	if err != nil {
		slog.Warn("extraction: failed to encode request", "error", err)
		return failedResult()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		slog.Warn("extraction: failed to build request", "error", err)
		return failedResult()
	}
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Warn("extraction: request failed", "error", err)
		return failedResult()
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		slog.Warn("extraction: backend returned error status", "status", resp.StatusCode)
		return failedResult()
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		slog.Warn("extraction: failed to decode response", "error", err)
		return failedResult()
	}

	result := ParseDecision(generated.Response)
	if !result.Succeeded {
		slog.Warn("extraction: model output had no parseable decision",
			"duration_ms", time.Since(startTime).Milliseconds())
		return result
	}

	slog.Debug("extraction: decision parsed",
		"new_memories", len(result.NewMemoryTexts),
		"recall_ids", len(result.RecallIDs),
		"search_keywords", len(result.SearchKeywords),
		"duration_ms", time.Since(startTime).Milliseconds(),
	)
	return result
}
