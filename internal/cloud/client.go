// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/settlesmart/internal/prompt"
	"github.com/jeranaias/settlesmart/internal/util"
)

// Configuration constants for the completion service.
const (
	// DefaultBaseURL is the base URL of the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultTemperature keeps plans stable across calls.
	DefaultTemperature = 0.2

	// DefaultTimeout is the default timeout for one completion call.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	// maxLoggedBody bounds how much of an upstream error body is kept.
	maxLoggedBody = 4 * 1024
)

// Endpoint selects the wire style of the completion service.
type Endpoint string

const (
	// EndpointChat posts system and user messages to /chat/completions.
	EndpointChat Endpoint = "chat"

	// EndpointResponses posts a single combined input to /responses.
	EndpointResponses Endpoint = "responses"
)

// ParseEndpoint parses a configured endpoint style. Empty selects chat.
func ParseEndpoint(s string) (Endpoint, error) {
	switch Endpoint(strings.ToLower(strings.TrimSpace(s))) {
	case "", EndpointChat:
		return EndpointChat, nil
	case EndpointResponses:
		return EndpointResponses, nil
	}
	return "", fmt.Errorf("unknown endpoint style %q (want %s or %s)", s, EndpointChat, EndpointResponses)
}

// path returns the URL path for the endpoint style.
func (e Endpoint) path() string {
	if e == EndpointResponses {
		return "/responses"
	}
	return "/chat/completions"
}

// Options configures a Client. Zero values select the defaults above.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Endpoint    Endpoint
	Temperature *float64
	Timeout     time.Duration

	// HTTPClient overrides the transport. Tests use this for fake servers.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client sends one completion request per call to the text-generation
// service. It is safe for concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	endpoint    Endpoint
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a completion client. An empty API key is allowed; every
// Complete call then fails with ErrMissingCredentials.
func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		model:       opts.Model,
		endpoint:    opts.Endpoint,
		temperature: DefaultTemperature,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.endpoint != EndpointResponses {
		c.endpoint = EndpointChat
	}
	if opts.Temperature != nil {
		c.temperature = clampTemperature(*opts.Temperature)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.httpClient = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		}
	}
	return c
}

// Temperature returns a pointer to t, for Options literals.
func Temperature(t float64) *float64 {
	return &t
}

func clampTemperature(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// IsConfigured returns true if the client has an API key configured.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Endpoint returns the configured endpoint style.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key, safe to
// log. It never exposes key fragments.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// =============================================================================
// COMPLETE
// =============================================================================

// Complete sends req to the service exactly once and returns the raw text of
// the first non-empty output found in the response envelope, or "{}" when
// there is none. The returned text is not validated.
func (c *Client) Complete(ctx context.Context, req prompt.Request) (string, error) {
	if !c.IsConfigured() {
		return "", ErrMissingCredentials
	}

	body, err := json.Marshal(c.wireRequest(req))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + c.endpoint.path()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &TransportError{Op: "build request", Err: err}
	}
	c.setHeaders(httpReq)

	c.logger.Debug("completion request",
		zap.String("endpoint", string(c.endpoint)),
		zap.String("model", c.model),
		zap.String("strategy", string(req.Strategy)),
		zap.String("key_fingerprint", c.KeyFingerprint()))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)

	// SECURITY: drop the credential so it cannot leak through request dumps
	httpReq.Header.Del("Authorization")

	if err != nil {
		return "", &TransportError{Op: "send", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := readResponse(resp)
	if err != nil {
		return "", &TransportError{Op: "read response", Err: err}
	}

	c.logger.Debug("completion response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ue := &UpstreamError{
			Status: resp.StatusCode,
			Body:   util.TruncateBytes(string(respBody), maxLoggedBody),
		}
		c.logger.Error("completion service error",
			zap.Int("status", ue.Status),
			zap.String("body", ue.Body))
		return "", ue
	}

	return ExtractText(respBody), nil
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "settlesmart/1.0")
}
