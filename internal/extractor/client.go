// Package extractor calls the external vision model and coerces its
// answer into a typed extraction payload.
package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/kyc-verify/internal/fault"
	"github.com/example/kyc-verify/internal/logging"
	"github.com/example/kyc-verify/internal/schema"
)

// retryableStatuses are the transport-level responses worth another
// attempt. Any other non-200 status fails the attempt immediately.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryPolicy controls the transport retry loop nested inside each
// model attempt.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// Backoff returns the exponential delay after a failed attempt.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return p.BackoffBase * (1 << attempt)
}

// Options configures a Client.
type Options struct {
	APIKey        string
	BaseURL       string
	Model         string
	FallbackModel string
	Timeout       time.Duration
	Policy        RetryPolicy
}

// Client obtains structured field extractions from a chat-completions
// style vision model endpoint.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	model         string
	fallbackModel string
	policy        RetryPolicy
	logger        *zap.Logger

	// sleep is replaceable so backoff can be tested with a fake clock.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client. The fallback model defaults to the primary
// when unset.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if opts.FallbackModel == "" {
		opts.FallbackModel = opts.Model
	}
	if opts.Policy.MaxAttempts <= 0 {
		opts.Policy.MaxAttempts = 3
	}
	if opts.Policy.BackoffBase <= 0 {
		opts.Policy.BackoffBase = 800 * time.Millisecond
	}
	return &Client{
		httpClient:    &http.Client{Timeout: opts.Timeout},
		baseURL:       opts.BaseURL,
		apiKey:        opts.APIKey,
		model:         opts.Model,
		fallbackModel: opts.FallbackModel,
		policy:        opts.Policy,
		logger:        logging.Component(logger, "extractor"),
		sleep:         sleepContext,
	}
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    float64        `json:"temperature"`
	MaxTokens      int            `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Parsed  json.RawMessage `json:"parsed"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract runs the primary model, retries it once when the answer is
// unparsable, then escalates to the fallback model. Transport retries
// happen inside each attempt via the retry policy.
func (c *Client) Extract(ctx context.Context, imageBytes []byte, mimeType string) (*schema.ExtractionPayload, error) {
	dataURL := toDataURL(imageBytes, mimeType)
	primaryBody, err := buildBody(c.model, dataURL)
	if err != nil {
		return nil, err
	}

	resp, callErr := c.postWithRetry(ctx, primaryBody)
	if callErr == nil {
		payload, parseErr := c.parsePayload(resp)
		if parseErr == nil {
			return payload, nil
		}
		// One more shot at the same model with the identical body
		// before giving up on it.
		if resp, callErr = c.postWithRetry(ctx, primaryBody); callErr == nil {
			if payload, parseErr = c.parsePayload(resp); parseErr == nil {
				return payload, nil
			}
		}
	}

	c.logger.Warn("primary model exhausted, trying fallback",
		zap.String("model", c.model), zap.String("fallback", c.fallbackModel))

	fallbackBody, err := buildBody(c.fallbackModel, dataURL)
	if err != nil {
		return nil, err
	}
	resp, err = c.postWithRetry(ctx, fallbackBody)
	if err != nil {
		return nil, err
	}
	return c.parsePayload(resp)
}

// buildBody marshals the request once per model attempt so transport
// retries reuse the same bytes verbatim.
func buildBody(model, dataURL string) ([]byte, error) {
	body := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: payloadSchema},
				{Type: "text", Text: userPrompt},
				{Type: "image_url", ImageURL: &imageURLPart{URL: dataURL}},
			}},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
		Temperature:    0,
		MaxTokens:      2000,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return encoded, nil
}

func (c *Client) postWithRetry(ctx context.Context, body []byte) (*completionResponse, error) {
	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.policy.Backoff(attempt-1)); err != nil {
				return nil, fault.Wrap(fault.ModelCall, err, "model call canceled during backoff")
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fault.Wrap(fault.ModelCall, err, "failed to create request")
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.logger.Warn("model call failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var completion completionResponse
			err = json.NewDecoder(resp.Body).Decode(&completion)
			resp.Body.Close()
			if err != nil {
				return nil, fault.Wrap(fault.ModelCall, err, "invalid response body")
			}
			return &completion, nil
		}

		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, detail)
		if !retryableStatuses[resp.StatusCode] {
			return nil, fault.Wrap(fault.ModelCall, statusErr, "model endpoint rejected request")
		}
		lastErr = statusErr
		c.logger.Warn("transient model error", zap.Int("attempt", attempt+1), zap.Int("status", resp.StatusCode))
	}
	return nil, fault.Wrap(fault.ModelCall, lastErr, "model call failed after retries")
}

// parsePayload pulls the structured answer out of a chat completion,
// coercing free-text content when the service did not pre-parse it.
func (c *Client) parsePayload(resp *completionResponse) (*schema.ExtractionPayload, error) {
	if len(resp.Choices) == 0 {
		return nil, fault.New(fault.Schema, "no choices in model response")
	}
	message := resp.Choices[0].Message

	raw := objectOf(message.Parsed)
	if raw == nil {
		text := contentToString(message.Content)
		c.logger.Debug("coercing model content", zap.String("prefix", prefix(text, 500)))
		coerced, err := coerceJSON(text)
		if err != nil {
			c.logger.Error("failed to parse structured output", zap.Error(err))
			return nil, fault.Wrap(fault.Schema, err, "failed to parse structured output")
		}
		raw = coerced
	}

	payload, err := schema.DecodePayload(raw)
	if err != nil {
		c.logger.Error("payload failed schema validation", zap.Error(err))
		return nil, fault.Wrap(fault.Schema, err, "payload failed schema validation")
	}
	return payload, nil
}

// objectOf returns raw when it holds a JSON object, else nil.
func objectOf(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		return trimmed
	}
	return nil
}

func toDataURL(imageBytes []byte, mimeType string) string {
	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
