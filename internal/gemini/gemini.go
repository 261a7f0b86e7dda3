// Package gemini is a minimal client for the Gemini generateContent API.
//
// [Client.GenerateText] sends one SDLC phase prompt and returns the text of
// the first candidate. [Client.Generate] adapts the client to
// orchestrator.Generator, turning every failure into a user-visible message.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"sdlcwizard/internal/orchestrator"
)

const (
	// DefaultBaseURL is the public Gemini REST endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is the model used when none is configured.
	DefaultModel = "gemini-2.5-flash-preview-05-20"

	// CodeGenerationLabel is the phase whose output is raw HTML.
	CodeGenerationLabel = "Code Generation"

	// DefaultRetryDelay is the pause before the single retry of a retryable
	// API error.
	DefaultRetryDelay = 2 * time.Second

	contentTypeHeader = "Content-Type"
	applicationJSON   = "application/json"
)

// Client calls the Gemini API. Create with [New].
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
	retryDelay time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, e.g. for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithModel sets the model name.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// WithRetryDelay sets the pause before retrying a rate-limited or
// unavailable response.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.DiscardHandler),
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

// SystemPrompt returns the instructions sent ahead of every phase prompt.
func SystemPrompt(stepLabel string) string {
	return fmt.Sprintf("You are an expert assistant specialized in the Software Development Life Cycle. "+
		"Your task is to provide a detailed, professional, and well-structured output for the '%s' phase. "+
		"The response should be in Markdown format, unless the step is '%s', in which case you should "+
		"provide only the raw HTML code without any markdown code blocks, backticks, or formatting markers.",
		stepLabel, CodeGenerationLabel)
}

// GenerateText generates the output of one SDLC phase.
func (c *Client) GenerateText(ctx context.Context, prompt, stepLabel, credential string) (string, error) {
	full := fmt.Sprintf("%s\n\nProject Context:\n%s\n\nRequest:\n%s", SystemPrompt(stepLabel), prompt, prompt)

	text, err := c.Complete(ctx, full, credential)
	if err != nil {
		return "", err
	}
	if stepLabel == CodeGenerationLabel {
		text = StripCodeFences(text)
		if strings.TrimSpace(text) == "" {
			return "", ErrEmptyResponse
		}
	}
	return text, nil
}

// Complete sends text as a single-turn request and returns the reply.
func (c *Client) Complete(ctx context.Context, text, credential string) (string, error) {
	if credential == "" {
		return "", ErrNoCredential
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: text}}}}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(credential))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set(contentTypeHeader, applicationJSON)

	c.logger.Debug("gemini request", "model", c.model, "prompt_chars", len(text))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the request URL, key included
		return "", fmt.Errorf("failed to send request: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("gemini response", "status", resp.StatusCode, "bytes", len(respBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", parseAPIError(resp.StatusCode, respBody)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	reply := parsed.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(reply) == "" {
		return "", ErrEmptyResponse
	}
	return reply, nil
}

// Generate implements orchestrator.Generator. A retryable API error is
// retried once.
func (c *Client) Generate(ctx context.Context, req orchestrator.Request) orchestrator.Result {
	text, err := c.GenerateText(ctx, req.Prompt, req.StepLabel, req.Credential)

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsRetryable() {
		c.logger.Info("retrying generation", "step", req.StepLabel, "code", apiErr.Code, "delay", c.retryDelay)
		select {
		case <-ctx.Done():
		case <-time.After(c.retryDelay):
			text, err = c.GenerateText(ctx, req.Prompt, req.StepLabel, req.Credential)
		}
	}
	if err != nil {
		c.logger.Warn("generation failed", "step", req.StepLabel, "error", err)
		return orchestrator.Failure(FailureMessage(err))
	}
	return orchestrator.Success(text)
}

// FailureMessage is the content shown in place of a failed generation.
func FailureMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsAuthError() {
		return "Error: The API key was rejected. Check your API key in Getting Started. Details: " + err.Error()
	}
	return "Error: Could not generate content. Please check your API key and network connection. Details: " + err.Error()
}

func parseAPIError(status int, body []byte) error {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		if parsed.Error.Code == 0 {
			parsed.Error.Code = status
		}
		if parsed.Error.Message == "" {
			parsed.Error.Message = "Unknown error"
		}
		return parsed.Error
	}
	return &APIError{Code: status, Message: "Unknown error"}
}

var (
	htmlFenceOpen = regexp.MustCompile("(?i)^```html\\s*")
	fenceOpen     = regexp.MustCompile("^```\\s*")
	fenceClose    = regexp.MustCompile("\\s*```$")
)

// StripCodeFences removes a surrounding markdown code fence, with or without
// an html language tag.
func StripCodeFences(s string) string {
	s = htmlFenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	return s
}

var keyParam = regexp.MustCompile(`key=[^&\s"]+`)

// RedactKey masks the value of any key= query parameter in s.
func RedactKey(s string) string {
	return keyParam.ReplaceAllString(s, "key=REDACTED")
}

func redactURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return &url.Error{Op: ue.Op, URL: RedactKey(ue.URL), Err: ue.Err}
	}
	return err
}

func containsAPIKey(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "api key")
}
