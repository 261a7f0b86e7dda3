package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdlcwizard/internal/orchestrator"
)

// capturedRequest is what the fake API saw.
type capturedRequest struct {
	Path  string
	Key   string
	Body  generateRequest
	Calls atomic.Int32
}

func newFakeAPI(t *testing.T, status int, response string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Calls.Add(1)
		got.Path = r.URL.Path
		got.Key = r.URL.Query().Get("key")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.Body))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, got
}

func okResponse(text string) string {
	data, _ := json.Marshal(generateResponse{Candidates: []candidate{{Content: content{Parts: []part{{Text: text}}}}}})
	return string(data)
}

func TestGenerateText_Success(t *testing.T) {
	srv, got := newFakeAPI(t, http.StatusOK, okResponse("# Roadmap"))
	c := New(WithBaseURL(srv.URL), WithModel("test-model"))

	text, err := c.GenerateText(context.Background(), "Plan a todo app", "Road Map", "k1")

	require.NoError(t, err)
	assert.Equal(t, "# Roadmap", text)
	assert.Equal(t, "/models/test-model:generateContent", got.Path)
	assert.Equal(t, "k1", got.Key)

	require.Len(t, got.Body.Contents, 1)
	require.Len(t, got.Body.Contents[0].Parts, 1)
	sent := got.Body.Contents[0].Parts[0].Text
	assert.Contains(t, sent, "for the 'Road Map' phase")
	assert.Contains(t, sent, "Project Context:\nPlan a todo app")
	assert.Contains(t, sent, "Request:\nPlan a todo app")
}

func TestGenerateText_StripsFencesForCodeGeneration(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusOK, okResponse("```html\n<html></html>\n```"))
	c := New(WithBaseURL(srv.URL))

	text, err := c.GenerateText(context.Background(), "p", CodeGenerationLabel, "k1")

	require.NoError(t, err)
	assert.Equal(t, "<html></html>", text)
}

func TestGenerateText_KeepsFencesForOtherSteps(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusOK, okResponse("```go\nx\n```"))
	c := New(WithBaseURL(srv.URL))

	text, err := c.GenerateText(context.Background(), "p", "Design Docs", "k1")

	require.NoError(t, err)
	assert.Equal(t, "```go\nx\n```", text)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "<html></html>", want: "<html></html>"},
		{in: "```html\n<p>x</p>\n```", want: "<p>x</p>"},
		{in: "```HTML <p>x</p>```", want: "<p>x</p>"},
		{in: "```\n<p>x</p>\n```", want: "<p>x</p>"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFences(tt.in), tt.in)
	}
}

func TestComplete_APIError(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	c := New(WithBaseURL(srv.URL))

	_, err := c.Complete(context.Background(), "hi", "bad")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, "INVALID_ARGUMENT", apiErr.Status)
	assert.True(t, apiErr.IsAuthError())
	assert.False(t, apiErr.IsRetryable())
	assert.Equal(t, "API Error: 400 - API key not valid. Please pass a valid API key.", err.Error())
}

func TestComplete_APIErrorWithoutBody(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusServiceUnavailable, "oops")
	c := New(WithBaseURL(srv.URL))

	_, err := c.Complete(context.Background(), "hi", "k1")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 503, apiErr.Code)
	assert.Equal(t, "Unknown error", apiErr.Message)
	assert.True(t, apiErr.IsRetryable())
}

func TestComplete_EmptyCandidates(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusOK, `{"candidates":[]}`)
	c := New(WithBaseURL(srv.URL))

	_, err := c.Complete(context.Background(), "hi", "k1")

	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestComplete_MalformedResponse(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusOK, `not json`)
	c := New(WithBaseURL(srv.URL))

	_, err := c.Complete(context.Background(), "hi", "k1")

	assert.ErrorContains(t, err, "failed to unmarshal response")
}

func TestComplete_NoCredential(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:1"))

	_, err := c.Complete(context.Background(), "hi", "")

	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestComplete_TransportErrorRedactsKey(t *testing.T) {
	c := New(WithBaseURL("http://127.0.0.1:1"), WithHTTPClient(&http.Client{Timeout: time.Second}))

	_, err := c.Complete(context.Background(), "hi", "secret-key")

	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
	assert.Contains(t, err.Error(), "key=REDACTED")
}

func TestComplete_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	c := New(WithBaseURL(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Complete(ctx, "hi", "k1")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerate_AdaptsResult(t *testing.T) {
	srv, _ := newFakeAPI(t, http.StatusOK, okResponse("stories"))
	c := New(WithBaseURL(srv.URL))

	res := c.Generate(context.Background(), orchestrator.Request{Prompt: "p", StepLabel: "User Stories", Credential: "k1"})

	assert.Equal(t, orchestrator.Success("stories"), res)
}

func TestGenerate_RetriesOnceThenFails(t *testing.T) {
	srv, got := newFakeAPI(t, http.StatusTooManyRequests, `{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`)
	c := New(WithBaseURL(srv.URL), WithRetryDelay(0))

	res := c.Generate(context.Background(), orchestrator.Request{Prompt: "p", StepLabel: "User Stories", Credential: "k1"})

	assert.False(t, res.OK)
	assert.Equal(t, int32(2), got.Calls.Load())
	assert.Equal(t,
		"Error: Could not generate content. Please check your API key and network connection. Details: API Error: 429 - Quota exceeded",
		res.ErrorMessage)
}

func TestGenerate_RetrySucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okResponse("stories")))
	}))
	t.Cleanup(srv.Close)
	c := New(WithBaseURL(srv.URL), WithRetryDelay(0))

	res := c.Generate(context.Background(), orchestrator.Request{Prompt: "p", StepLabel: "User Stories", Credential: "k1"})

	assert.Equal(t, orchestrator.Success("stories"), res)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerate_AuthErrorIsNotRetried(t *testing.T) {
	srv, got := newFakeAPI(t, http.StatusBadRequest,
		`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	c := New(WithBaseURL(srv.URL), WithRetryDelay(0))

	res := c.Generate(context.Background(), orchestrator.Request{Prompt: "p", StepLabel: "User Stories", Credential: "bad"})

	assert.False(t, res.OK)
	assert.Equal(t, int32(1), got.Calls.Load())
	assert.Equal(t,
		"Error: The API key was rejected. Check your API key in Getting Started. Details: API Error: 400 - API key not valid. Please pass a valid API key.",
		res.ErrorMessage)
}

func TestEmptyReplies(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		label string
	}{
		{name: "empty text", text: "", label: "Road Map"},
		{name: "whitespace only", text: "  \n\t", label: "Road Map"},
		{name: "bare fence for code generation", text: "```html\n```", label: CodeGenerationLabel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newFakeAPI(t, http.StatusOK, okResponse(tt.text))
			c := New(WithBaseURL(srv.URL))

			_, err := c.GenerateText(context.Background(), "p", tt.label, "k1")
			assert.ErrorIs(t, err, ErrEmptyResponse)

			res := c.Generate(context.Background(), orchestrator.Request{Prompt: "p", StepLabel: tt.label, Credential: "k1"})
			assert.False(t, res.OK)
			assert.Contains(t, res.ErrorMessage, ErrEmptyResponse.Error())
		})
	}
}

func TestRedactKey(t *testing.T) {
	assert.Equal(t, "https://x/models/m:generateContent?key=REDACTED", RedactKey("https://x/models/m:generateContent?key=abc123"))
	assert.Equal(t, "no key here", RedactKey("no key here"))
}
