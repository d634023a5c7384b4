package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/planinsta/internal/apperr"
)

// fakeLLM is an OpenAI-compatible chat completions endpoint that replies
// with a fixed assistant message and records the last request.
type fakeLLM struct {
	mu      sync.Mutex
	status  int
	content string
	last    map[string]any
}

func (f *fakeLLM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	_ = json.Unmarshal(body, &f.last)
	status, content := f.status, f.content
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream exploded","type":"server_error"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30},
	})
}

func (f *fakeLLM) lastUserPrompt(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs, ok := f.last["messages"].([]any)
	require.True(t, ok, "request has messages")
	require.Len(t, msgs, 2)
	return msgs[1].(map[string]any)["content"].(string)
}

func newTestGateway(t *testing.T, f *fakeLLM) *Gateway {
	t.Helper()
	mux := http.NewServeMux()
	mux.Handle("/v1/chat/completions", f)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model", Timeout: 5 * time.Second}, nil)
}

func TestGeneratePlan(t *testing.T) {
	f := &fakeLLM{content: `{"businessPlan":"## Executive Summary\n\nWe sell coffee."}`}
	g := newTestGateway(t, f)

	got, err := g.GeneratePlan(context.Background(), GeneratePlanInput{
		CompanyName:    "Bean Co",
		Industry:       "Food & Beverage",
		FundingRequest: "$150,000",
	})
	require.NoError(t, err)
	assert.Equal(t, "## Executive Summary\n\nWe sell coffee.", got)

	prompt := f.lastUserPrompt(t)
	assert.Contains(t, prompt, "Company Name: Bean Co")
	assert.Contains(t, prompt, "Industry: Food & Beverage")
	assert.Contains(t, prompt, "Funding Request: $150,000")
	assert.Contains(t, prompt, "Do not use asterisks")

	f.mu.Lock()
	format := f.last["response_format"].(map[string]any)
	model := f.last["model"]
	f.mu.Unlock()
	assert.Equal(t, "json_object", format["type"])
	assert.Equal(t, "test-model", model)
}

func TestAlterSection(t *testing.T) {
	f := &fakeLLM{content: `{"modifiedPlanSection":"Shorter text."}`}
	g := newTestGateway(t, f)

	got, err := g.AlterSection(context.Background(), "Long original text.", "make it shorter")
	require.NoError(t, err)
	assert.Equal(t, "Shorter text.", got)

	prompt := f.lastUserPrompt(t)
	assert.Contains(t, prompt, "Plan Section:\nLong original text.")
	assert.Contains(t, prompt, "User Command:\nmake it shorter")
}

func TestTranslate(t *testing.T) {
	f := &fakeLLM{content: "```json\n{\"translatedPlan\":\"## Resumen\\n\\nHola.\"}\n```"}
	g := newTestGateway(t, f)

	got, err := g.Translate(context.Background(), "## Summary\n\nHello.", "Spanish")
	require.NoError(t, err)
	assert.Equal(t, "## Resumen\n\nHola.", got)
	assert.Contains(t, f.lastUserPrompt(t), "into Spanish")
}

func TestMissingField_IsValidationError(t *testing.T) {
	cases := map[string]string{
		"wrong field":  `{"plan":"text"}`,
		"blank":        `{"businessPlan":"   "}`,
		"not a string": `{"businessPlan":42}`,
		"not json":     `Sure! Here is your plan.`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			g := newTestGateway(t, &fakeLLM{content: content})
			_, err := g.GeneratePlan(context.Background(), GeneratePlanInput{CompanyName: "X"})
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.True(t, strings.Contains(err.Error(), "did not return a valid business plan"))
		})
	}
}

func TestUpstreamFailure(t *testing.T) {
	g := newTestGateway(t, &fakeLLM{status: http.StatusInternalServerError})
	_, err := g.AlterSection(context.Background(), "text", "cmd")
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestMissingCredential_AllOperations(t *testing.T) {
	g := New(Config{}, nil)
	assert.False(t, g.Enabled())
	ctx := context.Background()

	_, err := g.GeneratePlan(ctx, GeneratePlanInput{})
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
	_, err = g.AlterSection(ctx, "a", "b")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
	_, err = g.Translate(ctx, "a", "French")
	assert.ErrorIs(t, err, apperr.ErrConfiguration)
}

func TestCancelledContext(t *testing.T) {
	g := newTestGateway(t, &fakeLLM{content: `{"translatedPlan":"x"}`})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Translate(ctx, "a", "French")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFence(`{"a":1}`))
}
