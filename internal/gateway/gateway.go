// Package gateway talks to the hosted language model. It exposes three
// request/response operations (generate, alter a section, translate) that
// format a prompt, call an OpenAI-compatible chat completion endpoint, and
// validate that the JSON reply carries the expected field.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/starford/planinsta/internal/apperr"
)

// Response fields requested from the model.
const (
	fieldBusinessPlan = "businessPlan"
	fieldModified     = "modifiedPlanSection"
	fieldTranslated   = "translatedPlan"
)

// Config configures the gateway. An empty APIKey disables every operation.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// GeneratePlanInput is the generation form as seen by the model.
type GeneratePlanInput struct {
	CompanyName          string
	Industry             string
	MissionStatement     string
	ValueProposition     string
	TargetMarket         string
	CompetitiveLandscape string
	FinancialProjections string
	ManagementTeam       string
	FundingRequest       string
}

// Gateway is stateless apart from its HTTP client.
type Gateway struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *slog.Logger
}

// New builds a Gateway. Without an API key the returned Gateway reports
// apperr.ErrConfiguration on every call.
func New(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Gateway{model: cfg.Model, temperature: cfg.Temperature, logger: logger}
	if cfg.APIKey == "" {
		logger.Warn("gateway: no AI credential configured, AI features are disabled")
		return g
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	g.client = openai.NewClientWithConfig(oc)
	return g
}

// Enabled reports whether a credential is configured.
func (g *Gateway) Enabled() bool { return g.client != nil }

// GeneratePlan drafts a full business plan as Markdown.
func (g *Gateway) GeneratePlan(ctx context.Context, in GeneratePlanInput) (string, error) {
	prompt, err := render(generateTmpl, in)
	if err != nil {
		return "", err
	}
	return g.complete(ctx, "generate", prompt, fieldBusinessPlan,
		"The AI model did not return a valid business plan. Please try again.")
}

// AlterSection rewrites one section's content according to a natural-language command.
func (g *Gateway) AlterSection(ctx context.Context, sectionText, command string) (string, error) {
	prompt, err := render(alterTmpl, struct{ Section, Command string }{sectionText, command})
	if err != nil {
		return "", err
	}
	return g.complete(ctx, "alter", prompt, fieldModified,
		"The AI model did not return a modified section. Please try again.")
}

// Translate translates the whole plan Markdown into the named language.
func (g *Gateway) Translate(ctx context.Context, planMarkdown, languageName string) (string, error) {
	prompt, err := render(translateTmpl, struct{ Plan, Language string }{planMarkdown, languageName})
	if err != nil {
		return "", err
	}
	return g.complete(ctx, "translate", prompt, fieldTranslated,
		"The AI model did not return a valid translation. Please try again.")
}

func (g *Gateway) complete(ctx context.Context, op, prompt, field, invalidMsg string) (string, error) {
	if g.client == nil {
		return "", fmt.Errorf("%w: the AI credential is not set on the server, AI features are disabled", apperr.ErrConfiguration)
	}

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: g.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(field)},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		g.logger.Warn("gateway: completion failed", slog.String("op", op), slog.String("error", err.Error()))
		return "", fmt.Errorf("%w: %s: %v", apperr.ErrUpstream, op, err)
	}
	g.logger.Debug("gateway: completion done",
		slog.String("op", op),
		slog.Int("prompt_tokens", resp.Usage.PromptTokens),
		slog.Int("completion_tokens", resp.Usage.CompletionTokens),
		slog.Duration("took", time.Since(start)))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %s", apperr.ErrValidation, invalidMsg)
	}
	text, ok := extractField(resp.Choices[0].Message.Content, field)
	if !ok {
		return "", fmt.Errorf("%w: %s", apperr.ErrValidation, invalidMsg)
	}
	return text, nil
}

// extractField decodes a JSON object (optionally inside a ```json fence) and
// returns the named string field when it is present and non-blank.
func extractField(content, field string) (string, bool) {
	content = stripFence(strings.TrimSpace(content))
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err != nil {
		return "", false
	}
	v, ok := obj[field].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
