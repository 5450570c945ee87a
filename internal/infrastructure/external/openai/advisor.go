package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/trip-approval/internal/application/port"
	"github.com/garyjia/trip-approval/internal/domain/entity"
	"github.com/garyjia/trip-approval/pkg/utils"
)

// Config holds OpenAI advisor settings
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	PromptsPath string
	Timeout     time.Duration
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Advisor implements port.TripAdvisor with an OpenAI chat model in JSON mode
type Advisor struct {
	client  chatCompleter
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewAdvisor creates an OpenAI-backed trip advisor
func NewAdvisor(cfg Config, logger *zap.Logger) (*Advisor, error) {
	prompts := DefaultPrompts()
	if cfg.PromptsPath != "" {
		loaded, err := LoadPrompts(cfg.PromptsPath)
		if err != nil {
			return nil, err
		}
		prompts = loaded
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	return &Advisor{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		prompts: prompts,
		logger:  logger,
	}, nil
}

type tripPromptData struct {
	Destination  string
	Purpose      string
	StartDate    string
	EndDate      string
	Days         int
	CostEstimate string
}

// Review asks the model whether the trip looks reasonable
func (a *Advisor) Review(ctx context.Context, req *entity.TripRequest) (*port.TripAdvice, error) {
	spec := a.prompts.TripReview

	prompt, err := renderTemplate(spec.UserTemplate, tripPromptData{
		Destination:  req.Destination,
		Purpose:      req.Purpose,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Days:         utils.TripDays(req.StartDate, req.EndDate),
		CostEstimate: req.CostEstimate.StringFixed(2),
	})
	if err != nil {
		return nil, err
	}

	a.logger.Debug("Reviewing trip request",
		zap.Int64("request_id", req.ID),
		zap.String("destination", req.Destination))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: spec.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, fmt.Errorf("OpenAI API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := resp.Choices[0].Message.Content
	var advice port.TripAdvice
	if err := json.Unmarshal([]byte(content), &advice); err != nil {
		jsonStr := extractJSON(content)
		if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &advice) != nil {
			a.logger.Error("Failed to parse OpenAI response",
				zap.Error(err),
				zap.String("content", content))
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	if advice.Concerns == nil {
		advice.Concerns = []string{}
	}
	advice.Model = resp.Model
	if advice.Model == "" {
		advice.Model = a.model
	}

	a.logger.Info("Trip review completed",
		zap.Int64("request_id", req.ID),
		zap.Bool("reasonable", advice.Reasonable),
		zap.Int("concerns", len(advice.Concerns)))

	return &advice, nil
}

// extractJSON returns the outermost {...} block of content, or ""
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// Verify interface compliance
var _ port.TripAdvisor = (*Advisor)(nil)
