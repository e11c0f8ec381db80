package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/benvon/askdev/internal/tags"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second
	// DefaultMaxTagsInPrompt bounds the existing tags offered to the model.
	DefaultMaxTagsInPrompt = 50

	// TagScoreFrequencyWeight is the weight given to tag frequency when ranking prompt tags
	TagScoreFrequencyWeight = 0.7
	// TagScoreSimilarityWeight is the weight given to word overlap with the question
	TagScoreSimilarityWeight = 0.3
	// TagScoreSimilarityMultiplier scales similarity to be comparable with counts
	TagScoreSimilarityMultiplier = 100

	systemPrompt = "You tag programming questions for a developer Q&A site. " +
		"Respond with valid JSON only, in the form {\"tags\": [\"tag\", ...]}."
)

// TagSuggester proposes tags for a question.
type TagSuggester interface {
	SuggestTags(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error)
}

// Config holds OpenAI settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	Debug      bool
}

// OpenAISuggester implements TagSuggester with the chat completions API.
type OpenAISuggester struct {
	client          openai.Client
	model           string
	maxTagsInPrompt int
	logger          *zap.Logger
	debugMode       bool
}

// NewOpenAISuggester creates a suggester. It returns ErrNotConfigured when cfg has no API key.
func NewOpenAISuggester(cfg Config, logger *zap.Logger) (*OpenAISuggester, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: DefaultTimeout}),
		option.WithMaxRetries(cfg.MaxRetries),
	)
	logger.Info("ai_tag_suggester_configured",
		zap.String("model", cfg.Model),
		zap.String("api_key", SanitizeAPIKey(cfg.APIKey)),
	)
	return &OpenAISuggester{
		client:          client,
		model:           cfg.Model,
		maxTagsInPrompt: DefaultMaxTagsInPrompt,
		logger:          logger,
		debugMode:       cfg.Debug,
	}, nil
}

// SuggestTags asks the model for up to tags.MaxTagsPerQuestion normalized tags.
// known is the current tag analytics, used to steer the model toward existing tags.
func (s *OpenAISuggester) SuggestTags(ctx context.Context, title, content string, known []tags.TagAnalytics) ([]string, error) {
	prompt := s.buildPrompt(title, content, known)
	req := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if s.debugMode {
		s.logger.Debug("llm_api_request",
			zap.String("operation", "suggest_tags"),
			zap.String("model", s.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
		)
	}
	start := time.Now()
	resp, err := s.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		s.logger.Warn("llm_api_error",
			zap.String("operation", "suggest_tags"),
			zap.String("model", s.model),
			zap.Duration("latency", latency),
			zap.String("error", SanitizeResponse(err.Error(), false)),
		)
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to suggest tags: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to suggest tags: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	raw := resp.Choices[0].Message.Content
	if s.debugMode {
		s.logger.Debug("llm_api_response",
			zap.String("operation", "suggest_tags"),
			zap.Int("response_length", len(raw)),
			zap.String("response_preview", SanitizeResponse(raw, true)),
			zap.Duration("latency", latency),
		)
	}
	return parseSuggestionResponse(raw)
}

// parseSuggestionResponse reads {"tags": [...]} and normalizes the result. Text
// around the JSON object is ignored.
func parseSuggestionResponse(content string) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	raw := content
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end <= start {
			return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
			return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
		}
	}
	result := tags.NormalizeAll(out.Tags)
	if len(result) > tags.MaxTagsPerQuestion {
		result = result[:tags.MaxTagsPerQuestion]
	}
	return result, nil
}

func (s *OpenAISuggester) buildPrompt(title, content string, known []tags.TagAnalytics) string {
	var b strings.Builder
	b.WriteString("Suggest between 1 and ")
	fmt.Fprintf(&b, "%d", tags.MaxTagsPerQuestion)
	b.WriteString(" short lowercase tags for this question.\n\n")
	b.WriteString("Title: ")
	b.WriteString(title)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(content)
	b.WriteString("\n")

	if existing := s.selectTagsForPrompt(known, title+" "+content); len(existing) > 0 {
		b.WriteString("\nPrefer these existing tags when they fit: ")
		b.WriteString(strings.Join(existing, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

// selectTagsForPrompt ranks known tags by usage and word overlap with text.
func (s *OpenAISuggester) selectTagsForPrompt(known []tags.TagAnalytics, text string) []string {
	if len(known) == 0 {
		return nil
	}
	type tagScore struct {
		tag   string
		score float64
	}
	scored := make([]tagScore, 0, len(known))
	for _, a := range known {
		similarity := calculateStringSimilarity(strings.ReplaceAll(a.Tag, "-", " "), text)
		scored = append(scored, tagScore{
			tag:   a.Tag,
			score: float64(a.Count)*TagScoreFrequencyWeight + similarity*TagScoreSimilarityMultiplier*TagScoreSimilarityWeight,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	limit := s.maxTagsInPrompt
	if limit <= 0 || limit > len(scored) {
		limit = len(scored)
	}
	out := make([]string, 0, limit)
	for _, ts := range scored[:limit] {
		out = append(out, ts.tag)
	}
	return out
}

// calculateStringSimilarity is the Jaccard index of the lowercased word sets.
func calculateStringSimilarity(s1, s2 string) float64 {
	words1 := strings.Fields(strings.ToLower(s1))
	words2 := strings.Fields(strings.ToLower(s2))
	if len(words1) == 0 || len(words2) == 0 {
		return 0
	}
	set2 := make(map[string]bool, len(words2))
	for _, w := range words2 {
		set2[w] = true
	}
	set1 := make(map[string]bool, len(words1))
	common := 0
	for _, w := range words1 {
		if set1[w] {
			continue
		}
		set1[w] = true
		if set2[w] {
			common++
		}
	}
	union := len(set1) + len(set2) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
