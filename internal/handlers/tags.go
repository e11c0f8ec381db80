package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	logpkg "github.com/benvon/askdev/internal/logger"
	"github.com/benvon/askdev/internal/request"
	"github.com/benvon/askdev/internal/services/ai"
	"github.com/benvon/askdev/internal/tags"
	"github.com/benvon/askdev/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxTrendDays bounds ?days= on the trending endpoint.
const MaxTrendDays = 365

// aiSuggestTimeout bounds one AI suggestion call.
const aiSuggestTimeout = 20 * time.Second

// TrendReader is the read side of the trend service. *trends.Service implements it.
type TrendReader interface {
	Trending(ctx context.Context, days int) (tags.Trend, error)
	Hot(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) (tags.Categories, error)
	Suggest(ctx context.Context, title, content string) (tags.Suggestions, error)
}

// TagHandler serves tag analytics. Store failures are logged and answered
// with empty results so tag widgets keep rendering.
type TagHandler struct {
	trends    TrendReader
	suggester ai.TagSuggester
	logger    *zap.Logger
}

// NewTagHandler creates a new tag handler. suggester may be nil when AI
// suggestions are not configured.
func NewTagHandler(trends TrendReader, suggester ai.TagSuggester, logger *zap.Logger) *TagHandler {
	return &TagHandler{trends: trends, suggester: suggester, logger: logger}
}

// RegisterRoutes registers tag routes on the API router. aiLimit, when set,
// wraps the AI suggestion route inside the auth guard.
func (h *TagHandler) RegisterRoutes(r *mux.Router, g Guards, aiLimit func(http.Handler) http.Handler) {
	r.Handle("/tags/trending", g.optional(h.Trending)).Methods("GET")
	r.Handle("/tags/hot", g.optional(h.Hot)).Methods("GET")
	r.Handle("/tags/categories", g.optional(h.Categories)).Methods("GET")
	r.Handle("/tags/suggestions", g.optional(h.Suggestions)).Methods("POST")

	var aiHandler http.Handler = http.HandlerFunc(h.AISuggestions)
	if aiLimit != nil {
		aiHandler = aiLimit(aiHandler)
	}
	if g.Required != nil {
		aiHandler = g.Required(aiHandler)
	}
	r.Handle("/tags/suggestions/ai", aiHandler).Methods("POST")
}

// SuggestTagsRequest carries the draft question to suggest tags for
type SuggestTagsRequest struct {
	Title   string `json:"title" validate:"max=300"`
	Content string `json:"content" validate:"max=30000"`
}

// AISuggestionsResponse is the answer of the AI suggestion endpoint
type AISuggestionsResponse struct {
	Tags         []string `json:"tags"`
	ContentBased []string `json:"content_based"`
}

// Trending returns the trending tags, ?days= overrides the trend window
func (h *TagHandler) Trending(w http.ResponseWriter, r *http.Request) {
	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxTrendDays {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "days must be an integer between 1 and 365")
			return
		}
		days = n
	}

	trend, err := h.trends.Trending(r.Context(), days)
	if err != nil {
		h.degraded(r, "trending", err)
	}
	respondJSON(w, http.StatusOK, trend)
}

// Hot returns the tags with strong recent growth
func (h *TagHandler) Hot(w http.ResponseWriter, r *http.Request) {
	hot, err := h.trends.Hot(r.Context())
	if err != nil {
		h.degraded(r, "hot", err)
	}
	if hot == nil {
		hot = []string{}
	}
	respondJSON(w, http.StatusOK, hot)
}

// Categories returns every known tag grouped by category
func (h *TagHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.trends.Categories(r.Context())
	if err != nil {
		h.degraded(r, "categories", err)
	}
	respondJSON(w, http.StatusOK, cats)
}

// Suggestions combines content keywords with trending and hot tags
func (h *TagHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var req SuggestTagsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	s, err := h.trends.Suggest(r.Context(), req.Title, req.Content)
	if err != nil {
		h.degraded(r, "suggestions", err)
	}
	respondJSON(w, http.StatusOK, s)
}

// AISuggestions asks the configured language model for tags
func (h *TagHandler) AISuggestions(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI tag suggestions are not configured")
		return
	}

	var req SuggestTagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Title = validation.SanitizeText(req.Title)
	req.Content = validation.SanitizeText(req.Content)
	if !validateStruct(w, &req) {
		return
	}
	if req.Title == "" && req.Content == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "title or content is required")
		return
	}

	ctx := r.Context()
	trend, err := h.trends.Trending(ctx, 0)
	if err != nil {
		h.degraded(r, "ai_known_tags", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, aiSuggestTimeout)
	defer cancel()
	suggested, err := h.suggester.SuggestTags(callCtx, req.Title, req.Content, trend.Analytics)
	if err != nil {
		h.logger.Warn("ai_tag_suggestion_failed",
			zap.String("error", logpkg.SanitizeError(err)),
			zap.String("request_id", request.RequestID(ctx)),
		)
		switch {
		case ai.IsQuotaError(err):
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI tag suggestions are temporarily unavailable")
		case ai.IsRateLimitError(err):
			w.Header().Set("Retry-After", "60")
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "AI provider is rate limiting, try again later")
		default:
			respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "AI tag suggestions failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, AISuggestionsResponse{
		Tags:         suggested,
		ContentBased: tags.ExtractFromContent(req.Title, req.Content),
	})
}

func (h *TagHandler) degraded(r *http.Request, what string, err error) {
	h.logger.Warn("tag_analytics_degraded",
		zap.String("endpoint", what),
		zap.String("error", logpkg.SanitizeError(err)),
		zap.String("request_id", request.RequestID(r.Context())),
	)
}
