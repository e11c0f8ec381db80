package tags

import "time"

// MaxSuggestions caps the combined suggestion list.
const MaxSuggestions = 25

// Suggestions is the full answer to "what tags fit this question".
type Suggestions struct {
	ContentBased []string       `json:"content_based"`
	Trending     []string       `json:"trending"`
	Hot          []string       `json:"hot"`
	Analytics    []TagAnalytics `json:"analytics"`
	All          []string       `json:"all"`
}

// Snapshot is a precomputed view of the tag landscape at one instant.
type Snapshot struct {
	Trending        Trend      `json:"trending"`
	Hot             []string   `json:"hot"`
	Categories      Categories `json:"categories"`
	TrendWindowDays int        `json:"trend_window_days"`
	HotWindowDays   int        `json:"hot_window_days"`
	GeneratedAt     time.Time  `json:"generated_at"`
}

// Engine bundles the classifier, category rules and window settings.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	classifier      *Classifier
	categories      []CategoryRule
	trendWindowDays int
	hotWindowDays   int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier replaces the default topic classifier.
func WithClassifier(c *Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classifier = c
		}
	}
}

// WithCategories replaces the default category rules.
func WithCategories(rules []CategoryRule) Option {
	return func(e *Engine) {
		e.categories = rules
	}
}

// WithTrendWindow sets the trending window in days. Non-positive values are ignored.
func WithTrendWindow(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.trendWindowDays = days
		}
	}
}

// WithHotWindow sets the hot window in days. Non-positive values are ignored.
func WithHotWindow(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.hotWindowDays = days
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		classifier:      defaultClassifier,
		categories:      DefaultCategories,
		trendWindowDays: DefaultTrendWindowDays,
		hotWindowDays:   DefaultHotWindowDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) TrendWindowDays() int { return e.trendWindowDays }
func (e *Engine) HotWindowDays() int   { return e.hotWindowDays }

// LookbackDays is the widest window any computation needs; callers loading
// items from storage can restrict to this.
func (e *Engine) LookbackDays() int {
	if e.hotWindowDays > e.trendWindowDays {
		return e.hotWindowDays
	}
	return e.trendWindowDays
}

func (e *Engine) Classify(title, body string) []string {
	return e.classifier.Classify(title, body)
}

// Trending aggregates over the engine's trend window.
func (e *Engine) Trending(items []TaggedItem, now time.Time) Trend {
	return Aggregate(items, e.trendWindowDays, now)
}

// Hot aggregates over the hot window and keeps the fast growers.
func (e *Engine) Hot(items []TaggedItem, now time.Time) []string {
	return Hot(Aggregate(items, e.hotWindowDays, now).Analytics)
}

func (e *Engine) Categorize(tagSet []string) Categories {
	return Categorize(tagSet, e.categories)
}

// Suggest classifies the text and merges the result with trend data from items.
func (e *Engine) Suggest(title, body string, items []TaggedItem, now time.Time) Suggestions {
	return Compose(e.Classify(title, body), e.Trending(items, now), e.Hot(items, now))
}

// Snapshot computes trending, hot and categories at once. Categories are
// built from vocabulary, or from the tags in items when vocabulary is nil.
func (e *Engine) Snapshot(items []TaggedItem, vocabulary []string, now time.Time) Snapshot {
	if vocabulary == nil {
		vocabulary = DistinctTags(items)
	}
	return Snapshot{
		Trending:        e.Trending(items, now),
		Hot:             e.Hot(items, now),
		Categories:      e.Categorize(vocabulary),
		TrendWindowDays: e.trendWindowDays,
		HotWindowDays:   e.hotWindowDays,
		GeneratedAt:     now.UTC(),
	}
}

// Compose merges content-based tags with trend data. All lists content tags
// first, then trending, then hot, without duplicates, capped at MaxSuggestions.
func Compose(contentBased []string, trend Trend, hot []string) Suggestions {
	s := Suggestions{
		ContentBased: nonNil(contentBased),
		Trending:     nonNil(trend.Tags),
		Hot:          nonNil(hot),
		Analytics:    trend.Analytics,
	}
	if s.Analytics == nil {
		s.Analytics = []TagAnalytics{}
	}

	seen := make(map[string]struct{}, MaxSuggestions)
	s.All = make([]string, 0, MaxSuggestions)
	for _, list := range [][]string{s.ContentBased, s.Trending, s.Hot} {
		for _, tag := range list {
			if len(s.All) == MaxSuggestions {
				return s
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			s.All = append(s.All, tag)
		}
	}
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
