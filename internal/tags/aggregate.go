package tags

import (
	"sort"
	"time"
)

const (
	// MaxTrendingTags is the number of tag names returned by Aggregate.
	MaxTrendingTags = 20
	// MaxAnalytics is the number of analytics records returned by Aggregate.
	MaxAnalytics = 15
	// DefaultTrendWindowDays is the window for the general trending list.
	DefaultTrendWindowDays = 30
	// DefaultHotWindowDays is the shorter window the hot list is computed over.
	DefaultHotWindowDays = 14
	// growthScoreWeight weights growth against raw frequency when ranking.
	growthScoreWeight = 2
)

// TaggedItem is the slice of a question the analytics care about.
// A nil Tags marks a record that arrived without a tags field.
type TaggedItem struct {
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
}

// TagCount is the per-tag tally inside one aggregation.
type TagCount struct {
	Tag         string
	Total       int
	RecentCount int
}

// Growth is recent usage relative to older usage within the window.
// It is zero when every use is recent.
func (c TagCount) Growth() float64 {
	if c.Total <= c.RecentCount {
		return 0
	}
	return float64(c.RecentCount) / float64(c.Total-c.RecentCount)
}

// TagAnalytics is the published view of a tag's usage in a window.
type TagAnalytics struct {
	Tag    string  `json:"tag"`
	Count  int     `json:"count"`
	Growth float64 `json:"growth"`
}

// Score ranks tags by frequency plus weighted growth.
func (a TagAnalytics) Score() float64 {
	return float64(a.Count) + a.Growth*growthScoreWeight
}

// Trend is the result of one aggregation.
type Trend struct {
	Tags      []string       `json:"tags"`
	Analytics []TagAnalytics `json:"analytics"`
}

// EmptyTrend is the result for no data, also used when the store fails.
func EmptyTrend() Trend {
	return Trend{Tags: []string{}, Analytics: []TagAnalytics{}}
}

// Window returns the cutoff and midpoint of a trailing window of days ending at now.
func Window(windowDays int, now time.Time) (cutoff, midpoint time.Time) {
	cutoff = now.AddDate(0, 0, -windowDays)
	midpoint = now.Add(-now.Sub(cutoff) / 2)
	return cutoff, midpoint
}

// Aggregate counts tag usage over items created within windowDays of now.
// Items newer than the window midpoint count as recent. Tags are ranked by
// Score; equal scores keep the order in which tags were first seen.
func Aggregate(items []TaggedItem, windowDays int, now time.Time) Trend {
	if windowDays <= 0 {
		return EmptyTrend()
	}
	cutoff, midpoint := Window(windowDays, now)
	counts := countTags(items, cutoff, midpoint)

	analytics := make([]TagAnalytics, len(counts))
	for i, c := range counts {
		analytics[i] = TagAnalytics{Tag: c.Tag, Count: c.Total, Growth: c.Growth()}
	}
	sort.SliceStable(analytics, func(i, j int) bool {
		return analytics[i].Score() > analytics[j].Score()
	})

	trend := EmptyTrend()
	for i, a := range analytics {
		if i < MaxTrendingTags {
			trend.Tags = append(trend.Tags, a.Tag)
		}
		if i < MaxAnalytics {
			trend.Analytics = append(trend.Analytics, a)
		}
	}
	return trend
}

// countTags tallies tags in first-seen order. Items without tags or older
// than cutoff are skipped; a tag repeated on one item counts once.
func countTags(items []TaggedItem, cutoff, midpoint time.Time) []TagCount {
	index := make(map[string]int)
	var counts []TagCount

	for _, item := range items {
		if item.Tags == nil || item.CreatedAt.Before(cutoff) {
			continue
		}
		recent := item.CreatedAt.After(midpoint)
		seen := make(map[string]struct{}, len(item.Tags))
		for _, tag := range item.Tags {
			if tag == "" {
				continue
			}
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}

			i, ok := index[tag]
			if !ok {
				i = len(counts)
				index[tag] = i
				counts = append(counts, TagCount{Tag: tag})
			}
			counts[i].Total++
			if recent {
				counts[i].RecentCount++
			}
		}
	}
	return counts
}
