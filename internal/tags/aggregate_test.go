package tags

import (
	"fmt"
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testNow.Add(-time.Duration(d * float64(24*time.Hour)))
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	items := []TaggedItem{
		{Tags: []string{"react", "css"}, CreatedAt: daysAgo(1)},
		{Tags: []string{"react"}, CreatedAt: daysAgo(20)},
		{Tags: []string{"react"}, CreatedAt: daysAgo(2)},
		{Tags: []string{"python"}, CreatedAt: daysAgo(40)},
		{Tags: nil, CreatedAt: daysAgo(1)},
	}

	got := Aggregate(items, 30, testNow)

	wantTags := []string{"react", "css"}
	if !reflect.DeepEqual(got.Tags, wantTags) {
		t.Errorf("Tags = %v, want %v", got.Tags, wantTags)
	}
	wantAnalytics := []TagAnalytics{
		{Tag: "react", Count: 3, Growth: 2},
		{Tag: "css", Count: 1, Growth: 0},
	}
	if !reflect.DeepEqual(got.Analytics, wantAnalytics) {
		t.Errorf("Analytics = %+v, want %+v", got.Analytics, wantAnalytics)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	t.Parallel()

	items := []TaggedItem{
		{Tags: []string{"go", "sql"}, CreatedAt: daysAgo(3)},
		{Tags: []string{"sql"}, CreatedAt: daysAgo(18)},
		{Tags: []string{"docker", "go"}, CreatedAt: daysAgo(9)},
		{Tags: []string{"css"}, CreatedAt: daysAgo(27)},
		{Tags: []string{"css"}, CreatedAt: daysAgo(28)},
	}

	first := Aggregate(items, 30, testNow)
	second := Aggregate(items, 30, testNow)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Aggregate() not repeatable:\n first  %+v\n second %+v", first, second)
	}
}

func TestAggregate_WindowBoundaries(t *testing.T) {
	t.Parallel()

	cutoff, midpoint := Window(30, testNow)
	if !cutoff.Equal(testNow.AddDate(0, 0, -30)) {
		t.Fatalf("cutoff = %v", cutoff)
	}

	items := []TaggedItem{
		{Tags: []string{"edge"}, CreatedAt: cutoff},
		{Tags: []string{"edge"}, CreatedAt: midpoint},
		{Tags: []string{"gone"}, CreatedAt: cutoff.Add(-time.Second)},
	}
	got := Aggregate(items, 30, testNow)

	want := []TagAnalytics{{Tag: "edge", Count: 2, Growth: 0}}
	if !reflect.DeepEqual(got.Analytics, want) {
		t.Errorf("Analytics = %+v, want %+v", got.Analytics, want)
	}
}

func TestAggregate_DuplicateTagOnItemCountsOnce(t *testing.T) {
	t.Parallel()

	got := Aggregate([]TaggedItem{{Tags: []string{"go", "go", ""}, CreatedAt: daysAgo(1)}}, 7, testNow)
	if len(got.Analytics) != 1 || got.Analytics[0].Count != 1 {
		t.Errorf("Analytics = %+v, want single go with count 1", got.Analytics)
	}
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	t.Parallel()

	items := []TaggedItem{
		{Tags: []string{"zeta"}, CreatedAt: daysAgo(20)},
		{Tags: []string{"alpha"}, CreatedAt: daysAgo(21)},
		{Tags: []string{"mid"}, CreatedAt: daysAgo(22)},
	}
	got := Aggregate(items, 30, testNow)
	want := []string{"zeta", "alpha", "mid"}
	if !reflect.DeepEqual(got.Tags, want) {
		t.Errorf("Tags = %v, want %v", got.Tags, want)
	}
}

func TestAggregate_GrowthOutranksFrequency(t *testing.T) {
	t.Parallel()

	// old: 3 uses, all older than midpoint -> score 3
	// new: 1 old + 1 recent -> growth 1, score 2 + 2 = 4
	items := []TaggedItem{
		{Tags: []string{"old"}, CreatedAt: daysAgo(25)},
		{Tags: []string{"old"}, CreatedAt: daysAgo(24)},
		{Tags: []string{"old"}, CreatedAt: daysAgo(23)},
		{Tags: []string{"new"}, CreatedAt: daysAgo(20)},
		{Tags: []string{"new"}, CreatedAt: daysAgo(1)},
	}
	got := Aggregate(items, 30, testNow)
	if got.Tags[0] != "new" {
		t.Errorf("Tags = %v, want new first", got.Tags)
	}
}

func TestAggregate_Limits(t *testing.T) {
	t.Parallel()

	var items []TaggedItem
	for i := 0; i < 25; i++ {
		items = append(items, TaggedItem{Tags: []string{fmt.Sprintf("tag-%02d", i)}, CreatedAt: daysAgo(3)})
	}
	got := Aggregate(items, 30, testNow)
	if len(got.Tags) != MaxTrendingTags {
		t.Errorf("len(Tags) = %d, want %d", len(got.Tags), MaxTrendingTags)
	}
	if len(got.Analytics) != MaxAnalytics {
		t.Errorf("len(Analytics) = %d, want %d", len(got.Analytics), MaxAnalytics)
	}
	for i, a := range got.Analytics {
		if got.Tags[i] != a.Tag {
			t.Errorf("Tags[%d] = %q, Analytics[%d] = %q; orders differ", i, got.Tags[i], i, a.Tag)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		items  []TaggedItem
		window int
	}{
		{name: "no items", items: nil, window: 30},
		{name: "zero window", items: []TaggedItem{{Tags: []string{"a"}, CreatedAt: testNow}}, window: 0},
		{name: "negative window", items: []TaggedItem{{Tags: []string{"a"}, CreatedAt: testNow}}, window: -3},
		{name: "only malformed", items: []TaggedItem{{CreatedAt: testNow}}, window: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Aggregate(tt.items, tt.window, testNow)
			if got.Tags == nil || got.Analytics == nil {
				t.Fatalf("got nil slices: %+v", got)
			}
			if len(got.Tags) != 0 || len(got.Analytics) != 0 {
				t.Errorf("got %+v, want empty", got)
			}
		})
	}
}

func TestTagCountGrowth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    TagCount
		want float64
	}{
		{TagCount{Total: 4, RecentCount: 2}, 1},
		{TagCount{Total: 4, RecentCount: 1}, 1.0 / 3},
		{TagCount{Total: 2, RecentCount: 2}, 0},
		{TagCount{Total: 3, RecentCount: 0}, 0},
	}
	for _, tt := range tests {
		if got := tt.c.Growth(); got != tt.want {
			t.Errorf("%+v.Growth() = %v, want %v", tt.c, got, tt.want)
		}
	}
}
