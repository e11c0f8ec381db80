package tags

import (
	"encoding/json"
	"sort"
)

const (
	// HotGrowthThreshold is the growth a tag must exceed to be hot.
	HotGrowthThreshold = 0.5
	// MaxHotTags caps the hot list.
	MaxHotTags = 8
	// surgingGrowth marks growth that more than doubles older usage.
	surgingGrowth = 1.0
)

// Hot returns up to MaxHotTags tags whose growth exceeds HotGrowthThreshold,
// fastest growing first.
func Hot(analytics []TagAnalytics) []string {
	rising := make([]TagAnalytics, 0, len(analytics))
	for _, a := range analytics {
		if a.Growth > HotGrowthThreshold {
			rising = append(rising, a)
		}
	}
	sort.SliceStable(rising, func(i, j int) bool {
		return rising[i].Growth > rising[j].Growth
	})
	if len(rising) > MaxHotTags {
		rising = rising[:MaxHotTags]
	}

	names := make([]string, len(rising))
	for i, a := range rising {
		names[i] = a.Tag
	}
	return names
}

// Momentum is a coarse label for a growth value.
type Momentum string

const (
	MomentumSurging Momentum = "surging"
	MomentumRising  Momentum = "rising"
	MomentumSteady  Momentum = "steady"
)

// Momentum labels the record's growth for display.
func (a TagAnalytics) Momentum() Momentum {
	switch {
	case a.Growth > surgingGrowth:
		return MomentumSurging
	case a.Growth > HotGrowthThreshold:
		return MomentumRising
	default:
		return MomentumSteady
	}
}

// MarshalJSON publishes the momentum label next to the raw growth.
func (a TagAnalytics) MarshalJSON() ([]byte, error) {
	type plain TagAnalytics
	return json.Marshal(struct {
		plain
		Momentum Momentum `json:"momentum"`
	}{plain: plain(a), Momentum: a.Momentum()})
}
