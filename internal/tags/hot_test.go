package tags

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
)

func TestHot(t *testing.T) {
	t.Parallel()

	analytics := []TagAnalytics{
		{Tag: "flat", Count: 10, Growth: 0.5},
		{Tag: "warm", Count: 5, Growth: 0.6},
		{Tag: "rocket", Count: 3, Growth: 2},
		{Tag: "double", Count: 4, Growth: 1},
		{Tag: "twin", Count: 2, Growth: 1},
	}
	got := Hot(analytics)
	want := []string{"rocket", "double", "twin", "warm"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hot() = %v, want %v", got, want)
	}
}

func TestHot_Limit(t *testing.T) {
	t.Parallel()

	var analytics []TagAnalytics
	for i := 0; i < 12; i++ {
		analytics = append(analytics, TagAnalytics{Tag: fmt.Sprintf("t%d", i), Count: 2, Growth: 1 + float64(i)})
	}
	got := Hot(analytics)
	if len(got) != MaxHotTags {
		t.Fatalf("len = %d, want %d", len(got), MaxHotTags)
	}
	if got[0] != "t11" {
		t.Errorf("first = %q, want t11", got[0])
	}
}

func TestHot_None(t *testing.T) {
	t.Parallel()

	got := Hot(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Hot(nil) = %v, want empty non-nil", got)
	}
}

func TestMomentum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		growth float64
		want   Momentum
	}{
		{0, MomentumSteady},
		{0.5, MomentumSteady},
		{0.75, MomentumRising},
		{1, MomentumRising},
		{3, MomentumSurging},
	}
	for _, tt := range tests {
		if got := (TagAnalytics{Growth: tt.growth}).Momentum(); got != tt.want {
			t.Errorf("growth %v: got %q, want %q", tt.growth, got, tt.want)
		}
	}
}

func TestTagAnalytics_MarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(TagAnalytics{Tag: "go", Count: 4, Growth: 3})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw["tag"] != "go" || raw["count"] != float64(4) || raw["growth"] != float64(3) {
		t.Errorf("fields = %s", data)
	}
	if raw["momentum"] != string(MomentumSurging) {
		t.Errorf("momentum = %v, want %q", raw["momentum"], MomentumSurging)
	}

	var back TagAnalytics
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal into TagAnalytics: %v", err)
	}
	if back != (TagAnalytics{Tag: "go", Count: 4, Growth: 3}) {
		t.Errorf("round trip = %+v", back)
	}
}
