package figure

import (
	"errors"
	"fmt"

	"github.com/seuros/sleepboard/internal/dataset"
)

// Chart titles.
const (
	TitleSleepHistogram     = "Distribution of Sleep Duration"
	TitleStressScatter      = "Sleep Duration vs Quality of Sleep by Stress Level"
	TitleActivityAnimated   = "Quality of Sleep vs Sleep Duration (Animated by Sample)"
	TitleComprehensive      = "Comprehensive Overview: Sleep Duration vs Quality of Sleep"
	TitleSleepByStress      = "Sleep Duration by Stress Level"
	TitleQualityBySleep     = "Quality of Sleep by Sleep Duration"
	TitleQualityByActivity  = "Quality of Sleep by Physical Activity Level"
	TitleBubbleOverview     = "Quality of Sleep vs Sleep Duration (Stress size, Activity hue)"
	TitleQualityHeatmap     = "Mean Quality of Sleep by Stress and Activity Level"
	TitleCorrelationHeatmap = "Correlation of Numeric Measures"
)

// ErrUnknownChart is returned for a chart key that is not in the catalog.
var ErrUnknownChart = errors.New("unknown chart")

// Builder turns a (filtered) table into a figure. Builders are pure and
// accept empty tables.
type Builder func(*dataset.Table) Figure

// Chart is a catalog entry.
type Chart struct {
	Key   string
	Kind  string
	Title string
	Build Builder
}

var catalog = []Chart{
	{"sleep-histogram", KindHistogram, TitleSleepHistogram, SleepHistogram},
	{"stress-scatter", KindScatter, TitleStressScatter, StressScatter},
	{"activity-animated", KindScatter, TitleActivityAnimated, ActivityAnimated},
	{"comprehensive", KindScatter, TitleComprehensive, Comprehensive},
	{"sleep-by-stress", KindBox, TitleSleepByStress, SleepByStress},
	{"quality-by-sleep", KindScatter, TitleQualityBySleep, QualityBySleep},
	{"quality-by-activity", KindBox, TitleQualityByActivity, QualityByActivity},
	{"bubble-overview", KindScatter, TitleBubbleOverview, BubbleOverview},
	{"quality-heatmap", KindHeatmap, TitleQualityHeatmap, QualityHeatmap},
	{"correlation-heatmap", KindHeatmap, TitleCorrelationHeatmap, CorrelationHeatmap},
}

// Catalog lists every chart in a stable order.
func Catalog() []Chart {
	out := make([]Chart, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds a chart by key.
func Lookup(key string) (Chart, bool) {
	for _, c := range catalog {
		if c.Key == key {
			return c, true
		}
	}
	return Chart{}, false
}

// Build renders the chart named key from t.
func Build(key string, t *dataset.Table) (Figure, error) {
	c, ok := Lookup(key)
	if !ok {
		return Figure{}, fmt.Errorf("%w: %q", ErrUnknownChart, key)
	}
	return c.Build(t), nil
}
