package figure

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/sleepboard/internal/dataset"
)

func loadFixture(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.Load("../../testdata/sleep_sample.csv")
	require.NoError(t, err)
	return table
}

func emptyTable(t *testing.T) *dataset.Table {
	t.Helper()
	return loadFixture(t).Filter(dataset.Predicates{Sleep: &dataset.Interval{Lo: 20, Hi: 24}})
}

func TestEveryChartHandlesEmptyInput(t *testing.T) {
	empty := emptyTable(t)
	require.Equal(t, 0, empty.Len())

	for _, chart := range Catalog() {
		t.Run(chart.Key, func(t *testing.T) {
			fig := chart.Build(empty)
			assert.True(t, fig.Empty())
			assert.Equal(t, chart.Title, fig.Layout.Title.Text)

			raw, err := json.Marshal(fig)
			require.NoError(t, err)
			assert.Contains(t, string(raw), `"data":[`)
		})
	}
}

func TestEveryChartSerializesWithData(t *testing.T) {
	table := loadFixture(t)

	for _, chart := range Catalog() {
		t.Run(chart.Key, func(t *testing.T) {
			fig := chart.Build(table)
			assert.False(t, fig.Empty())

			raw, err := json.Marshal(fig)
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Contains(t, decoded, "layout")
		})
	}
}

func TestSleepHistogramBindings(t *testing.T) {
	table := loadFixture(t)
	fig := SleepHistogram(table)

	require.Len(t, fig.Data, 2)
	hist := fig.Data[0]
	assert.Equal(t, KindHistogram, hist.Type)
	assert.Equal(t, 20, hist.NBinsX)
	assert.Len(t, hist.X, table.Len())
	assert.Equal(t, "skyblue", hist.Marker.Color)
	assert.Equal(t, "Quality of Sleep=6", hist.Text[0])

	marginal := fig.Data[1]
	assert.Equal(t, KindBox, marginal.Type)
	assert.Equal(t, "y2", marginal.YAxis)
	require.NotNil(t, fig.Layout.BarGap)
	assert.InDelta(t, 0.3, *fig.Layout.BarGap, 1e-9)
	assert.Equal(t, "Sleep Duration (hours)", fig.Layout.XAxis.Title.Text)
}

func TestStressScatterUsesContinuousColour(t *testing.T) {
	table := loadFixture(t)
	fig := StressScatter(table)

	require.Len(t, fig.Data, 2)
	points, line := fig.Data[0], fig.Data[1]

	assert.Equal(t, "markers", points.Mode)
	assert.Len(t, points.X, table.Len())
	require.NotNil(t, points.Marker)
	assert.Equal(t, column(table.Records(), fieldStress), points.Marker.ColorValues)
	assert.Equal(t, "Viridis", points.Marker.ColorScale)
	require.NotNil(t, points.Marker.CMin)
	require.NotNil(t, points.Marker.CMax)
	assert.InDelta(t, 3, *points.Marker.CMin, 1e-9)
	assert.InDelta(t, 8, *points.Marker.CMax, 1e-9)
	require.NotNil(t, points.Marker.ColorBar)
	assert.Equal(t, dataset.ColStressLevel, points.Marker.ColorBar.Title.Text)
	assert.Len(t, points.Marker.Size, len(points.X))
	assert.Equal(t, "area", points.Marker.SizeMode)
	assert.Nil(t, fig.Layout.Legend)

	// One fit over every filtered row, not one per stress level.
	assert.Equal(t, "lines", line.Mode)
	assert.True(t, strings.HasPrefix(line.Text[0], "OLS trendline"))
	assert.Equal(t, []float64{5.9, 8.4}, line.X)
	fit, ok := OLS(column(table.Records(), fieldSleep), column(table.Records(), fieldQuality))
	require.True(t, ok)
	assert.InDelta(t, fit.Predict(5.9), line.Y[0], 1e-9)
	assert.InDelta(t, fit.Predict(8.4), line.Y[1], 1e-9)

	raw, err := json.Marshal(points)
	require.NoError(t, err)
	var decoded struct {
		Marker struct {
			Color []float64 `json:"color"`
		} `json:"marker"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, points.Marker.ColorValues, decoded.Marker.Color)
}

func TestStressScatterSingleLevelStillFits(t *testing.T) {
	table := loadFixture(t).Filter(dataset.Predicates{Stress: []int{8}})
	fig := StressScatter(table)

	require.Len(t, fig.Data, 2)
	assert.Len(t, fig.Data[0].X, table.Len())
	assert.Equal(t, "lines", fig.Data[1].Mode)
}

func TestMarkerColorRoundTrip(t *testing.T) {
	for _, m := range []Marker{
		{Color: "skyblue"},
		{ColorValues: []float64{1, 2.5}, ColorScale: "Viridis"},
		{},
	} {
		raw, err := json.Marshal(m)
		require.NoError(t, err)

		var back Marker
		require.NoError(t, json.Unmarshal(raw, &back))
		assert.Equal(t, m, back, string(raw))
	}
}

func TestQualityBySleepSingleSeries(t *testing.T) {
	fig := QualityBySleep(loadFixture(t))

	require.Len(t, fig.Data, 2)
	assert.Equal(t, "markers", fig.Data[0].Mode)
	assert.Empty(t, fig.Data[0].Name)
	assert.Equal(t, "lines", fig.Data[1].Mode)
	assert.Greater(t, fig.Data[1].Y[1], fig.Data[1].Y[0], "quality rises with sleep in the fixture")
}

func TestAnimatedScatterHasFramePerSample(t *testing.T) {
	table := loadFixture(t).Filter(dataset.Predicates{Activity: []int{75, 30}})
	fig := ActivityAnimated(table)

	require.Len(t, fig.Frames, table.Len())
	for i, rec := range table.Records() {
		frame := fig.Frames[i]
		require.NotEmpty(t, frame.Data)
		assert.Equal(t, []float64{rec.SleepDuration}, frame.Data[0].X)
		assert.Equal(t, strings.TrimSpace(frame.Name), frame.Name)
	}
	assert.Equal(t, fig.Frames[0].Data, fig.Data)
	require.Len(t, fig.Layout.Sliders, 1)
	assert.Len(t, fig.Layout.Sliders[0].Steps, table.Len())
	assert.Len(t, fig.Layout.XAxis.Range, 2)
	assert.Len(t, fig.Layout.UpdateMenus, 1)
}

func TestComprehensiveKeepsTrendlineInFrames(t *testing.T) {
	fig := Comprehensive(loadFixture(t))

	require.NotEmpty(t, fig.Frames)
	trends := 0
	for _, tr := range fig.Frames[0].Data {
		if tr.Mode == "lines" {
			trends++
		}
	}
	assert.Equal(t, 1, trends)
	require.NotNil(t, fig.Data[0].Marker.ColorBar)
	assert.Equal(t, dataset.ColActivityLevel, fig.Data[0].Marker.ColorBar.Title.Text)

	// Each frame keeps the colour scale of the whole set.
	last := fig.Frames[len(fig.Frames)-1].Data[0].Marker
	assert.Equal(t, *fig.Data[0].Marker.CMin, *last.CMin)
	assert.Equal(t, *fig.Data[0].Marker.CMax, *last.CMax)
	assert.Contains(t, fig.Data[0].Text[0], "Stress Level=")
}

func TestBoxPlotsPerCategory(t *testing.T) {
	table := loadFixture(t)
	fig := SleepByStress(table)

	require.Len(t, fig.Data, len(table.StressLevels()))
	for _, tr := range fig.Data {
		assert.Equal(t, KindBox, tr.Type)
		assert.Equal(t, "all", tr.BoxPoints)
		assert.NotEmpty(t, tr.Y)
	}
	assert.Equal(t, dataset.ColStressLevel, fig.Layout.XAxis.Title.Text)

	activity := QualityByActivity(table)
	assert.Len(t, activity.Data, len(table.ActivityLevels()))
}

func TestQualityHeatmapMeans(t *testing.T) {
	table := loadFixture(t)
	fig := QualityHeatmap(table)

	require.Len(t, fig.Data, 1)
	z := fig.Data[0].Z
	require.Len(t, z, len(table.StressLevels()))
	assert.Equal(t, []string{"30", "40", "42", "60", "75"}, fig.Layout.XAxis.TickText)

	// Stress 8 (last row) with activity 30 (first column): rows 4, 5, 6 all quality 4.
	require.NotNil(t, z[5][0])
	assert.InDelta(t, 4, *z[5][0], 1e-9)
	// Stress 3 never pairs with activity 40.
	assert.Nil(t, z[0][1])

	raw, err := json.Marshal(fig)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "null")
}

func TestCorrelationHeatmapSkipsIdentifiers(t *testing.T) {
	fig := CorrelationHeatmap(loadFixture(t))

	labels := fig.Layout.XAxis.TickText
	assert.NotContains(t, labels, "Person ID")
	assert.Contains(t, labels, dataset.ColSleepDuration)
	assert.Contains(t, labels, dataset.ColQuality)

	z := fig.Data[0].Z
	for i := range labels {
		require.NotNil(t, z[i][i])
		assert.InDelta(t, 1, *z[i][i], 1e-9)
	}
}

func TestBuildUnknownChart(t *testing.T) {
	_, err := Build("pie", loadFixture(t))
	assert.ErrorIs(t, err, ErrUnknownChart)

	fig, err := Build("sleep-histogram", loadFixture(t))
	require.NoError(t, err)
	assert.Equal(t, TitleSleepHistogram, fig.Layout.Title.Text)
}
