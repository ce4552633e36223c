package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/figure"
)

func newTestApp(t *testing.T, variant string) *fiber.App {
	t.Helper()
	table, err := dataset.Load("../../testdata/sleep_sample.csv")
	require.NoError(t, err)
	dash, err := dashboard.New(table, variant)
	require.NoError(t, err)

	tmpl, err := os.ReadFile("../../cmd/sleepboard/dashboard.html")
	require.NoError(t, err)
	h, err := New(dash, Assets{Template: tmpl, Script: []byte("// script"), Style: []byte("body{}")}, "1.0.0-test")
	require.NoError(t, err)

	app := fiber.New()
	h.Routes(app)
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeJSON[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestNewRejectsBrokenTemplate(t *testing.T) {
	table, err := dataset.Load("../../testdata/sleep_sample.csv")
	require.NoError(t, err)
	dash, err := dashboard.New(table, "story")
	require.NoError(t, err)

	_, err = New(dash, Assets{Template: []byte("{{if}")}, "x")
	assert.Error(t, err)
}

func TestHandlePage(t *testing.T) {
	resp, body := doRequest(t, newTestApp(t, "story"), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	page := string(body)
	assert.Contains(t, page, "<title>Interactive Sleep &amp; Lifestyle Story Dashboard</title>")
	assert.Contains(t, page, `data-control="sleep-slider"`)
	assert.Contains(t, page, `data-panel="comprehensive-plot"`)
	assert.Contains(t, page, "Stress Analysis")
	assert.Contains(t, page, `"update-overview"`)
	assert.Contains(t, page, "1.0.0-test")
}

func TestHandlePageWithoutTabs(t *testing.T) {
	resp, body := doRequest(t, newTestApp(t, "grid"), http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, strings.Count(string(body), `class="panel"`))
	assert.Contains(t, string(body), `data-placeholder="Select Stress Levels"`)
	assert.NotContains(t, string(body), `class="tabs"`)
}

func TestHandleLayout(t *testing.T) {
	resp, body := doRequest(t, newTestApp(t, "story"), http.MethodGet, "/api/layout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeJSON[layoutResponse](t, body)
	assert.Equal(t, "story", got.Variant)
	assert.Equal(t, dashboard.ComponentPage, got.Layout.Kind)
	assert.Len(t, got.Callbacks, 4)
}

func TestHandleUpdate(t *testing.T) {
	app := newTestApp(t, "story")

	resp, body := doRequest(t, app, http.MethodPost, "/api/update",
		`{"changed":"stress-checklist","values":{"stress-checklist":[8]}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	got := decodeJSON[dashboard.Result](t, body)
	require.Len(t, got.Figures, 1)
	fig := got.Figures["stress-plot"]
	assert.Equal(t, figure.TitleStressScatter, fig.Layout.Title.Text)
	require.NotEmpty(t, fig.Data)
	require.NotNil(t, fig.Data[0].Marker)
	assert.Equal(t, []float64{8, 8, 8, 8, 8}, fig.Data[0].Marker.ColorValues)

	resp, body = doRequest(t, app, http.MethodPost, "/api/update", `{"values":{}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeJSON[dashboard.Result](t, body).Figures, 4)
}

func TestHandleUpdateRejectsBadRequests(t *testing.T) {
	app := newTestApp(t, "story")

	resp, body := doRequest(t, app, http.MethodPost, "/api/update", `{"changed":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid payload", decodeJSON[map[string]string](t, body)["error"])

	resp, body = doRequest(t, app, http.MethodPost, "/api/update", `{"changed":"volume-knob","values":{}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeJSON[map[string]string](t, body)["error"], "unknown control")
}

func TestHandleFigure(t *testing.T) {
	app := newTestApp(t, "grid")

	resp, body := doRequest(t, app, http.MethodGet, "/api/figures/plot2?stress=8", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fig := decodeJSON[figure.Figure](t, body)
	require.Len(t, fig.Data, 1)
	assert.Len(t, fig.Data[0].Y, 5)

	resp, body = doRequest(t, app, http.MethodGet, "/api/figures/plot2?stress=loud", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeJSON[figure.Figure](t, body).Data, 6, "malformed filter is ignored")

	resp, body = doRequest(t, app, http.MethodGet, "/api/figures/plot1?sleep_min=20&sleep_max=24", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeJSON[figure.Figure](t, body).Empty())

	resp, body = doRequest(t, app, http.MethodGet, "/api/figures/plot9", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decodeJSON[map[string]string](t, body)["error"], "unknown panel")
}

func TestHandleFigureSVG(t *testing.T) {
	app := newTestApp(t, "grid")

	resp, body := doRequest(t, app, http.MethodGet, "/api/figures/plot3/svg?activity=60,75&width=640", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")

	resp, _ = doRequest(t, app, http.MethodGet, "/api/figures/nope/svg", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleFigureSVGSingleCategory(t *testing.T) {
	grid := newTestApp(t, "grid")
	explorer := newTestApp(t, "explorer")

	for _, tc := range []struct {
		app  *fiber.App
		path string
	}{
		{grid, "/api/figures/plot2/svg?stress=5"},
		{grid, "/api/figures/plot4/svg?activity=30"},
		{grid, "/api/figures/plot5/svg?stress=5"},
		{explorer, "/api/figures/explorer-heatmap/svg?stress=5"},
		{explorer, "/api/figures/explorer-heatmap/svg?stress=99"},
	} {
		resp, body := doRequest(t, tc.app, http.MethodGet, tc.path, "")
		require.Equal(t, http.StatusOK, resp.StatusCode, "%s: %s", tc.path, body)
		assert.Contains(t, string(body), "<svg", tc.path)
	}
}

func TestHandleOptions(t *testing.T) {
	resp, body := doRequest(t, newTestApp(t, "story"), http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decodeJSON[optionsResponse](t, body)
	assert.Equal(t, 16, got.Rows)
	assert.InDelta(t, 5.9, got.SleepMin, 1e-9)
	assert.InDelta(t, 8.4, got.SleepMax, 1e-9)
	assert.Equal(t, []int{3, 4, 5, 6, 7, 8}, got.StressLevels)
	assert.Equal(t, []int{30, 40, 42, 60, 75}, got.ActivityLevels)
	assert.Contains(t, got.Variants, "explorer")
}

func TestHandleRows(t *testing.T) {
	app := newTestApp(t, "story")

	resp, body := doRequest(t, app, http.MethodGet, "/api/rows?stress=8&per=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decodeJSON[PaginatedResponse[dataset.Record]](t, body)
	assert.Equal(t, 5, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasMore)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 2, page.Data[0].SampleID)
	assert.Equal(t, 3, page.Data[1].SampleID)

	resp, body = doRequest(t, app, http.MethodGet, "/api/rows?sort_by=sleep_duration&sort_order=desc&per=3", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decodeJSON[PaginatedResponse[dataset.Record]](t, body)
	ids := []int{}
	for _, r := range page.Data {
		ids = append(ids, r.SampleID)
	}
	assert.Equal(t, []int{16, 12, 8}, ids)
	assert.Equal(t, 16, page.Pagination.Total)
}

func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t, "story")

	resp, body := doRequest(t, app, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	health := decodeJSON[map[string]any](t, body)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "story", health["variant"])
	assert.InDelta(t, 16, health["rows"], 0)

	resp, _ = doRequest(t, app, http.MethodGet, "/up", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doRequest(t, app, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.0.0-test", decodeJSON[map[string]string](t, body)["version"])
}

func TestStaticAssets(t *testing.T) {
	app := newTestApp(t, "story")

	resp, body := doRequest(t, app, http.MethodGet, "/assets/dashboard.js", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "javascript")
	assert.Equal(t, "// script", string(body))

	resp, _ = doRequest(t, app, http.MethodGet, "/assets/dashboard.css", "")
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
}

func TestSortRecordsBreaksTiesBySampleID(t *testing.T) {
	records := []dataset.Record{
		{SampleID: 3, StressLevel: 8},
		{SampleID: 1, StressLevel: 6},
		{SampleID: 2, StressLevel: 8},
	}
	sortRecords(records, "stress_level", SortDesc)
	assert.Equal(t, 2, records[0].SampleID)
	assert.Equal(t, 3, records[1].SampleID)
	assert.Equal(t, 1, records[2].SampleID)
}
