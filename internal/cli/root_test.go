package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seuros/sleepboard/internal/config"
	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/handlers"
	"github.com/seuros/sleepboard/internal/metrics"
	"github.com/seuros/sleepboard/internal/realtime"
)

const sampleData = "../../testdata/sleep_sample.csv"

func testConfig(variant string) *config.Config {
	return &config.Config{
		DataFile: sampleData,
		Host:     "127.0.0.1",
		Port:     "8050",
		Variant:  variant,
	}
}

func testAssets(t *testing.T) handlers.Assets {
	t.Helper()
	tmpl, err := os.ReadFile("../../cmd/sleepboard/dashboard.html")
	require.NoError(t, err)
	return handlers.Assets{Template: tmpl, Script: []byte("// script"), Style: []byte("body{}")}
}

func setVersion(t *testing.T, v string) {
	t.Helper()
	original := Version
	Version = v
	t.Cleanup(func() { Version = original })
}

func newTestApp(t *testing.T) (*fiber.App, *metrics.Metrics) {
	t.Helper()
	m := metrics.New()
	dash, err := loadDashboard(testConfig("story"), dashboard.WithObserver(m))
	require.NoError(t, err)
	m.SetDatasetRows(dash.Table().Len())

	h, err := handlers.New(dash, testAssets(t), Version)
	require.NoError(t, err)

	hub := realtime.NewHub(dash)
	t.Cleanup(hub.Close)
	m.TrackSessions(hub.GetClientCount)

	return newApp(h, hub, m), m
}

func get(t *testing.T, app *fiber.App, target string) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNewAppServesDashboard(t *testing.T) {
	setVersion(t, "9.9.9")
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "9.9.9", resp.Header.Get("X-Sleepboard-Version"))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.Contains(t, body, `data-panel="overview-plot"`)
}

func TestNewAppExposesMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := get(t, app, "/api/figures/overview-plot?stress=8")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, app, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `sleepboard_http_requests_total{method="GET",route="/api/figures/:panel",status="200"} 1`)
	assert.Contains(t, body, "sleepboard_dataset_rows 16")
	assert.Contains(t, body, "sleepboard_filtered_rows_count")
	assert.Contains(t, body, "sleepboard_realtime_sessions 0")
}

func TestNewAppUnmatchedRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := get(t, app, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, `"error"`)
}

func TestNewAppRejectsPlainRequestOnWebsocketRoute(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := get(t, app, "/ws")
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func freePort(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return strconv.Itoa(port)
}

func TestServeStopsWhenContextIsCancelled(t *testing.T) {
	app, _ := newTestApp(t)
	dash, err := loadDashboard(testConfig("story"))
	require.NoError(t, err)
	hub := realtime.NewHub(dash)

	port := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- serve(ctx, app, hub, "127.0.0.1:"+port) }()

	url := upURL("0.0.0.0", port)
	require.Eventually(t, func() bool {
		return checkHealth(context.Background(), url) == nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not return after cancellation")
	}
	assert.Equal(t, 0, hub.GetClientCount())
}
