package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observed struct {
	method, route string
	status        int
}

type recorder struct {
	mu   sync.Mutex
	seen []observed
}

func (r *recorder) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observed{method, route, status})
}

func (r *recorder) last() observed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[len(r.seen)-1]
}

func newTestApp(rec *recorder) *fiber.App {
	app := fiber.New()
	app.Use(Metrics(rec))
	app.Use(Version("1.2.3"))
	app.Get("/api/figures/:panel", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"panel": c.Params("panel")})
	})
	app.Get("/boom", func(c fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/fail", func(c fiber.Ctx) error {
		return assert.AnError
	})
	return app
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	rec := &recorder{}
	resp, err := newTestApp(rec).Test(httptest.NewRequest(http.MethodGet, "/api/figures/plot1", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, observed{"GET", "/api/figures/:panel", 200}, rec.last())
}

func TestMetricsRecordsErrorStatus(t *testing.T) {
	rec := &recorder{}
	app := newTestApp(rec)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, http.StatusTeapot, rec.last().status)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, rec.last().status)
}

func TestVersionHeader(t *testing.T) {
	resp, err := newTestApp(&recorder{}).Test(httptest.NewRequest(http.MethodGet, "/api/figures/x", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "1.2.3", resp.Header.Get("X-Sleepboard-Version"))
}
