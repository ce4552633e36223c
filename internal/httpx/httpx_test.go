package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList(""))
	assert.Nil(t, SplitList("  "))
	assert.Equal(t, []string{"3", "5"}, SplitList("3,5"))
	assert.Equal(t, []string{"3", "5"}, SplitList(" 3 , ,5,"))
}

func TestErrorEnvelope(t *testing.T) {
	app := fiber.New()
	app.Get("/bad", func(c fiber.Ctx) error { return Error(c, fiber.StatusBadRequest, "nope") })
	app.Get("/internal", func(c fiber.Ctx) error { return Internal(c, "render failed", errors.New("boom")) })
	app.Get("/list", func(c fiber.Ctx) error { return c.JSON(QueryList(c, "stress")) })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/bad", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "nope", body["error"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/list?stress=3,%205", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	var list []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Equal(t, []string{"3", "5"}, list)
}
