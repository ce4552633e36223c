package handlers

import (
	"bytes"
	"cmp"
	"errors"
	"slices"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/httpx"
	"github.com/seuros/sleepboard/internal/render"
)

type layoutResponse struct {
	Variant   string                  `json:"variant"`
	Title     string                  `json:"title"`
	Layout    dashboard.Component     `json:"layout"`
	Callbacks []dashboard.CallbackDef `json:"callbacks"`
}

// HandleLayout returns the component tree and callback wiring.
// GET /api/layout
func (h *Handlers) HandleLayout(c fiber.Ctx) error {
	v := h.dash.Variant()
	return c.JSON(layoutResponse{
		Variant:   v.Name,
		Title:     v.Title,
		Layout:    h.dash.Layout(),
		Callbacks: v.Callbacks,
	})
}

// HandleUpdate dispatches a control change and returns the recomputed figures.
// POST /api/update
func (h *Handlers) HandleUpdate(c fiber.Ctx) error {
	var u dashboard.Update
	if err := c.Bind().JSON(&u); err != nil {
		return httpx.Error(c, fiber.StatusBadRequest, "invalid payload")
	}

	res, err := h.dash.Dispatch(c.Context(), u)
	if errors.Is(err, dashboard.ErrUnknownControl) {
		return httpx.Error(c, fiber.StatusBadRequest, err.Error())
	}
	if err != nil {
		return httpx.Internal(c, "failed to update figures", err)
	}
	return c.JSON(res)
}

// query reads filter predicates from sleep_min, sleep_max, stress and
// activity. Malformed values are ignored.
func (h *Handlers) query(c fiber.Ctx) dataset.Predicates {
	return h.dash.Predicates(dashboard.Query{
		SleepMin: c.Query("sleep_min"),
		SleepMax: c.Query("sleep_max"),
		Stress:   httpx.QueryList(c, "stress"),
		Activity: httpx.QueryList(c, "activity"),
	})
}

// HandleFigure returns one panel's figure JSON.
// GET /api/figures/:panel
func (h *Handlers) HandleFigure(c fiber.Ctx) error {
	fig, err := h.dash.Figure(c.Params("panel"), h.query(c))
	if errors.Is(err, dashboard.ErrUnknownPanel) {
		return httpx.Error(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return httpx.Internal(c, "failed to build figure", err)
	}
	return c.JSON(fig)
}

// HandleFigureSVG renders one panel as a static SVG.
// GET /api/figures/:panel/svg
func (h *Handlers) HandleFigureSVG(c fiber.Ctx) error {
	fig, err := h.dash.Figure(c.Params("panel"), h.query(c))
	if errors.Is(err, dashboard.ErrUnknownPanel) {
		return httpx.Error(c, fiber.StatusNotFound, err.Error())
	}
	if err != nil {
		return httpx.Internal(c, "failed to build figure", err)
	}

	opts := render.Options{
		Width:  min(max(fiber.Query[int](c, "width", h.svg.Width), 200), 2400),
		Height: min(max(fiber.Query[int](c, "height", h.svg.Height), 150), 1600),
	}
	var buf bytes.Buffer
	if err := render.SVG(&buf, fig, opts); err != nil {
		return httpx.Internal(c, "failed to render figure", err)
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(buf.Bytes())
}

type optionsResponse struct {
	Rows           int      `json:"rows"`
	SleepMin       float64  `json:"sleep_min"`
	SleepMax       float64  `json:"sleep_max"`
	StressLevels   []int    `json:"stress_levels"`
	ActivityLevels []int    `json:"activity_levels"`
	Variants       []string `json:"variants"`
}

// HandleOptions lists the filter domains derived from the data.
// GET /api/options
func (h *Handlers) HandleOptions(c fiber.Ctx) error {
	t := h.dash.Table()
	r, _ := t.SleepRange()
	return c.JSON(optionsResponse{
		Rows:           t.Len(),
		SleepMin:       r.Lo,
		SleepMax:       r.Hi,
		StressLevels:   t.StressLevels(),
		ActivityLevels: t.ActivityLevels(),
		Variants:       dashboard.VariantNames(),
	})
}

// HandleRows returns filtered records a page at a time.
// GET /api/rows
func (h *Handlers) HandleRows(c fiber.Ctx) error {
	params := ParsePaginationParams(c)
	records := h.dash.Table().Filter(h.query(c)).Records()
	sortRecords(records, params.SortBy, params.SortOrder)
	return c.JSON(Paginate(records, params))
}

var sortKeys = map[string]func(dataset.Record) float64{
	"sample_id":               func(r dataset.Record) float64 { return float64(r.SampleID) },
	"sleep_duration":          func(r dataset.Record) float64 { return r.SleepDuration },
	"quality_of_sleep":        func(r dataset.Record) float64 { return r.QualityOfSleep },
	"stress_level":            func(r dataset.Record) float64 { return float64(r.StressLevel) },
	"physical_activity_level": func(r dataset.Record) float64 { return float64(r.PhysicalActivityLevel) },
}

// sortRecords orders records by column, breaking ties by Sample ID.
func sortRecords(records []dataset.Record, column string, dir SortDirection) {
	key, ok := sortKeys[column]
	if !ok {
		key = sortKeys["sample_id"]
	}
	slices.SortStableFunc(records, func(a, b dataset.Record) int {
		n := cmp.Compare(key(a), key(b))
		if dir == SortDesc {
			n = -n
		}
		if n == 0 {
			return cmp.Compare(a.SampleID, b.SampleID)
		}
		return n
	})
}
