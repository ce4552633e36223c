// Package handlers implements the dashboard's HTTP surface.
package handlers

import (
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/render"
)

// Assets are the embedded page template, script and stylesheet.
type Assets struct {
	Template []byte
	Script   []byte
	Style    []byte
}

// Handlers serves one dashboard. It holds no mutable state.
type Handlers struct {
	dash    *dashboard.Dashboard
	page    *template.Template
	assets  Assets
	version string
	svg     render.Options
}

// New parses the page template and binds the handlers to dash.
func New(dash *dashboard.Dashboard, assets Assets, version string) (*Handlers, error) {
	page, err := template.New("dashboard").Funcs(templateFuncs).Parse(string(assets.Template))
	if err != nil {
		return nil, fmt.Errorf("parse dashboard template: %w", err)
	}
	return &Handlers{
		dash:    dash,
		page:    page,
		assets:  assets,
		version: version,
		svg:     render.DefaultOptions,
	}, nil
}

// Routes registers every dashboard route on r.
func (h *Handlers) Routes(r fiber.Router) {
	r.Get("/", h.HandlePage)
	r.Get("/assets/dashboard.js", h.HandleScript)
	r.Get("/assets/dashboard.css", h.HandleStyle)

	r.Get("/health", h.HandleHealth)
	r.Get("/up", h.HandleUp)
	r.Get("/api/version", h.HandleVersion)

	r.Get("/api/layout", h.HandleLayout)
	r.Post("/api/update", h.HandleUpdate)
	r.Get("/api/options", h.HandleOptions)
	r.Get("/api/rows", h.HandleRows)
	r.Get("/api/figures/:panel", h.HandleFigure)
	r.Get("/api/figures/:panel/svg", h.HandleFigureSVG)
}
