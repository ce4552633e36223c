package handlers

import (
	"bytes"
	"encoding/json"
	"html/template"

	"github.com/gofiber/fiber/v3"

	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/httpx"
)

var templateFuncs = template.FuncMap{
	"json": func(v any) (template.JS, error) {
		raw, err := json.Marshal(v)
		return template.JS(raw), err
	},
}

type pageData struct {
	Title       string
	Description string
	Variant     string
	Version     string
	Layout      dashboard.Component
	Callbacks   []dashboard.CallbackDef
}

// HandlePage renders the dashboard page for the configured variant.
func (h *Handlers) HandlePage(c fiber.Ctx) error {
	v := h.dash.Variant()
	data := pageData{
		Title:       v.Title,
		Description: v.Description,
		Variant:     v.Name,
		Version:     h.version,
		Layout:      h.dash.Layout(),
		Callbacks:   v.Callbacks,
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		return httpx.Internal(c, "failed to render page", err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// HandleScript serves the page script.
func (h *Handlers) HandleScript(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "application/javascript; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(h.assets.Script)
}

// HandleStyle serves the page stylesheet.
func (h *Handlers) HandleStyle(c fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/css; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(h.assets.Style)
}
