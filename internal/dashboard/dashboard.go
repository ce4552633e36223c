// Package dashboard turns a variant definition and the survey table into a
// page layout and a registry of callbacks that recompute its charts.
package dashboard

import (
	"context"
	"fmt"
	"slices"

	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/figure"
)

// Dashboard is the immutable context shared by every request: the table, the
// selected variant, its layout and its callbacks.
type Dashboard struct {
	table    *dataset.Table
	variant  Variant
	layout   Component
	controls map[string]Control
	panels   map[string]Panel
	registry *Registry
	observer Observer
}

// Option configures New.
type Option func(*Dashboard)

// WithObserver reports callback timings and filtered row counts to o.
func WithObserver(o Observer) Option {
	return func(d *Dashboard) {
		if o != nil {
			d.observer = o
		}
	}
}

// New builds the dashboard for the named variant.
func New(table *dataset.Table, variant string, opts ...Option) (*Dashboard, error) {
	v, err := LoadVariant(variant)
	if err != nil {
		return nil, err
	}
	return FromVariant(table, v, opts...)
}

// FromVariant builds a dashboard from an already parsed variant.
func FromVariant(table *dataset.Table, v Variant, opts ...Option) (*Dashboard, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	d := &Dashboard{
		table:    table,
		variant:  v,
		controls: make(map[string]Control, len(v.Controls)),
		panels:   make(map[string]Panel, len(v.Panels)),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}

	controls := make([]Control, 0, len(v.Controls))
	for _, def := range v.Controls {
		c := buildControl(def, table)
		d.controls[c.ID] = c
		controls = append(controls, c)
	}
	panelIDs := make([]string, 0, len(v.Panels))
	for _, def := range v.Panels {
		d.panels[def.ID] = buildPanel(def)
		panelIDs = append(panelIDs, def.ID)
	}
	d.layout = buildLayout(v, d.controls, d.panels)

	d.registry = NewRegistry(v.Name, controls, panelIDs, d.observer)
	for _, cb := range v.Callbacks {
		if err := d.registry.Register(d.filterAndBuild(cb)); err != nil {
			return nil, fmt.Errorf("variant %s: %w", v.Name, err)
		}
	}
	return d, nil
}

// filterAndBuild is the handler every declared callback uses: filter by the
// callback's inputs, then build each output's chart.
func (d *Dashboard) filterAndBuild(def CallbackDef) Callback {
	outputs := slices.Clone(def.Outputs)
	inputs := slices.Clone(def.Inputs)
	return Callback{
		ID:      def.ID,
		Inputs:  inputs,
		Outputs: outputs,
		Handler: func(in Values) []figure.Figure {
			filtered := d.table.Filter(in.Predicates(inputs))
			d.observer.ObserveRows(d.variant.Name, filtered.Len())
			figs := make([]figure.Figure, len(outputs))
			for i, out := range outputs {
				figs[i] = d.build(out, filtered)
			}
			return figs
		},
	}
}

func (d *Dashboard) build(panel string, t *dataset.Table) figure.Figure {
	chart, _ := figure.Lookup(d.panels[panel].Chart)
	return chart.Build(t)
}

// Variant returns the variant definition.
func (d *Dashboard) Variant() Variant { return d.variant }

// Layout returns the page component tree.
func (d *Dashboard) Layout() Component { return d.layout }

// Table returns the unfiltered table.
func (d *Dashboard) Table() *dataset.Table { return d.table }

// Registry returns the callback registry.
func (d *Dashboard) Registry() *Registry { return d.registry }

// Panels lists the variant's panels in page order.
func (d *Dashboard) Panels() []Panel {
	out := make([]Panel, 0, len(d.variant.Panels))
	for _, def := range d.variant.Panels {
		out = append(out, d.panels[def.ID])
	}
	return out
}

// Panel looks up a panel by id.
func (d *Dashboard) Panel(id string) (Panel, bool) {
	p, ok := d.panels[id]
	return p, ok
}

// Controls lists the variant's controls in declaration order.
func (d *Dashboard) Controls() []Control {
	out := make([]Control, 0, len(d.variant.Controls))
	for _, def := range d.variant.Controls {
		out = append(out, d.controls[def.ID])
	}
	return out
}

// Dispatch runs the callbacks affected by u.
func (d *Dashboard) Dispatch(ctx context.Context, u Update) (Result, error) {
	return d.registry.Dispatch(ctx, u)
}

// Figure builds one panel's chart from the table filtered by p.
func (d *Dashboard) Figure(panel string, p dataset.Predicates) (figure.Figure, error) {
	if _, ok := d.panels[panel]; !ok {
		return figure.Figure{}, fmt.Errorf("%w: %q", ErrUnknownPanel, panel)
	}
	filtered := d.table.Filter(p)
	d.observer.ObserveRows(d.variant.Name, filtered.Len())
	return d.build(panel, filtered), nil
}

// Query is an unvalidated filter taken from a URL.
type Query struct {
	SleepMin string
	SleepMax string
	Stress   []string
	Activity []string
}

// Predicates validates q against the table. Like control values, anything
// malformed is dropped rather than rejected.
func (d *Dashboard) Predicates(q Query) dataset.Predicates {
	var p dataset.Predicates
	if q.SleepMin != "" || q.SleepMax != "" {
		// A missing bound is open on that side.
		full, _ := d.table.SleepRange()
		lo, okLo := bound(q.SleepMin, full.Lo)
		hi, okHi := bound(q.SleepMax, full.Hi)
		iv := dataset.Interval{Lo: lo, Hi: hi}
		if okLo && okHi && iv.Valid() {
			p.Sleep = &iv
		}
	}
	if sel, ok := selection(d.category(dataset.ColStressLevel), q.Stress); ok {
		p.Stress = sel
	}
	if sel, ok := selection(d.category(dataset.ColActivityLevel), q.Activity); ok {
		p.Activity = sel
	}
	return p
}

// category returns a synthetic control listing every level of column, so
// query filters are checked against the data rather than the variant.
func (d *Dashboard) category(column string) Control {
	return buildControl(ControlDef{Kind: KindChecklist, Column: column}, d.table)
}

func bound(s string, fallback float64) (float64, bool) {
	if s == "" {
		return fallback, true
	}
	return parseFloat(s)
}
