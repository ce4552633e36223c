package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/figure"
)

// Update is a control change sent by the page. An empty Changed runs every
// callback, which is what the page does on first load.
type Update struct {
	Changed string                     `json:"changed,omitempty"`
	Values  map[string]json.RawMessage `json:"values"`
}

// Result maps output panel ids to their recomputed figures.
type Result struct {
	Figures map[string]figure.Figure `json:"figures"`
}

// Handler computes one figure per output, in output order.
type Handler func(in Values) []figure.Figure

// Callback is an explicit input/output registration.
type Callback struct {
	ID      string
	Inputs  []string
	Outputs []string
	Handler Handler
}

// Observer receives timing for every callback run.
type Observer interface {
	ObserveCallback(variant, callback string, elapsed time.Duration)
	ObserveRows(variant string, rows int)
}

type nopObserver struct{}

func (nopObserver) ObserveCallback(string, string, time.Duration) {}
func (nopObserver) ObserveRows(string, int)                       {}

// Registry dispatches control updates to the callbacks watching them.
// Registration happens before serving; Dispatch is safe for concurrent use
// afterwards.
type Registry struct {
	variant   string
	controls  map[string]Control
	panels    map[string]bool
	callbacks []Callback
	owners    map[string]string
	observer  Observer
}

// NewRegistry creates an empty registry over a fixed set of controls and
// output panels.
func NewRegistry(variant string, controls []Control, panels []string, observer Observer) *Registry {
	if observer == nil {
		observer = nopObserver{}
	}
	r := &Registry{
		variant:  variant,
		controls: make(map[string]Control, len(controls)),
		panels:   make(map[string]bool, len(panels)),
		owners:   map[string]string{},
		observer: observer,
	}
	for _, c := range controls {
		r.controls[c.ID] = c
	}
	for _, p := range panels {
		r.panels[p] = true
	}
	return r
}

// Register adds cb. Every input must be a known control and every output a
// known panel that no other callback has claimed.
func (r *Registry) Register(cb Callback) error {
	if cb.ID == "" || cb.Handler == nil || len(cb.Outputs) == 0 {
		return fmt.Errorf("callback %q: id, handler and outputs are required", cb.ID)
	}
	for _, existing := range r.callbacks {
		if existing.ID == cb.ID {
			return fmt.Errorf("callback %q registered twice", cb.ID)
		}
	}
	for _, in := range cb.Inputs {
		if _, ok := r.controls[in]; !ok {
			return fmt.Errorf("callback %s: %w: %q", cb.ID, ErrUnknownControl, in)
		}
	}
	seen := map[string]bool{}
	for _, out := range cb.Outputs {
		if !r.panels[out] {
			return fmt.Errorf("callback %s: %w: %q", cb.ID, ErrUnknownPanel, out)
		}
		if owner, ok := r.owners[out]; ok || seen[out] {
			if owner == "" {
				owner = cb.ID
			}
			return fmt.Errorf("callback %s: %w: %q by %s", cb.ID, ErrDuplicateOutput, out, owner)
		}
		seen[out] = true
	}
	for _, out := range cb.Outputs {
		r.owners[out] = cb.ID
	}
	r.callbacks = append(r.callbacks, cb)
	return nil
}

// Callbacks returns the registered callbacks in registration order.
func (r *Registry) Callbacks() []Callback {
	return slices.Clone(r.callbacks)
}

// Dispatch runs the callbacks that watch u.Changed, or all of them when
// u.Changed is empty.
func (r *Registry) Dispatch(ctx context.Context, u Update) (Result, error) {
	if u.Changed != "" {
		if _, ok := r.controls[u.Changed]; !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownControl, u.Changed)
		}
	}

	in := Values{raw: u.Values, controls: r.controls}
	res := Result{Figures: map[string]figure.Figure{}}
	for _, cb := range r.callbacks {
		if u.Changed != "" && !slices.Contains(cb.Inputs, u.Changed) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		start := time.Now()
		figs := cb.Handler(in)
		r.observer.ObserveCallback(r.variant, cb.ID, time.Since(start))
		if len(figs) != len(cb.Outputs) {
			return Result{}, fmt.Errorf("callback %s returned %d figures for %d outputs", cb.ID, len(figs), len(cb.Outputs))
		}
		for i, out := range cb.Outputs {
			res.Figures[out] = figs[i]
		}
	}
	return res, nil
}

// Values gives typed access to raw control values. Malformed values read as
// absent, which the filter treats as no constraint.
type Values struct {
	raw      map[string]json.RawMessage
	controls map[string]Control
}

// Interval reads a range control as [lo, hi]. It reports false unless the
// value is exactly two finite numbers with lo <= hi.
func (v Values) Interval(id string) (dataset.Interval, bool) {
	raw, ok := v.raw[id]
	if !ok {
		return dataset.Interval{}, false
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) != 2 {
		return dataset.Interval{}, false
	}
	lo, okLo := parseNumber(parts[0])
	hi, okHi := parseNumber(parts[1])
	iv := dataset.Interval{Lo: lo, Hi: hi}
	if !okLo || !okHi || !iv.Valid() {
		return dataset.Interval{}, false
	}
	return iv, true
}

// Selection reads a multi-select control. It reports false for an empty
// selection or when any element is not one of the control's categories.
func (v Values) Selection(id string) ([]int, bool) {
	raw, ok := v.raw[id]
	if !ok {
		return nil, false
	}
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
		return nil, false
	}
	elems := make([]string, len(parts))
	for i, p := range parts {
		elems[i] = string(p)
	}
	return selection(v.controls[id], elems)
}

// Predicates combines the given input controls into filter predicates.
func (v Values) Predicates(inputs []string) dataset.Predicates {
	var p dataset.Predicates
	for _, id := range inputs {
		c, ok := v.controls[id]
		if !ok {
			continue
		}
		switch {
		case c.Kind == KindRange:
			if iv, ok := v.Interval(id); ok {
				p.Sleep = &iv
			}
		case c.Column == dataset.ColStressLevel:
			if sel, ok := v.Selection(id); ok {
				p.Stress = sel
			}
		case c.Column == dataset.ColActivityLevel:
			if sel, ok := v.Selection(id); ok {
				p.Activity = sel
			}
		}
	}
	return p
}

// parseNumber accepts a JSON number or a JSON string holding one.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if strings.TrimSpace(string(raw)) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	return parseFloat(s)
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// selection validates category values given as JSON or query text.
func selection(c Control, elems []string) ([]int, bool) {
	out := make([]int, 0, len(elems))
	for _, e := range elems {
		f, ok := parseNumber(json.RawMessage(e))
		if !ok {
			f, ok = parseFloat(e)
		}
		if !ok || f != math.Trunc(f) || !c.allows(int(f)) {
			return nil, false
		}
		out = append(out, int(f))
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
