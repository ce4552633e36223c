package dashboard

import (
	"strconv"

	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/figure"
)

// Component kinds in the layout tree.
const (
	ComponentPage     = "page"
	ComponentHeading  = "heading"
	ComponentTabs     = "tabs"
	ComponentTab      = "tab"
	ComponentControls = "controls"
	ComponentControl  = "control"
	ComponentGraph    = "graph"
)

const rangeStep = 0.5

// Component is a node of the page's widget tree.
type Component struct {
	Kind     string      `json:"kind"`
	ID       string      `json:"id,omitempty"`
	Text     string      `json:"text,omitempty"`
	Control  *Control    `json:"control,omitempty"`
	Panel    *Panel      `json:"panel,omitempty"`
	Children []Component `json:"children,omitempty"`
}

// Control is a widget with its options resolved against the data.
type Control struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Column      string    `json:"column"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Min         float64   `json:"min"`
	Max         float64   `json:"max"`
	Step        float64   `json:"step,omitempty"`
	Value       []float64 `json:"value,omitempty"`
	Marks       []Mark    `json:"marks,omitempty"`
	Options     []Choice  `json:"options,omitempty"`
}

// Multi reports whether the control selects a set of categories.
func (c Control) Multi() bool {
	return c.Kind == KindChecklist || c.Kind == KindDropdown
}

// allows reports whether v is one of the control's categories.
func (c Control) allows(v int) bool {
	for _, o := range c.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Mark labels a slider position.
type Mark struct {
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// Choice is one selectable category.
type Choice struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Panel is a chart placeholder on the page.
type Panel struct {
	ID    string `json:"id"`
	Chart string `json:"chart"`
	Title string `json:"title"`
	Kind  string `json:"kind"`
}

func buildControl(def ControlDef, t *dataset.Table) Control {
	c := Control{
		ID:          def.ID,
		Kind:        def.Kind,
		Column:      def.Column,
		Label:       def.Label,
		Placeholder: def.Placeholder,
	}
	if def.Kind == KindRange {
		c.Step = rangeStep
		r, ok := t.SleepRange()
		if !ok {
			return c
		}
		c.Min, c.Max = r.Lo, r.Hi
		c.Value = []float64{r.Lo, r.Hi}
		for i := int(r.Lo); i <= int(r.Hi); i++ {
			c.Marks = append(c.Marks, Mark{Value: float64(i), Label: strconv.Itoa(i)})
		}
		return c
	}

	levels := t.StressLevels()
	if def.Column == dataset.ColActivityLevel {
		levels = t.ActivityLevels()
	}
	for _, l := range levels {
		c.Options = append(c.Options, Choice{Label: strconv.Itoa(l), Value: l})
	}
	return c
}

func buildPanel(def PanelDef) Panel {
	chart, _ := figure.Lookup(def.Chart)
	return Panel{ID: def.ID, Chart: chart.Key, Title: chart.Title, Kind: chart.Kind}
}

// buildLayout turns a validated variant into its component tree.
func buildLayout(v Variant, controls map[string]Control, panels map[string]Panel) Component {
	page := Component{Kind: ComponentPage, ID: v.Name, Text: v.Title}
	page.Children = append(page.Children, Component{Kind: ComponentHeading, Text: v.Heading})

	group := func(ids []string) Component {
		g := Component{Kind: ComponentControls}
		for _, id := range ids {
			c := controls[id]
			g.Children = append(g.Children, Component{Kind: ComponentControl, ID: id, Control: &c})
		}
		return g
	}
	graph := func(id string) Component {
		p := panels[id]
		return Component{Kind: ComponentGraph, ID: id, Panel: &p}
	}

	if len(v.Tabs) == 0 {
		ids := make([]string, len(v.Controls))
		for i, c := range v.Controls {
			ids[i] = c.ID
		}
		if len(ids) > 0 {
			page.Children = append(page.Children, group(ids))
		}
		for _, p := range v.Panels {
			page.Children = append(page.Children, graph(p.ID))
		}
		return page
	}

	tabs := Component{Kind: ComponentTabs}
	for _, t := range v.Tabs {
		tab := Component{Kind: ComponentTab, Text: t.Label}
		if len(t.Controls) > 0 {
			tab.Children = append(tab.Children, group(t.Controls))
		}
		for _, id := range t.Panels {
			tab.Children = append(tab.Children, graph(id))
		}
		tabs.Children = append(tabs.Children, tab)
	}
	page.Children = append(page.Children, tabs)
	return page
}

// Walk visits c and its descendants depth first.
func (c Component) Walk(fn func(Component)) {
	fn(c)
	for _, child := range c.Children {
		child.Walk(fn)
	}
}
