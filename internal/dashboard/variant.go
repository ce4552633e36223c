package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/figure"
)

//go:embed variants/*.yaml
var variantFS embed.FS

// DefaultVariant is served when no variant is configured.
const DefaultVariant = "story"

// Control kinds.
const (
	KindRange     = "range"
	KindChecklist = "checklist"
	KindDropdown  = "dropdown"
)

var (
	ErrUnknownVariant  = errors.New("unknown variant")
	ErrInvalidVariant  = errors.New("invalid variant")
	ErrUnknownControl  = errors.New("unknown control")
	ErrUnknownPanel    = errors.New("unknown panel")
	ErrDuplicateOutput = errors.New("output already claimed")
)

// Variant is one declarative dashboard page.
type Variant struct {
	Name        string        `yaml:"name" json:"name"`
	Title       string        `yaml:"title" json:"title"`
	Heading     string        `yaml:"heading" json:"heading"`
	Description string        `yaml:"description" json:"description,omitempty"`
	Controls    []ControlDef  `yaml:"controls" json:"controls"`
	Tabs        []TabDef      `yaml:"tabs" json:"tabs,omitempty"`
	Panels      []PanelDef    `yaml:"panels" json:"panels"`
	Callbacks   []CallbackDef `yaml:"callbacks" json:"callbacks"`
}

// ControlDef binds a widget to a column.
type ControlDef struct {
	ID          string `yaml:"id" json:"id"`
	Kind        string `yaml:"kind" json:"kind"`
	Column      string `yaml:"column" json:"column"`
	Label       string `yaml:"label" json:"label"`
	Placeholder string `yaml:"placeholder" json:"placeholder,omitempty"`
}

// TabDef groups controls and panels under one tab.
type TabDef struct {
	Label    string   `yaml:"label" json:"label"`
	Controls []string `yaml:"controls" json:"controls"`
	Panels   []string `yaml:"panels" json:"panels"`
}

// PanelDef places a catalog chart on the page.
type PanelDef struct {
	ID    string `yaml:"id" json:"id"`
	Chart string `yaml:"chart" json:"chart"`
}

// CallbackDef recomputes Outputs whenever one of Inputs changes.
type CallbackDef struct {
	ID      string   `yaml:"id" json:"id"`
	Inputs  []string `yaml:"inputs" json:"inputs"`
	Outputs []string `yaml:"outputs" json:"outputs"`
}

// Variants returns every embedded variant sorted by name.
func Variants() ([]Variant, error) {
	entries, err := fs.ReadDir(variantFS, "variants")
	if err != nil {
		return nil, fmt.Errorf("read variants: %w", err)
	}
	out := make([]Variant, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		v, err := readVariant(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b Variant) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// VariantNames lists the embedded variant names.
func VariantNames() []string {
	vs, err := Variants()
	if err != nil {
		return nil
	}
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return names
}

// LoadVariant returns the embedded variant called name.
func LoadVariant(name string) (Variant, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultVariant
	}
	v, err := readVariant(name + ".yaml")
	if errors.Is(err, fs.ErrNotExist) {
		return Variant{}, fmt.Errorf("%w: %q (available: %s)", ErrUnknownVariant, name, strings.Join(VariantNames(), ", "))
	}
	return v, err
}

func readVariant(file string) (Variant, error) {
	raw, err := variantFS.ReadFile("variants/" + file)
	if err != nil {
		return Variant{}, err
	}
	v, err := ParseVariant(raw)
	if err != nil {
		return Variant{}, fmt.Errorf("variant %s: %w", file, err)
	}
	return v, nil
}

// ParseVariant decodes and validates a YAML variant definition.
func ParseVariant(raw []byte) (Variant, error) {
	var v Variant
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&v); err != nil {
		return Variant{}, fmt.Errorf("%w: %v", ErrInvalidVariant, err)
	}
	if err := v.validate(); err != nil {
		return Variant{}, err
	}
	return v, nil
}

func (v Variant) validate() error {
	if v.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidVariant)
	}
	if len(v.Panels) == 0 {
		return fmt.Errorf("%w: %s has no panels", ErrInvalidVariant, v.Name)
	}

	controls := make(map[string]bool, len(v.Controls))
	for _, c := range v.Controls {
		if c.ID == "" || controls[c.ID] {
			return fmt.Errorf("%w: control id %q is empty or repeated", ErrInvalidVariant, c.ID)
		}
		controls[c.ID] = true
		if err := c.validate(); err != nil {
			return err
		}
	}

	panels := make(map[string]bool, len(v.Panels))
	for _, p := range v.Panels {
		if p.ID == "" || panels[p.ID] {
			return fmt.Errorf("%w: panel id %q is empty or repeated", ErrInvalidVariant, p.ID)
		}
		panels[p.ID] = true
		if _, ok := figure.Lookup(p.Chart); !ok {
			return fmt.Errorf("panel %s: %w: %q", p.ID, figure.ErrUnknownChart, p.Chart)
		}
	}

	for _, tab := range v.Tabs {
		for _, id := range tab.Controls {
			if !controls[id] {
				return fmt.Errorf("tab %q: %w: %q", tab.Label, ErrUnknownControl, id)
			}
		}
		for _, id := range tab.Panels {
			if !panels[id] {
				return fmt.Errorf("tab %q: %w: %q", tab.Label, ErrUnknownPanel, id)
			}
		}
	}
	return nil
}

func (c ControlDef) validate() error {
	switch c.Kind {
	case KindRange:
		if c.Column != dataset.ColSleepDuration {
			return fmt.Errorf("%w: range control %s must bind %q", ErrInvalidVariant, c.ID, dataset.ColSleepDuration)
		}
	case KindChecklist, KindDropdown:
		if c.Column != dataset.ColStressLevel && c.Column != dataset.ColActivityLevel {
			return fmt.Errorf("%w: %s control %s cannot bind %q", ErrInvalidVariant, c.Kind, c.ID, c.Column)
		}
	default:
		return fmt.Errorf("%w: control %s has unknown kind %q", ErrInvalidVariant, c.ID, c.Kind)
	}
	return nil
}
