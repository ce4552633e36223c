// Package dataset loads the sleep and lifestyle survey into an immutable,
// in-memory table and filters it.
package dataset

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column names used by the dashboards. Header cells are trimmed before they
// are matched against these.
const (
	ColSleepDuration = "Sleep Duration"
	ColQuality       = "Quality of Sleep"
	ColStressLevel   = "Stress Level"
	ColActivityLevel = "Physical Activity Level"
	ColSampleID      = "Sample ID"
)

// RequiredColumns must be present in every input file.
var RequiredColumns = []string{ColSleepDuration, ColQuality, ColStressLevel, ColActivityLevel}

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrInvalidValue is returned when a required column holds a non-numeric cell.
	ErrInvalidValue = errors.New("invalid value")
	// ErrNoRows is returned for an empty file or one with only a header row.
	ErrNoRows = errors.New("dataset has no rows")
)

// Record is one survey row.
type Record struct {
	SampleID              int     `json:"sample_id"`
	SleepDuration         float64 `json:"sleep_duration"`
	QualityOfSleep        float64 `json:"quality_of_sleep"`
	StressLevel           int     `json:"stress_level"`
	PhysicalActivityLevel int     `json:"physical_activity_level"`

	numbers []float64 // aligned with schema.numeric
	labels  []string  // aligned with schema.text
}

type schema struct {
	columns []string // trimmed, file order, plus Sample ID
	numeric []string
	text    []string
}

// Table is a read-only view over survey records. Tables are never mutated
// after construction; Filter returns a new Table.
type Table struct {
	schema  *schema
	records []Record
}

// Load reads the CSV file at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return t, nil
}

// Read parses CSV content with a header row.
func Read(r io.Reader) (*Table, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
	)
	if df.Err != nil {
		// gota reports both an empty file and a lone header this way.
		if strings.Contains(df.Err.Error(), "empty DataFrame") {
			return nil, ErrNoRows
		}
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}
	return fromDataFrame(df)
}

func fromDataFrame(df dataframe.DataFrame) (*Table, error) {
	rawNames := df.Names()
	types := df.Types()
	byName := make(map[string]series.Series, len(rawNames))
	sc := &schema{}

	for i, raw := range rawNames {
		name := strings.TrimSpace(raw)
		if name == "" || name == ColSampleID {
			continue
		}
		if _, dup := byName[name]; dup {
			continue
		}
		col := df.Col(raw)
		byName[name] = col
		sc.columns = append(sc.columns, name)
		switch types[i] {
		case series.Int, series.Float:
			sc.numeric = append(sc.numeric, name)
		default:
			sc.text = append(sc.text, name)
		}
	}

	for _, required := range RequiredColumns {
		if _, ok := byName[required]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, required)
		}
	}
	sc.columns = append(sc.columns, ColSampleID)

	n := df.Nrow()
	numbers := make([][]float64, len(sc.numeric))
	for i, name := range sc.numeric {
		numbers[i] = byName[name].Float()
	}
	labels := make([][]string, len(sc.text))
	for i, name := range sc.text {
		labels[i] = byName[name].Records()
	}

	sleep, err := requiredFloats(byName, ColSleepDuration)
	if err != nil {
		return nil, err
	}
	quality, err := requiredFloats(byName, ColQuality)
	if err != nil {
		return nil, err
	}
	stress, err := requiredInts(byName, ColStressLevel)
	if err != nil {
		return nil, err
	}
	activity, err := requiredInts(byName, ColActivityLevel)
	if err != nil {
		return nil, err
	}

	records := make([]Record, n)
	for row := 0; row < n; row++ {
		rec := Record{
			SampleID:              row + 1,
			SleepDuration:         sleep[row],
			QualityOfSleep:        quality[row],
			StressLevel:           stress[row],
			PhysicalActivityLevel: activity[row],
			numbers:               make([]float64, len(numbers)),
			labels:                make([]string, len(labels)),
		}
		for i := range numbers {
			rec.numbers[i] = numbers[i][row]
		}
		for i := range labels {
			rec.labels[i] = labels[i][row]
		}
		records[row] = rec
	}

	return &Table{schema: sc, records: records}, nil
}

func requiredFloats(cols map[string]series.Series, name string) ([]float64, error) {
	values := cols[name].Float()
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w in column %q at row %d", ErrInvalidValue, name, i+1)
		}
	}
	return values, nil
}

func requiredInts(cols map[string]series.Series, name string) ([]int, error) {
	values, err := requiredFloats(cols, name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(values))
	for i, v := range values {
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("%w in column %q at row %d: %v is not a whole number", ErrInvalidValue, name, i+1, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of the rows in source order.
func (t *Table) Records() []Record {
	return slices.Clone(t.records)
}

// Record returns the i-th row.
func (t *Table) Record(i int) Record {
	return t.records[i]
}

// Columns returns the trimmed column names in file order followed by Sample ID.
func (t *Table) Columns() []string {
	return slices.Clone(t.schema.columns)
}

// NumericColumns returns the columns the CSV reader typed as numbers.
func (t *Table) NumericColumns() []string {
	return slices.Clone(t.schema.numeric)
}

// Numeric returns the values of a numeric column, or false if the column is
// unknown or not numeric. Sample ID is always available.
func (t *Table) Numeric(column string) ([]float64, bool) {
	if column == ColSampleID {
		out := make([]float64, len(t.records))
		for i, r := range t.records {
			out[i] = float64(r.SampleID)
		}
		return out, true
	}
	idx := slices.Index(t.schema.numeric, column)
	if idx < 0 {
		return nil, false
	}
	out := make([]float64, len(t.records))
	for i, r := range t.records {
		out[i] = r.numbers[idx]
	}
	return out, true
}

// Text returns the values of a non-numeric column.
func (t *Table) Text(column string) ([]string, bool) {
	idx := slices.Index(t.schema.text, column)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.records))
	for i, r := range t.records {
		out[i] = r.labels[idx]
	}
	return out, true
}

func (t *Table) derive(records []Record) *Table {
	return &Table{schema: t.schema, records: records}
}
