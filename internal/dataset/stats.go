package dataset

import (
	"math"
	"slices"
)

// ColumnSummary describes one numeric column.
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// SleepRange returns the min and max Sleep Duration. ok is false for an
// empty table.
func (t *Table) SleepRange() (Interval, bool) {
	if len(t.records) == 0 {
		return Interval{}, false
	}
	r := Interval{Lo: t.records[0].SleepDuration, Hi: t.records[0].SleepDuration}
	for _, rec := range t.records[1:] {
		r.Lo = min(r.Lo, rec.SleepDuration)
		r.Hi = max(r.Hi, rec.SleepDuration)
	}
	return r, true
}

// StressLevels returns the sorted distinct Stress Level values.
func (t *Table) StressLevels() []int {
	return distinct(t.records, func(r Record) int { return r.StressLevel })
}

// ActivityLevels returns the sorted distinct Physical Activity Level values.
func (t *Table) ActivityLevels() []int {
	return distinct(t.records, func(r Record) int { return r.PhysicalActivityLevel })
}

func distinct(records []Record, key func(Record) int) []int {
	seen := make(map[int]struct{})
	out := make([]int, 0)
	for _, r := range records {
		k := key(r)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Summary returns count, min, max, mean and sample standard deviation for
// every numeric column, skipping NaN cells. Columns without values report
// zeros.
func (t *Table) Summary() []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.schema.numeric))
	for _, col := range t.schema.numeric {
		values, _ := t.Numeric(col)
		out = append(out, summarize(col, values))
	}
	return out
}

func summarize(column string, values []float64) ColumnSummary {
	s := ColumnSummary{Column: column}
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if s.Count == 0 {
			s.Min, s.Max = v, v
		}
		s.Count++
		sum += v
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
	}
	if s.Count == 0 {
		return s
	}
	s.Mean = sum / float64(s.Count)
	if s.Count > 1 {
		var sq float64
		for _, v := range values {
			if math.IsNaN(v) {
				continue
			}
			sq += (v - s.Mean) * (v - s.Mean)
		}
		s.Std = math.Sqrt(sq / float64(s.Count-1))
	}
	return s
}
