package figure

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Fit is an ordinary least squares line y = Slope*x + Intercept.
type Fit struct {
	Slope     float64
	Intercept float64
	R2        float64
	N         int
}

// Predict evaluates the fitted line at x.
func (f Fit) Predict(x float64) float64 {
	return f.Slope*x + f.Intercept
}

// minVariance is the x spread below which a fit is treated as vertical.
const minVariance = 1e-12

// OLS fits a least squares line through the points. ok is false when fewer
// than two points are given or every x is identical.
func OLS(xs, ys []float64) (Fit, bool) {
	n := len(xs)
	if n < 2 || len(ys) != n || stat.Variance(xs, nil) < minVariance {
		return Fit{}, false
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	if math.IsNaN(r2) {
		// Constant y: the line explains nothing and leaves nothing unexplained.
		r2 = 0
	}
	return Fit{Slope: slope, Intercept: intercept, R2: r2, N: n}, true
}

// Pearson returns the correlation coefficient of the pairs where both values
// are present. ok is false when it is undefined.
func Pearson(xs, ys []float64) (float64, bool) {
	var px, py []float64
	for i := range xs {
		if i >= len(ys) || math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, ys[i])
	}
	if len(px) < 2 {
		return 0, false
	}

	r := stat.Correlation(px, py, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return max(-1, min(1, r)), true
}

// Bin is one histogram bucket covering [Lo, Hi).
type Bin struct {
	Lo    float64
	Hi    float64
	Count int
}

// Histogram splits values into n equal-width bins spanning their range. The
// last bin is closed so the maximum is counted. Empty input yields no bins.
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []Bin{{Lo: lo - 0.5, Hi: hi + 0.5, Count: len(values)}}
	}

	edges := floats.Span(make([]float64, n+1), lo, hi)
	dividers := slices.Clone(edges)
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lo: edges[i], Hi: edges[i+1], Count: int(counts[i])}
	}
	return bins
}

// Quartiles returns the first quartile, median and third quartile the way
// plotly's "linear" quartile method computes them. ok is false for empty
// input.
func Quartiles(values []float64) (q1, median, q3 float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, 0, false
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75), true
}

// quantile interpolates between closest ranks (Hyndman and Fan type 7).
// gonum's LinInterp is type 4, so p is remapped onto its scale first.
func quantile(sorted []float64, p float64) float64 {
	n := float64(len(sorted))
	return stat.Quantile(((n-1)*p+1)/n, stat.LinInterp, sorted, nil)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return stat.Mean(values, nil)
}

func bounds(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return 0, 0, false
	}
	return floats.Min(values), floats.Max(values), true
}

// padded widens [lo, hi] by 5% on each side so edge points are not clipped.
func padded(lo, hi float64) []float64 {
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	return []float64{lo - pad, hi + pad}
}
