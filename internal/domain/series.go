package domain

import "time"

// ReturnSeries is a date-indexed sequence of periodic simple returns for
// one asset, factor, benchmark or portfolio.
type ReturnSeries struct {
	Name   string      `json:"name"`
	Dates  []time.Time `json:"dates"`
	Values []float64   `json:"values"`
}

// Len returns the number of observations.
func (s ReturnSeries) Len() int {
	return len(s.Values)
}

// Empty reports whether the series has no observations.
func (s ReturnSeries) Empty() bool {
	return len(s.Values) == 0
}

// InnerJoin aligns two series on their common dates.
func InnerJoin(a, b ReturnSeries) (dates []time.Time, av, bv []float64) {
	ai, bi := alignTimes(a.Dates, b.Dates)
	dates = make([]time.Time, len(ai))
	av = make([]float64, len(ai))
	bv = make([]float64, len(ai))
	for k := range ai {
		dates[k] = a.Dates[ai[k]]
		av[k] = a.Values[ai[k]]
		bv[k] = b.Values[bi[k]]
	}
	return dates, av, bv
}

// Point is one dated value of a series, used for JSON time series output.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Points flattens the series into dated points.
func (s ReturnSeries) Points() []Point {
	points := make([]Point, len(s.Values))
	for i, v := range s.Values {
		points[i] = Point{Date: s.Dates[i], Value: v}
	}
	return points
}
