package domain

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Column is one named numeric series of a TimeSeriesTable. NaN marks a
// missing value.
type Column struct {
	Name   string
	Values []float64
}

// TimeSeriesTable is a date-indexed table of named float columns. Dates are
// strictly increasing and column order is preserved. Tables are immutable
// once built; accessors return shared slices that callers must not modify.
type TimeSeriesTable struct {
	dates   []time.Time
	columns []Column
	index   map[string]int
}

// NewTimeSeriesTable validates and builds a table. Every column must have
// one value per date, names must be unique and non-empty, and dates must be
// strictly increasing.
func NewTimeSeriesTable(dates []time.Time, columns ...Column) (*TimeSeriesTable, error) {
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: dates must be strictly increasing (row %d: %s after %s)",
				ErrInvalidParameter, i, dates[i].Format(time.DateOnly), dates[i-1].Format(time.DateOnly))
		}
	}

	index := make(map[string]int, len(columns))
	cols := make([]Column, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrInvalidParameter, i)
		}
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidParameter, c.Name)
		}
		if len(c.Values) != len(dates) {
			return nil, fmt.Errorf("%w: column %q has %d values for %d dates",
				ErrInvalidParameter, c.Name, len(c.Values), len(dates))
		}
		index[c.Name] = i
		cols[i] = Column{Name: c.Name, Values: append([]float64(nil), c.Values...)}
	}

	return &TimeSeriesTable{
		dates:   append([]time.Time(nil), dates...),
		columns: cols,
		index:   index,
	}, nil
}

// Len returns the number of rows. A nil table has no rows.
func (t *TimeSeriesTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.dates)
}

// NumColumns returns the number of columns.
func (t *TimeSeriesTable) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.columns)
}

// Empty reports whether the table has no rows or no columns.
func (t *TimeSeriesTable) Empty() bool {
	return t.Len() == 0 || t.NumColumns() == 0
}

// Dates returns the date index.
func (t *TimeSeriesTable) Dates() []time.Time {
	if t == nil {
		return nil
	}
	return t.dates
}

// Names returns the column names in order.
func (t *TimeSeriesTable) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the values of the named column.
func (t *TimeSeriesTable) Column(name string) ([]float64, bool) {
	if t == nil {
		return nil, false
	}
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i].Values, true
}

// ColumnAt returns the i-th column.
func (t *TimeSeriesTable) ColumnAt(i int) Column {
	return t.columns[i]
}

// Has reports whether the table has the named column.
func (t *TimeSeriesTable) Has(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// Series returns the named column as a ReturnSeries sharing the date index.
func (t *TimeSeriesTable) Series(name string) (ReturnSeries, bool) {
	values, ok := t.Column(name)
	if !ok {
		return ReturnSeries{}, false
	}
	return ReturnSeries{Name: name, Dates: t.dates, Values: values}, true
}

// Select keeps only the rows for which keep returns true.
func (t *TimeSeriesTable) Select(keep func(row int) bool) *TimeSeriesTable {
	rows := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	return t.rows(rows)
}

// DropIncomplete removes every row holding a NaN or infinite value.
func (t *TimeSeriesTable) DropIncomplete() *TimeSeriesTable {
	return t.Select(func(row int) bool {
		for _, c := range t.columns {
			v := c.Values[row]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	})
}

func (t *TimeSeriesTable) rows(rows []int) *TimeSeriesTable {
	out := &TimeSeriesTable{
		dates:   make([]time.Time, len(rows)),
		columns: make([]Column, t.NumColumns()),
		index:   t.index,
	}
	for j, r := range rows {
		out.dates[j] = t.dates[r]
	}
	for i, c := range t.columns {
		values := make([]float64, len(rows))
		for j, r := range rows {
			values[j] = c.Values[r]
		}
		out.columns[i] = Column{Name: c.Name, Values: values}
	}
	return out
}

// AlignDates returns the row indices of a and b whose dates match, in date
// order. It is the inner join used before any cross-table statistic.
func AlignDates(a, b *TimeSeriesTable) (ai, bi []int) {
	return alignTimes(a.Dates(), b.Dates())
}

// Matrix returns the table as a rows x columns dense matrix.
func (t *TimeSeriesTable) Matrix() *mat.Dense {
	if t.Empty() {
		return nil
	}
	m := mat.NewDense(t.Len(), t.NumColumns(), nil)
	for j, c := range t.columns {
		m.SetCol(j, c.Values)
	}
	return m
}

func alignTimes(a, b []time.Time) (ai, bi []int) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Equal(b[j]):
			ai = append(ai, i)
			bi = append(bi, j)
			i++
			j++
		case a[i].Before(b[j]):
			i++
		default:
			j++
		}
	}
	return ai, bi
}
