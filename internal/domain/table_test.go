package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int) []time.Time {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func TestNewTimeSeriesTable(t *testing.T) {
	table, err := NewTimeSeriesTable(days(3),
		Column{Name: "A", Values: []float64{1, 2, 3}},
		Column{Name: "B", Values: []float64{4, 5, 6}},
	)
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 2, table.NumColumns())
	assert.Equal(t, []string{"A", "B"}, table.Names())
	assert.True(t, table.Has("B"))
	assert.False(t, table.Has("C"))

	b, ok := table.Column("B")
	require.True(t, ok)
	assert.Equal(t, []float64{4, 5, 6}, b)
}

func TestNewTimeSeriesTable_Rejects(t *testing.T) {
	dates := days(2)
	tests := []struct {
		name    string
		dates   []time.Time
		columns []Column
	}{
		{"length mismatch", dates, []Column{{Name: "A", Values: []float64{1}}}},
		{"duplicate column", dates, []Column{{Name: "A", Values: []float64{1, 2}}, {Name: "A", Values: []float64{1, 2}}}},
		{"unnamed column", dates, []Column{{Values: []float64{1, 2}}}},
		{"duplicate date", []time.Time{dates[0], dates[0]}, []Column{{Name: "A", Values: []float64{1, 2}}}},
		{"decreasing dates", []time.Time{dates[1], dates[0]}, []Column{{Name: "A", Values: []float64{1, 2}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTimeSeriesTable(tt.dates, tt.columns...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
		})
	}
}

func TestNewTimeSeriesTable_CopiesInput(t *testing.T) {
	values := []float64{1, 2}
	table, err := NewTimeSeriesTable(days(2), Column{Name: "A", Values: values})
	require.NoError(t, err)

	values[0] = 99
	a, _ := table.Column("A")
	assert.Equal(t, 1.0, a[0])
}

func TestDropIncomplete(t *testing.T) {
	table, err := NewTimeSeriesTable(days(4),
		Column{Name: "A", Values: []float64{1, math.NaN(), 3, 4}},
		Column{Name: "B", Values: []float64{1, 2, math.Inf(1), 4}},
	)
	require.NoError(t, err)

	clean := table.DropIncomplete()

	assert.Equal(t, 2, clean.Len())
	assert.Equal(t, []time.Time{table.Dates()[0], table.Dates()[3]}, clean.Dates())
	a, _ := clean.Column("A")
	assert.Equal(t, []float64{1, 4}, a)
	assert.Equal(t, 4, table.Len(), "source table is untouched")
}

func TestNilTable(t *testing.T) {
	var table *TimeSeriesTable
	assert.Equal(t, 0, table.Len())
	assert.True(t, table.Empty())
	assert.Nil(t, table.Names())
	_, ok := table.Column("A")
	assert.False(t, ok)
}

func TestAlignDates(t *testing.T) {
	d := days(5)
	a, err := NewTimeSeriesTable([]time.Time{d[0], d[1], d[3], d[4]}, Column{Name: "A", Values: []float64{1, 2, 3, 4}})
	require.NoError(t, err)
	b, err := NewTimeSeriesTable([]time.Time{d[1], d[2], d[3]}, Column{Name: "F", Values: []float64{5, 6, 7}})
	require.NoError(t, err)

	ai, bi := AlignDates(a, b)
	assert.Equal(t, []int{1, 2}, ai)
	assert.Equal(t, []int{0, 2}, bi)
}

func TestMatrix(t *testing.T) {
	table, err := NewTimeSeriesTable(days(2),
		Column{Name: "A", Values: []float64{1, 2}},
		Column{Name: "B", Values: []float64{3, 4}},
	)
	require.NoError(t, err)

	m := table.Matrix()
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, m.At(0, 1))
	assert.Equal(t, 2.0, m.At(1, 0))
}

func TestInnerJoin(t *testing.T) {
	d := days(4)
	a := ReturnSeries{Name: "p", Dates: d[:3], Values: []float64{0.1, 0.2, 0.3}}
	b := ReturnSeries{Name: "b", Dates: d[1:], Values: []float64{1, 2, 3}}

	dates, av, bv := InnerJoin(a, b)
	assert.Equal(t, d[1:3], dates)
	assert.Equal(t, []float64{0.2, 0.3}, av)
	assert.Equal(t, []float64{1, 2}, bv)

	dates, av, _ = InnerJoin(a, ReturnSeries{})
	assert.Empty(t, dates)
	assert.Empty(t, av)
}
