package domain

import "gonum.org/v1/gonum/mat"

// LabeledMatrix is a symmetric matrix whose rows and columns are named,
// used for covariance and correlation structures.
type LabeledMatrix struct {
	Labels []string
	Data   *mat.SymDense
}

// Index returns the position of label, or -1.
func (m LabeledMatrix) Index(label string) int {
	for i, l := range m.Labels {
		if l == label {
			return i
		}
	}
	return -1
}

// At returns the entry for the labelled pair.
func (m LabeledMatrix) At(row, col string) (float64, bool) {
	i, j := m.Index(row), m.Index(col)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Data.At(i, j), true
}

// ToMap renders the matrix as nested maps keyed by label.
func (m LabeledMatrix) ToMap() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(m.Labels))
	for i, row := range m.Labels {
		inner := make(map[string]float64, len(m.Labels))
		for j, col := range m.Labels {
			inner[col] = m.Data.At(i, j)
		}
		out[row] = inner
	}
	return out
}

// WeightVector aligns weights to the matrix labels; missing labels get 0.
func (m LabeledMatrix) WeightVector(weights WeightMap) *mat.VecDense {
	w := mat.NewVecDense(len(m.Labels), nil)
	for i, l := range m.Labels {
		w.SetVec(i, weights[l])
	}
	return w
}
