package domain

// Matrix is a dense square matrix indexed by the Hub Index Manager's
// convention: row/col 0 is the depot, 1..H are hubs, H+1.. are customers.
type Matrix [][]float64

// NewMatrix allocates an n x n matrix of zeros.
func NewMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Submatrix extracts the contracted matrix whose [i][j] equals the
// original [indices[i]][indices[j]].
func (m Matrix) Submatrix(indices []int) Matrix {
	out := NewMatrix(len(indices))
	for i, gi := range indices {
		for j, gj := range indices {
			out[i][j] = m[gi][gj]
		}
	}
	return out
}

// Matrices bundles the distance (km) and duration (minutes) matrices that
// describe travel between every pair of indexed locations.
type Matrices struct {
	Distance Matrix
	Duration Matrix
}

// Submatrix extracts both matrices for the given global indices, in the
// same order, producing a self-consistent contracted pair.
func (m Matrices) Submatrix(indices []int) Matrices {
	return Matrices{
		Distance: m.Distance.Submatrix(indices),
		Duration: m.Duration.Submatrix(indices),
	}
}
