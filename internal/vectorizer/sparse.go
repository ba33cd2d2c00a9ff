// Package vectorizer turns raw documents into sparse document-term matrices,
// using smoothed IDF weights and L2-normalized rows.
package vectorizer

import (
	"math"
	"sort"

	"github.com/james-bowman/sparse"
)

// SparseVector represents a sparse float64 vector. Indices are kept in
// ascending order.
type SparseVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// fromCounts builds a sorted sparse vector from an index -> value map.
func fromCounts(dim int, counts map[int]float64) SparseVector {
	sv := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
		Dim:     dim,
	}
	for idx := range counts {
		sv.Indices = append(sv.Indices, idx)
	}
	sort.Ints(sv.Indices)
	for _, idx := range sv.Indices {
		sv.Values = append(sv.Values, counts[idx])
	}
	return sv
}

// Nnz returns the number of non-zero entries.
func (sv SparseVector) Nnz() int {
	return len(sv.Indices)
}

// L2Norm returns the L2 norm of the sparse vector.
func (sv SparseVector) L2Norm() float64 {
	var sum float64
	for _, v := range sv.Values {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector to unit L2 norm in place. Empty vectors are left untouched.
func (sv SparseVector) Normalize() {
	norm := sv.L2Norm()
	if norm == 0 {
		return
	}
	for i := range sv.Values {
		sv.Values[i] /= norm
	}
}

// StackCSR stacks row vectors of equal dimension into a CSR matrix
// (len(rows) x dim).
func StackCSR(rows []SparseVector, dim int) *sparse.CSR {
	nnz := 0
	for _, r := range rows {
		nnz += r.Nnz()
	}
	indptr := make([]int, len(rows)+1)
	ind := make([]int, 0, nnz)
	data := make([]float64, 0, nnz)
	for i, r := range rows {
		ind = append(ind, r.Indices...)
		data = append(data, r.Values...)
		indptr[i+1] = len(ind)
	}
	return sparse.NewCSR(len(rows), dim, indptr, ind, data)
}
