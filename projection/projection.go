// Package projection implements sparse random projection for dimensionality
// reduction of document-term matrices.
//
// A projection matrix R (m x n) has entries drawn from {+√s, 0, −√s} with
// probabilities {1/2s, 1−1/s, 1/2s}, where s = 1/density. R is stored as a
// sparse matrix of ±1 signs; the common magnitude √s/√m is kept as Scale so
// that projected rows keep, in expectation, the norm of the input rows.
package projection

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/gonum/stat/sampleuv"
)

var (
	ErrDegenerate        = errors.New("projection: degenerate input, need more than one sample and feature")
	ErrInvalidEpsilon    = errors.New("projection: epsilon must be in (0, 1)")
	ErrInvalidDensity    = errors.New("projection: density must be in (0, 1]")
	ErrInvalidComponents = errors.New("projection: number of components must be positive")
	ErrNotFitted         = errors.New("projection: not fitted")
	ErrDimensionMismatch = errors.New("projection: dimension mismatch")
	ErrEmptyInput        = errors.New("projection: input has no rows")
)

// MinDim returns the smallest safe number of components for projecting
// nSamples points with relative distortion eps: floor(ln(p)/eps²) + 1.
func MinDim(nSamples int, eps float64) (int, error) {
	if nSamples <= 1 {
		return 0, fmt.Errorf("%w: %d samples", ErrDegenerate, nSamples)
	}
	if eps <= 0 || eps >= 1 || math.IsNaN(eps) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEpsilon, eps)
	}
	return int(math.Log(float64(nSamples))/(eps*eps)) + 1, nil
}

// MinDimStrict returns the full Johnson-Lindenstrauss bound
// ceil(4 ln(p) / (eps²/2 − eps³/3)).
func MinDimStrict(nSamples int, eps float64) (int, error) {
	if nSamples <= 1 {
		return 0, fmt.Errorf("%w: %d samples", ErrDegenerate, nSamples)
	}
	if eps <= 0 || eps >= 1 || math.IsNaN(eps) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidEpsilon, eps)
	}
	denom := eps*eps/2 - eps*eps*eps/3
	return int(math.Ceil(4 * math.Log(float64(nSamples)) / denom)), nil
}

// DefaultDensity returns 1/√n, the density recommended by Li et al. for n features.
func DefaultDensity(nFeatures int) (float64, error) {
	if nFeatures <= 1 {
		return 0, fmt.Errorf("%w: %d features", ErrDegenerate, nFeatures)
	}
	return 1 / math.Sqrt(float64(nFeatures)), nil
}

// SparseRandomProjection reduces n-dimensional rows to Components dimensions.
type SparseRandomProjection struct {
	Components int
	// Density is the probability of a non-zero entry. Zero means 1/√n, chosen at Fit.
	Density float64
	// Scale is the magnitude √s/√m shared by every non-zero entry.
	Scale float64

	signs     *sparse.CSR // m x n, entries ±1
	signsT    *sparse.CSR // n x m
	nFeatures int
	src       rand.Source
}

// New creates an unfitted projection. A nil src draws from the global source.
func New(components int, density float64, src rand.Source) (*SparseRandomProjection, error) {
	if components <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidComponents, components)
	}
	if density < 0 || density > 1 || math.IsNaN(density) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDensity, density)
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &SparseRandomProjection{Components: components, Density: density, src: src}, nil
}

// Fit samples the projection matrix for inputs with nFeatures columns.
// Each row gets k ~ Binomial(n, density) non-zero columns chosen without
// replacement, each with an independent random sign.
func (p *SparseRandomProjection) Fit(nFeatures int) error {
	if p.signs != nil {
		return fmt.Errorf("projection: already fitted to %d features", p.nFeatures)
	}
	if nFeatures <= 1 {
		return fmt.Errorf("%w: %d features", ErrDegenerate, nFeatures)
	}
	if p.Density == 0 {
		d, err := DefaultDensity(nFeatures)
		if err != nil {
			return err
		}
		p.Density = d
	}

	rng := rand.New(p.src)
	nnzDist := distuv.Binomial{N: float64(nFeatures), P: p.Density, Src: p.src}

	indptr := make([]int, p.Components+1)
	var ind []int
	var data []float64
	for i := range p.Components {
		k := int(nnzDist.Rand())
		if k > 0 {
			cols := make([]int, k)
			sampleuv.WithoutReplacement(cols, nFeatures, p.src)
			slices.Sort(cols)
			for _, c := range cols {
				ind = append(ind, c)
				if rng.IntN(2) == 0 {
					data = append(data, -1)
				} else {
					data = append(data, 1)
				}
			}
		}
		indptr[i+1] = len(ind)
	}

	p.signs = sparse.NewCSR(p.Components, nFeatures, indptr, ind, data)
	p.signsT = p.signs.T().(*sparse.CSC).ToCSR()
	p.nFeatures = nFeatures
	p.Scale = math.Sqrt(1/p.Density) / math.Sqrt(float64(p.Components))
	return nil
}

// Features returns the number of input columns R was fitted to.
func (p *SparseRandomProjection) Features() int {
	return p.nFeatures
}

// Signs returns the m x n sign matrix of R. R equals Scale times Signs.
func (p *SparseRandomProjection) Signs() *sparse.CSR {
	return p.signs
}

// NNZ returns the number of non-zero entries of R.
func (p *SparseRandomProjection) NNZ() int {
	if p.signs == nil {
		return 0
	}
	return p.signs.NNZ()
}

// Transform projects every row of x (r x n) and returns the dense r x m
// result (R · xᵀ)ᵀ. Sparse CSR input is consumed without densifying.
func (p *SparseRandomProjection) Transform(x mat.Matrix) (*mat.Dense, error) {
	if p.signs == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != p.nFeatures {
		return nil, fmt.Errorf("%w: input has %d columns, projection expects %d",
			ErrDimensionMismatch, cols, p.nFeatures)
	}
	if rows == 0 {
		return nil, ErrEmptyInput
	}

	out := mat.NewDense(rows, p.Components, nil)
	rt := p.signsT.RawMatrix()
	accumulate := func(dst []float64, j int, v float64) {
		for k := rt.Indptr[j]; k < rt.Indptr[j+1]; k++ {
			dst[rt.Ind[k]] += v * rt.Data[k]
		}
	}

	switch m := x.(type) {
	case *sparse.CSR:
		raw := m.RawMatrix()
		for i := range rows {
			dst := out.RawRowView(i)
			for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
				accumulate(dst, raw.Ind[k], raw.Data[k])
			}
		}
	default:
		for i := range rows {
			dst := out.RawRowView(i)
			for j := range cols {
				if v := x.At(i, j); v != 0 {
					accumulate(dst, j, v)
				}
			}
		}
	}
	out.Scale(p.Scale, out)
	return out, nil
}

// ProjectTerm projects the one-hot vector of feature j. The result equals
// Scale times column j of the sign matrix.
func (p *SparseRandomProjection) ProjectTerm(j int) (*mat.VecDense, error) {
	if p.signs == nil {
		return nil, ErrNotFitted
	}
	if j < 0 || j >= p.nFeatures {
		return nil, fmt.Errorf("%w: feature %d outside [0, %d)", ErrDimensionMismatch, j, p.nFeatures)
	}
	v := mat.NewVecDense(p.Components, nil)
	rt := p.signsT.RawMatrix()
	for k := rt.Indptr[j]; k < rt.Indptr[j+1]; k++ {
		v.SetVec(rt.Ind[k], p.Scale*rt.Data[k])
	}
	return v, nil
}
