package projection

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestMinDim(t *testing.T) {
	got, err := MinDim(11314, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 934, got)

	tests := []struct {
		samples int
		eps     float64
	}{
		{2, 0.5},
		{100, 0.3},
		{1000, 0.1},
		{7532, 0.05},
		{11314, 0.25},
	}
	for _, tt := range tests {
		m, err := MinDim(tt.samples, tt.eps)
		require.NoError(t, err)
		bound := math.Log(float64(tt.samples)) / (tt.eps * tt.eps)
		if float64(m) < bound {
			t.Errorf("MinDim(%d, %v) = %d below bound %v", tt.samples, tt.eps, m, bound)
		}
		if float64(m-1) > bound {
			t.Errorf("MinDim(%d, %v) = %d is not minimal for bound %v", tt.samples, tt.eps, m, bound)
		}
	}
}

func TestMinDimErrors(t *testing.T) {
	_, err := MinDim(1, 0.1)
	assert.ErrorIs(t, err, ErrDegenerate)
	_, err = MinDim(0, 0.1)
	assert.ErrorIs(t, err, ErrDegenerate)

	for _, eps := range []float64{0, -0.1, 1, 1.5, math.NaN()} {
		_, err := MinDim(100, eps)
		assert.ErrorIs(t, err, ErrInvalidEpsilon, "eps=%v", eps)
	}
}

func TestMinDimStrict(t *testing.T) {
	strict, err := MinDimStrict(11314, 0.1)
	require.NoError(t, err)
	loose, _ := MinDim(11314, 0.1)
	assert.Greater(t, strict, loose)

	want := int(math.Ceil(4 * math.Log(11314) / (0.005 - 0.001/3)))
	assert.Equal(t, want, strict)

	_, err = MinDimStrict(1, 0.1)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestDefaultDensity(t *testing.T) {
	d, err := DefaultDensity(10000)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, d, 1e-12)

	_, err = DefaultDensity(1)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestNewErrors(t *testing.T) {
	_, err := New(0, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidComponents)
	_, err = New(10, 1.5, nil)
	assert.ErrorIs(t, err, ErrInvalidDensity)
	_, err = New(10, -0.1, nil)
	assert.ErrorIs(t, err, ErrInvalidDensity)
}

func fitted(t *testing.T, m, n int, seed uint64) *SparseRandomProjection {
	t.Helper()
	p, err := New(m, 0, rand.NewPCG(seed, seed))
	require.NoError(t, err)
	require.NoError(t, p.Fit(n))
	return p
}

func TestFit(t *testing.T) {
	p := fitted(t, 50, 400, 1)

	assert.Equal(t, 400, p.Features())
	assert.InDelta(t, 0.05, p.Density, 1e-12)
	assert.InDelta(t, math.Sqrt(20)/math.Sqrt(50), p.Scale, 1e-12)

	r, c := p.Signs().Dims()
	assert.Equal(t, 50, r)
	assert.Equal(t, 400, c)

	raw := p.Signs().RawMatrix()
	for _, v := range raw.Data {
		if v != 1 && v != -1 {
			t.Fatalf("sign matrix holds %v", v)
		}
	}
	// expected nnz is m*n*density = 1000
	assert.InDelta(t, 1000, p.NNZ(), 200)

	assert.Error(t, p.Fit(400), "refit must fail")
}

func TestFitDeterministic(t *testing.T) {
	a := fitted(t, 20, 100, 42)
	b := fitted(t, 20, 100, 42)
	assert.True(t, mat.Equal(a.Signs(), b.Signs()))

	c := fitted(t, 20, 100, 43)
	assert.False(t, mat.Equal(a.Signs(), c.Signs()))
}

func TestNotFitted(t *testing.T) {
	p, err := New(5, 0, rand.NewPCG(1, 1))
	require.NoError(t, err)
	_, err = p.Transform(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = p.ProjectTerm(0)
	assert.ErrorIs(t, err, ErrNotFitted)
	assert.Equal(t, 0, p.NNZ())
	assert.ErrorIs(t, p.Fit(1), ErrDegenerate)
}

func TestTransformDimensionMismatch(t *testing.T) {
	p := fitted(t, 10, 30, 7)
	_, err := p.Transform(mat.NewDense(2, 29, nil))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = p.Transform(sparse.NewCSR(2, 31, []int{0, 0, 0}, nil, nil))
	assert.ErrorIs(t, err, ErrDimensionMismatch)
	_, err = p.ProjectTerm(30)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

// noRows is a matrix with columns but no rows, which mat.Dense cannot hold.
type noRows struct{ cols int }

func (m noRows) Dims() (int, int)    { return 0, m.cols }
func (m noRows) At(i, j int) float64 { panic(mat.ErrIndexOutOfRange) }
func (m noRows) T() mat.Matrix       { return mat.Transpose{Matrix: m} }

func TestTransformEmptyInput(t *testing.T) {
	p := fitted(t, 10, 30, 7)
	out, err := p.Transform(noRows{cols: 30})
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Nil(t, out)
}

func TestTransformShapeCompatible(t *testing.T) {
	p := fitted(t, 16, 60, 3)
	train, err := p.Transform(randomCSR(40, 60, 5, 11))
	require.NoError(t, err)
	test, err := p.Transform(randomCSR(7, 60, 5, 12))
	require.NoError(t, err)

	_, trainCols := train.Dims()
	testRows, testCols := test.Dims()
	assert.Equal(t, 16, trainCols)
	assert.Equal(t, trainCols, testCols)
	assert.Equal(t, 7, testRows)
}

func TestProjectTermMatchesColumn(t *testing.T) {
	p := fitted(t, 25, 80, 9)
	signs := p.Signs()
	for _, j := range []int{0, 13, 79} {
		v, err := p.ProjectTerm(j)
		require.NoError(t, err)
		for i := range 25 {
			assert.Equal(t, p.Scale*signs.At(i, j), v.AtVec(i), "row %d term %d", i, j)
		}

		oneHot := sparse.NewCSR(1, 80, []int{0, 1}, []int{j}, []float64{1})
		projected, err := p.Transform(oneHot)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(projected.RowView(0), v, 1e-12))
	}
}

func TestTransformSparseMatchesDense(t *testing.T) {
	p := fitted(t, 12, 50, 5)
	x := randomCSR(6, 50, 8, 21)
	fromSparse, err := p.Transform(x)
	require.NoError(t, err)
	fromDense, err := p.Transform(mat.DenseCopyOf(x))
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(fromSparse, fromDense, 1e-12))
}

func TestTransformPreservesNorm(t *testing.T) {
	p := fitted(t, 400, 2000, 17)
	x := randomCSR(60, 2000, 40, 33)
	out, err := p.Transform(x)
	require.NoError(t, err)

	var sum float64
	for i := range 60 {
		row := out.RawRowView(i)
		var sq float64
		for _, v := range row {
			sq += v * v
		}
		sum += sq
	}
	// input rows are unit-norm, so the mean squared norm is close to 1
	assert.InDelta(t, 1.0, sum/60, 0.1)
}

// randomCSR builds rows with nnz non-zero entries each, L2 normalized.
func randomCSR(rows, cols, nnz int, seed uint64) *sparse.CSR {
	rng := rand.New(rand.NewPCG(seed, seed))
	indptr := make([]int, rows+1)
	var ind []int
	var data []float64
	for i := range rows {
		perm := rng.Perm(cols)[:nnz]
		vals := make([]float64, nnz)
		var sq float64
		for k := range vals {
			vals[k] = rng.Float64() + 0.1
			sq += vals[k] * vals[k]
		}
		slices.Sort(perm)
		for k, c := range perm {
			ind = append(ind, c)
			data = append(data, vals[k]/math.Sqrt(sq))
		}
		indptr[i+1] = len(ind)
	}
	return sparse.NewCSR(rows, cols, indptr, ind, data)
}
