package mlp

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOneHot(t *testing.T) {
	y, err := OneHot([]int{2, 0, 1}, 3)
	require.NoError(t, err)
	want := mat.NewDense(3, 3, []float64{
		0, 0, 1,
		1, 0, 0,
		0, 1, 0,
	})
	assert.True(t, mat.Equal(want, y))

	_, err = OneHot([]int{0, 3}, 3)
	assert.Error(t, err)
	_, err = OneHot([]int{-1}, 3)
	assert.Error(t, err)
	_, err = OneHot(nil, 3)
	assert.ErrorIs(t, err, ErrShape)
}

func TestNewNetwork(t *testing.T) {
	net, err := NewNetwork(50, 10, 4, rand.NewPCG(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 50, net.Inputs())
	assert.Equal(t, 10, net.Hidden())
	assert.Equal(t, 4, net.Classes())

	limit := math.Sqrt(6.0 / 60)
	for _, w := range net.W1.RawMatrix().Data {
		if math.Abs(w) > limit {
			t.Fatalf("weight %v outside glorot limit %v", w, limit)
		}
	}
	for _, b := range net.B1 {
		assert.Zero(t, b)
	}

	_, err = NewNetwork(0, 10, 4, nil)
	assert.ErrorIs(t, err, ErrShape)
	_, err = NewNetwork(5, 10, 1, nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestGradientsMatchFiniteDifferences(t *testing.T) {
	src := rand.NewPCG(3, 4)
	net, err := NewNetwork(4, 3, 3, src)
	require.NoError(t, err)
	x := mat.NewDense(5, 4, []float64{
		0.5, 0, -1, 2,
		0, 1, 0, 0,
		1, 1, 1, 1,
		-0.3, 0.2, 0, 0.7,
		0, 0, 0.9, 0,
	})
	y, err := OneHot([]int{0, 1, 2, 1, 0}, 3)
	require.NoError(t, err)
	batch := []int{0, 1, 2, 3, 4}

	g := newGradients(net)
	g.compute(net, x, y, batch)

	params := [][]float64{net.W1.RawMatrix().Data, net.B1, net.W2.RawMatrix().Data, net.B2}
	analytic := [][]float64{
		append([]float64(nil), g.w1...),
		append([]float64(nil), g.b1...),
		append([]float64(nil), g.w2...),
		append([]float64(nil), g.b2...),
	}
	const h = 1e-6
	for p, param := range params {
		for k := range param {
			orig := param[k]
			param[k] = orig + h
			plus := g.compute(net, x, y, batch)
			param[k] = orig - h
			minus := g.compute(net, x, y, batch)
			param[k] = orig

			numeric := (plus - minus) / (2 * h)
			assert.InDelta(t, numeric, analytic[p][k], 1e-6, "param %d index %d", p, k)
		}
	}
}

// separable builds rows where class c lights up features 2c and 2c+1.
func separable(rows, classes int, seed uint64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewPCG(seed, seed))
	x := mat.NewDense(rows, 2*classes, nil)
	labels := make([]int, rows)
	for i := range rows {
		c := i % classes
		labels[i] = c
		x.Set(i, 2*c, 1+0.1*rng.Float64())
		x.Set(i, 2*c+1, 0.5+0.1*rng.Float64())
		if j := rng.IntN(2 * classes); j/2 != c {
			x.Set(i, j, 0.2*rng.Float64())
		}
	}
	return x, labels
}

func fastConfig(seed uint64) TrainerConfig {
	config := DefaultTrainerConfig()
	config.Hidden = 8
	config.Epochs = 20
	config.BatchSize = 10
	config.LearningRate = 0.05
	config.Src = rand.NewPCG(seed, seed)
	return config
}

func TestTrainSeparable(t *testing.T) {
	x, labels := separable(150, 3, 1)
	y, err := OneHot(labels, 3)
	require.NoError(t, err)
	testX, testLabels := separable(60, 3, 2)
	testY, err := OneHot(testLabels, 3)
	require.NoError(t, err)

	net, history, err := Train(x, y, testX, testY, fastConfig(7))
	require.NoError(t, err)
	require.Len(t, history, 20)
	for i, s := range history {
		assert.Equal(t, i+1, s.Epoch)
	}

	last := history[len(history)-1]
	assert.Greater(t, last.TestAccuracy, 0.9)
	assert.Less(t, last.TrainLoss, history[0].TrainLoss)

	pred, err := net.Predict(testX)
	require.NoError(t, err)
	assert.Len(t, pred, 60)

	ev, err := net.Evaluate(testX, testY)
	require.NoError(t, err)
	assert.InDelta(t, last.TestAccuracy, ev.Accuracy, 1e-12)
	var total, diag int
	for c, row := range ev.Confusion {
		for p, n := range row {
			total += n
			if c == p {
				diag += n
			}
		}
	}
	assert.Equal(t, 60, total)
	assert.Equal(t, ev.Correct, diag)
}

func TestTrainSparseMatchesDense(t *testing.T) {
	dense, labels := separable(40, 2, 5)
	y, err := OneHot(labels, 2)
	require.NoError(t, err)

	rows, cols := dense.Dims()
	indptr := make([]int, rows+1)
	var ind []int
	var data []float64
	for i := range rows {
		for j := range cols {
			if v := dense.At(i, j); v != 0 {
				ind = append(ind, j)
				data = append(data, v)
			}
		}
		indptr[i+1] = len(ind)
	}
	csr := sparse.NewCSR(rows, cols, indptr, ind, data)

	config := fastConfig(11)
	config.Epochs = 3
	fromDense, denseHistory, err := Train(dense, y, dense, y, config)
	require.NoError(t, err)

	config.Src = rand.NewPCG(11, 11)
	fromSparse, sparseHistory, err := Train(csr, y, csr, y, config)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(fromDense.W1, fromSparse.W1, 1e-12))
	assert.True(t, mat.EqualApprox(fromDense.W2, fromSparse.W2, 1e-12))
	assert.InDelta(t, denseHistory[2].TestLoss, sparseHistory[2].TestLoss, 1e-12)
}

func TestTrainDiverged(t *testing.T) {
	x := mat.NewDense(4, 2, []float64{math.NaN(), 1, 1, 0, 0, 1, 1, 1})
	y, err := OneHot([]int{0, 1, 0, 1}, 2)
	require.NoError(t, err)

	config := fastConfig(1)
	config.BatchSize = 4
	_, _, err = Train(x, y, x, y, config)
	assert.ErrorIs(t, err, ErrDiverged)
}

func TestTrainShapeErrors(t *testing.T) {
	x, labels := separable(10, 2, 1)
	y, _ := OneHot(labels, 2)

	_, _, err := Train(x, y, mat.NewDense(3, 5, nil), mat.NewDense(3, 2, nil), fastConfig(1))
	assert.ErrorIs(t, err, ErrShape)

	_, _, err = Train(x, mat.NewDense(9, 2, nil), x, y, fastConfig(1))
	assert.ErrorIs(t, err, ErrShape)

	config := fastConfig(1)
	config.Epochs = 0
	_, _, err = Train(x, y, x, y, config)
	assert.Error(t, err)

	net, err := NewNetwork(4, 2, 2, rand.NewPCG(1, 1))
	require.NoError(t, err)
	_, err = net.Predict(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, ErrShape)
}

func TestBatchLargerThanSet(t *testing.T) {
	x, labels := separable(6, 2, 3)
	y, _ := OneHot(labels, 2)
	config := fastConfig(2)
	config.BatchSize = 100
	config.Epochs = 2
	_, history, err := Train(x, y, x, y, config)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
