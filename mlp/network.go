// Package mlp implements a two-layer feed-forward classifier: a sigmoid
// hidden layer followed by a linear output layer trained against a softmax
// cross-entropy loss. Inputs may be dense (*mat.Dense) or sparse
// (*sparse.CSR); sparse rows are consumed without densifying.
package mlp

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrShape    = errors.New("mlp: shape mismatch")
	ErrDiverged = errors.New("mlp: training diverged")
)

// Network holds the weights of the classifier.
type Network struct {
	W1 *mat.Dense // inputs x hidden
	B1 []float64  // hidden
	W2 *mat.Dense // hidden x classes
	B2 []float64  // classes
}

// NewNetwork creates a network with Glorot-uniform weights and zero biases.
func NewNetwork(inputs, hidden, classes int, src rand.Source) (*Network, error) {
	if inputs <= 0 || hidden <= 0 || classes <= 1 {
		return nil, fmt.Errorf("%w: %d inputs, %d hidden units, %d classes", ErrShape, inputs, hidden, classes)
	}
	return &Network{
		W1: glorot(inputs, hidden, src),
		B1: make([]float64, hidden),
		W2: glorot(hidden, classes, src),
		B2: make([]float64, classes),
	}, nil
}

func glorot(fanIn, fanOut int, src rand.Source) *mat.Dense {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	u := distuv.Uniform{Min: -limit, Max: limit, Src: src}
	data := make([]float64, fanIn*fanOut)
	for i := range data {
		data[i] = u.Rand()
	}
	return mat.NewDense(fanIn, fanOut, data)
}

// Inputs returns the input width.
func (n *Network) Inputs() int {
	r, _ := n.W1.Dims()
	return r
}

// Hidden returns the hidden layer width.
func (n *Network) Hidden() int {
	return len(n.B1)
}

// Classes returns the number of output classes.
func (n *Network) Classes() int {
	return len(n.B2)
}

// activations is the per-sample scratch space of a forward pass.
type activations struct {
	hidden []float64 // sigmoid outputs
	logits []float64
}

func (n *Network) newActivations() *activations {
	return &activations{
		hidden: make([]float64, n.Hidden()),
		logits: make([]float64, n.Classes()),
	}
}

// forward fills act for row i of x.
func (n *Network) forward(x mat.Matrix, i int, act *activations) {
	copy(act.hidden, n.B1)
	eachNonzero(x, i, func(j int, v float64) {
		floats.AddScaled(act.hidden, v, n.W1.RawRowView(j))
	})
	for h, z := range act.hidden {
		act.hidden[h] = sigmoid(z)
	}

	copy(act.logits, n.B2)
	for h, a := range act.hidden {
		if a != 0 {
			floats.AddScaled(act.logits, a, n.W2.RawRowView(h))
		}
	}
}

// Predict returns the most probable class of every row of x.
func (n *Network) Predict(x mat.Matrix) ([]int, error) {
	rows, cols := x.Dims()
	if cols != n.Inputs() {
		return nil, fmt.Errorf("%w: input has %d columns, network expects %d", ErrShape, cols, n.Inputs())
	}
	act := n.newActivations()
	out := make([]int, rows)
	for i := range rows {
		n.forward(x, i, act)
		out[i] = floats.MaxIdx(act.logits)
	}
	return out, nil
}

// Evaluation summarizes the network on a labelled set.
type Evaluation struct {
	Loss     float64 // mean cross-entropy
	Accuracy float64
	Correct  int
	Total    int
	// Confusion[true][predicted] counts rows.
	Confusion [][]int
}

// Evaluate computes the mean loss, accuracy and confusion matrix of the
// network on x against one-hot targets y.
func (n *Network) Evaluate(x mat.Matrix, y *mat.Dense) (*Evaluation, error) {
	if err := n.checkShapes(x, y); err != nil {
		return nil, err
	}
	rows, _ := x.Dims()
	classes := n.Classes()
	ev := &Evaluation{Total: rows, Confusion: make([][]int, classes)}
	for c := range ev.Confusion {
		ev.Confusion[c] = make([]int, classes)
	}

	act := n.newActivations()
	var loss float64
	for i := range rows {
		n.forward(x, i, act)
		target := y.RawRowView(i)
		loss += crossEntropy(act.logits, target)
		truth, pred := floats.MaxIdx(target), floats.MaxIdx(act.logits)
		ev.Confusion[truth][pred]++
		if truth == pred {
			ev.Correct++
		}
	}
	if rows > 0 {
		ev.Loss = loss / float64(rows)
		ev.Accuracy = float64(ev.Correct) / float64(rows)
	}
	return ev, nil
}

func (n *Network) checkShapes(x mat.Matrix, y *mat.Dense) error {
	rows, cols := x.Dims()
	if cols != n.Inputs() {
		return fmt.Errorf("%w: input has %d columns, network expects %d", ErrShape, cols, n.Inputs())
	}
	yRows, yCols := y.Dims()
	if yRows != rows {
		return fmt.Errorf("%w: %d inputs but %d targets", ErrShape, rows, yRows)
	}
	if yCols != n.Classes() {
		return fmt.Errorf("%w: targets have %d classes, network has %d", ErrShape, yCols, n.Classes())
	}
	return nil
}

// eachNonzero calls fn for every non-zero entry of row i.
func eachNonzero(x mat.Matrix, i int, fn func(j int, v float64)) {
	switch m := x.(type) {
	case *sparse.CSR:
		raw := m.RawMatrix()
		for k := raw.Indptr[i]; k < raw.Indptr[i+1]; k++ {
			fn(raw.Ind[k], raw.Data[k])
		}
	case *mat.Dense:
		for j, v := range m.RawRowView(i) {
			if v != 0 {
				fn(j, v)
			}
		}
	default:
		_, cols := x.Dims()
		for j := range cols {
			if v := x.At(i, j); v != 0 {
				fn(j, v)
			}
		}
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// crossEntropy returns -Σ y log softmax(logits).
func crossEntropy(logits, target []float64) float64 {
	lse := floats.LogSumExp(logits)
	var loss float64
	for c, t := range target {
		if t != 0 {
			loss -= t * (logits[c] - lse)
		}
	}
	return loss
}

// softmaxInto writes softmax(logits) into dst.
func softmaxInto(dst, logits []float64) {
	lse := floats.LogSumExp(logits)
	for c, l := range logits {
		dst[c] = math.Exp(l - lse)
	}
}
