package mlp

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// TrainerConfig holds training hyperparameters.
type TrainerConfig struct {
	Hidden       int
	Epochs       int
	BatchSize    int
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	// Src drives weight initialization and batch sampling. Nil seeds from entropy.
	Src rand.Source
	// Name tags the epoch log lines.
	Name string
}

// DefaultTrainerConfig returns the Adam defaults with 100 hidden units,
// 12 epochs and batches of 100.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Hidden:       100,
		Epochs:       12,
		BatchSize:    100,
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// EpochStats records the metrics logged after each epoch.
type EpochStats struct {
	Epoch        int
	TrainLoss    float64 // mean of the epoch's batch losses
	TestLoss     float64
	TestAccuracy float64
}

// Train fits a network on x with one-hot targets y and evaluates it on the
// held-out testX/testY after every epoch.
//
// An epoch is len(x)/BatchSize batches, each drawn independently without
// replacement, so an epoch need not visit every row.
func Train(x mat.Matrix, y *mat.Dense, testX mat.Matrix, testY *mat.Dense, config TrainerConfig) (*Network, []EpochStats, error) {
	rows, inputs := x.Dims()
	_, classes := y.Dims()
	if rows == 0 {
		return nil, nil, fmt.Errorf("%w: empty training set", ErrShape)
	}
	if config.Hidden <= 0 || config.Epochs <= 0 || config.BatchSize <= 0 {
		return nil, nil, fmt.Errorf("mlp: hidden, epochs and batch size must be positive, got %d, %d, %d",
			config.Hidden, config.Epochs, config.BatchSize)
	}
	src := config.Src
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	net, err := NewNetwork(inputs, config.Hidden, classes, src)
	if err != nil {
		return nil, nil, err
	}
	if err := net.checkShapes(x, y); err != nil {
		return nil, nil, err
	}
	if err := net.checkShapes(testX, testY); err != nil {
		return nil, nil, err
	}

	batchSize := min(config.BatchSize, rows)
	batches := rows / batchSize
	g := newGradients(net)
	opt := newAdam(net, config)
	batch := make([]int, batchSize)
	history := make([]EpochStats, 0, config.Epochs)

	for epoch := range config.Epochs {
		var epochLoss float64
		for b := range batches {
			sampleuv.WithoutReplacement(batch, rows, src)
			loss := g.compute(net, x, y, batch)
			if math.IsNaN(loss) || math.IsInf(loss, 0) {
				return nil, history, fmt.Errorf("%w: loss %v at epoch %d batch %d", ErrDiverged, loss, epoch+1, b+1)
			}
			opt.step(g)
			epochLoss += loss
		}

		ev, err := net.Evaluate(testX, testY)
		if err != nil {
			return nil, history, err
		}
		stats := EpochStats{
			Epoch:        epoch + 1,
			TrainLoss:    epochLoss / float64(batches),
			TestLoss:     ev.Loss,
			TestAccuracy: ev.Accuracy,
		}
		history = append(history, stats)
		slog.Info("Epoch complete", "arm", config.Name, "epoch", stats.Epoch,
			"train_loss", stats.TrainLoss, "test_loss", stats.TestLoss, "test_accuracy", stats.TestAccuracy)
	}
	return net, history, nil
}

// gradients accumulates the mean batch gradient of every parameter.
type gradients struct {
	w1, b1, w2, b2 []float64

	act   *activations
	probs []float64
	dOut  []float64
	dHid  []float64
}

func newGradients(net *Network) *gradients {
	return &gradients{
		w1:    make([]float64, len(net.W1.RawMatrix().Data)),
		b1:    make([]float64, net.Hidden()),
		w2:    make([]float64, len(net.W2.RawMatrix().Data)),
		b2:    make([]float64, net.Classes()),
		act:   net.newActivations(),
		probs: make([]float64, net.Classes()),
		dOut:  make([]float64, net.Classes()),
		dHid:  make([]float64, net.Hidden()),
	}
}

// compute backpropagates the rows in batch and returns the mean batch loss.
func (g *gradients) compute(net *Network, x mat.Matrix, y *mat.Dense, batch []int) float64 {
	for _, s := range [][]float64{g.w1, g.b1, g.w2, g.b2} {
		clear(s)
	}
	hidden, classes := net.Hidden(), net.Classes()
	scale := 1 / float64(len(batch))
	var loss float64

	for _, i := range batch {
		net.forward(x, i, g.act)
		target := y.RawRowView(i)
		loss += crossEntropy(g.act.logits, target)

		softmaxInto(g.probs, g.act.logits)
		floats.SubTo(g.dOut, g.probs, target)
		floats.Scale(scale, g.dOut)
		floats.Add(g.b2, g.dOut)

		for h, a := range g.act.hidden {
			floats.AddScaled(g.w2[h*classes:(h+1)*classes], a, g.dOut)
			// back through W2 and the sigmoid
			g.dHid[h] = floats.Dot(net.W2.RawRowView(h), g.dOut) * a * (1 - a)
		}
		floats.Add(g.b1, g.dHid)
		eachNonzero(x, i, func(j int, v float64) {
			floats.AddScaled(g.w1[j*hidden:(j+1)*hidden], v, g.dHid)
		})
	}
	return loss * scale
}

// adam holds the moment estimates for every parameter.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	params                [4][]float64
	m, v                  [4][]float64
}

func newAdam(net *Network, config TrainerConfig) *adam {
	a := &adam{
		lr:    config.LearningRate,
		beta1: config.Beta1,
		beta2: config.Beta2,
		eps:   config.Epsilon,
		params: [4][]float64{
			net.W1.RawMatrix().Data, net.B1,
			net.W2.RawMatrix().Data, net.B2,
		},
	}
	for i, p := range a.params {
		a.m[i] = make([]float64, len(p))
		a.v[i] = make([]float64, len(p))
	}
	return a
}

func (a *adam) step(g *gradients) {
	a.t++
	t := float64(a.t)
	lr := a.lr * math.Sqrt(1-math.Pow(a.beta2, t)) / (1 - math.Pow(a.beta1, t))
	grads := [4][]float64{g.w1, g.b1, g.w2, g.b2}
	for i, p := range a.params {
		m, v, grad := a.m[i], a.v[i], grads[i]
		for k := range p {
			m[k] = a.beta1*m[k] + (1-a.beta1)*grad[k]
			v[k] = a.beta2*v[k] + (1-a.beta2)*grad[k]*grad[k]
			p[k] -= lr * m[k] / (math.Sqrt(v[k]) + a.eps)
		}
	}
}
