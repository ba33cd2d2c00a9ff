package rproj

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/happyhackingspace/rproj/internal/storage"
	"github.com/happyhackingspace/rproj/internal/vectorizer"
	"github.com/happyhackingspace/rproj/mlp"
	"github.com/happyhackingspace/rproj/projection"
	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Random streams of a seeded run.
const (
	streamProjection uint64 = iota + 1
	streamProjected
	streamFull
)

// Result holds the outcome of a run.
type Result struct {
	MinDim     int // components required by the bound
	Components int // components actually used
	Density    float64
	Vocabulary int
	Train      int
	Test       int
	Categories []string

	Projected *ArmResult // nil when the arm was not run
	Full      *ArmResult
}

// ArmResult holds the classifier metrics of one representation.
type ArmResult struct {
	Name      string
	Inputs    int
	Accuracy  float64
	Loss      float64
	Correct   int
	Total     int
	History   []mlp.EpochStats
	Confusion [][]int
	Precision []float64
	Recall    []float64
	F1        []float64
	MacroF1   float64
	Duration  time.Duration
}

// pipeline is the vectorized and projected corpus shared by Run and Neighbors.
type pipeline struct {
	corpus *storage.Corpus
	tfidf  *vectorizer.TfidfVectorizer
	train  *sparse.CSR
	test   *sparse.CSR
	proj   *projection.SparseRandomProjection
	minDim int
}

// prepare loads the corpus, fits TF-IDF on the training split and samples the
// projection matrix against the vocabulary size.
func prepare(cfg *ExperimentConfig) (*pipeline, error) {
	corpus, err := storage.NewStorage(cfg.DataFolder).Load(storage.LoadOptions{
		Format: cfg.Format,
		Remove: cfg.Remove,
	})
	if err != nil {
		return nil, err
	}

	var stopWords map[string]bool
	if cfg.StopWords {
		stopWords = vectorizer.EnglishStopWords()
	}
	tv := vectorizer.NewTfidfVectorizer([2]int{cfg.NgramMin, cfg.NgramMax}, cfg.MinDF, cfg.Binary, cfg.Analyzer, stopWords)
	if cfg.MaxDF > 0 {
		tv.CountVec.MaxDF = cfg.MaxDF
	}
	tv.CountVec.Stem = cfg.Stem
	tv.SublinearTF = cfg.SublinearTF

	start := time.Now()
	train, err := tv.FitTransform(corpus.Train.Texts)
	if err != nil {
		return nil, err
	}
	test, err := tv.TransformCorpus(corpus.Test.Texts)
	if err != nil {
		return nil, err
	}
	slog.Info("Corpus vectorized", "train", corpus.Train.Len(), "test", corpus.Test.Len(),
		"vocabulary", tv.VocabSize(), "nnz", train.NNZ(), "duration", time.Since(start))

	minDim, err := boundDim(cfg, corpus.Train.Len())
	if err != nil {
		return nil, err
	}
	components := minDim
	if cfg.Components > 0 {
		components = cfg.Components
	}
	proj, err := projection.New(components, cfg.Density, cfg.source(streamProjection))
	if err != nil {
		return nil, err
	}
	if err := proj.Fit(tv.VocabSize()); err != nil {
		return nil, err
	}
	slog.Info("Projection sampled", "min_dim", minDim, "components", components,
		"features", proj.Features(), "density", proj.Density, "nnz", proj.NNZ())

	return &pipeline{corpus: corpus, tfidf: tv, train: train, test: test, proj: proj, minDim: minDim}, nil
}

func boundDim(cfg *ExperimentConfig, samples int) (int, error) {
	if cfg.Bound == BoundStrict {
		return projection.MinDimStrict(samples, cfg.Epsilon)
	}
	return projection.MinDim(samples, cfg.Epsilon)
}

// Run executes the experiment: vectorize, project, and train one classifier
// per configured arm.
func Run(cfg *ExperimentConfig) (*Result, error) {
	if cfg == nil {
		cfg = DefaultExperimentConfig()
	}
	p, err := prepare(cfg)
	if err != nil {
		return nil, fmt.Errorf("rproj: %w", err)
	}

	classes := len(p.corpus.Categories)
	trainY, err := mlp.OneHot(p.corpus.Train.Labels, classes)
	if err != nil {
		return nil, fmt.Errorf("rproj: %w", err)
	}
	testY, err := mlp.OneHot(p.corpus.Test.Labels, classes)
	if err != nil {
		return nil, fmt.Errorf("rproj: %w", err)
	}

	result := &Result{
		MinDim:     p.minDim,
		Components: p.proj.Components,
		Density:    p.proj.Density,
		Vocabulary: p.tfidf.VocabSize(),
		Train:      p.corpus.Train.Len(),
		Test:       p.corpus.Test.Len(),
		Categories: p.corpus.Categories,
	}

	if slices.Contains(cfg.Arms, ArmProjected) {
		start := time.Now()
		trainX, err := p.proj.Transform(p.train)
		if err != nil {
			return nil, fmt.Errorf("rproj: %w", err)
		}
		testX, err := p.proj.Transform(p.test)
		if err != nil {
			return nil, fmt.Errorf("rproj: %w", err)
		}
		slog.Debug("Corpus projected", "duration", time.Since(start))

		result.Projected, err = trainArm(cfg, ArmProjected, trainX, trainY, testX, testY, streamProjected)
		if err != nil {
			return nil, fmt.Errorf("rproj: %w", err)
		}
	}
	if slices.Contains(cfg.Arms, ArmFull) {
		result.Full, err = trainArm(cfg, ArmFull, p.train, trainY, p.test, testY, streamFull)
		if err != nil {
			return nil, fmt.Errorf("rproj: %w", err)
		}
	}
	return result, nil
}

func trainArm(cfg *ExperimentConfig, name string, x mat.Matrix, y *mat.Dense, testX mat.Matrix, testY *mat.Dense, stream uint64) (*ArmResult, error) {
	_, inputs := x.Dims()
	config := mlp.DefaultTrainerConfig()
	config.Hidden = cfg.Hidden
	config.Epochs = cfg.Epochs
	config.BatchSize = cfg.BatchSize
	config.LearningRate = cfg.LearningRate
	config.Src = cfg.source(stream)
	config.Name = name

	slog.Info("Training classifier", "arm", name, "inputs", inputs, "hidden", config.Hidden,
		"epochs", config.Epochs, "batch_size", config.BatchSize)
	start := time.Now()
	net, history, err := mlp.Train(x, y, testX, testY, config)
	if err != nil {
		return nil, fmt.Errorf("%s arm: %w", name, err)
	}
	ev, err := net.Evaluate(testX, testY)
	if err != nil {
		return nil, fmt.Errorf("%s arm: %w", name, err)
	}

	arm := &ArmResult{
		Name:      name,
		Inputs:    inputs,
		Accuracy:  ev.Accuracy,
		Loss:      ev.Loss,
		Correct:   ev.Correct,
		Total:     ev.Total,
		History:   history,
		Confusion: ev.Confusion,
		Duration:  time.Since(start),
	}
	arm.Precision, arm.Recall, arm.F1 = classMetrics(ev.Confusion)
	arm.MacroF1 = stat.Mean(arm.F1, nil)
	slog.Info("Arm complete", "arm", name, "accuracy", arm.Accuracy, "macro_f1", arm.MacroF1,
		"duration", arm.Duration)
	return arm, nil
}

// classMetrics derives per-class precision, recall and F1 from a confusion
// matrix indexed [true][predicted]. Undefined ratios are 0.
func classMetrics(confusion [][]int) (precision, recall, f1 []float64) {
	n := len(confusion)
	precision = make([]float64, n)
	recall = make([]float64, n)
	f1 = make([]float64, n)
	for c := range n {
		var tp, predicted, actual int
		tp = confusion[c][c]
		for k := range n {
			actual += confusion[c][k]
			predicted += confusion[k][c]
		}
		if predicted > 0 {
			precision[c] = float64(tp) / float64(predicted)
		}
		if actual > 0 {
			recall[c] = float64(tp) / float64(actual)
		}
		if precision[c]+recall[c] > 0 {
			f1[c] = 2 * precision[c] * recall[c] / (precision[c] + recall[c])
		}
	}
	return precision, recall, f1
}
