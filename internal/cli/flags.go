package cli

import (
	"github.com/happyhackingspace/rproj"
	"github.com/spf13/cobra"
)

// experimentFlags mirrors the ExperimentConfig keys that can be set on the
// command line. Only flags the user changed override the configuration.
type experimentFlags struct {
	dataFolder   string
	format       string
	remove       []string
	analyzer     string
	ngramMin     int
	ngramMax     int
	binary       bool
	epsilon      float64
	bound        string
	components   int
	density      float64
	minDF        int
	stopWords    bool
	stem         bool
	arms         []string
	hidden       int
	epochs       int
	batchSize    int
	learningRate float64
	seed         uint64
}

func (f *experimentFlags) register(cmd *cobra.Command, training bool) {
	d := rproj.DefaultExperimentConfig()
	fs := cmd.Flags()
	fs.StringVar(&f.dataFolder, "data-folder", d.DataFolder, "Path to the corpus folder")
	fs.StringVar(&f.format, "format", d.Format, "Corpus layout: json or bydate")
	fs.StringSliceVar(&f.remove, "remove", nil, "Strip post parts: headers, footers, quotes")
	fs.Float64Var(&f.epsilon, "eps", d.Epsilon, "Target relative distortion of the projection")
	fs.StringVar(&f.bound, "bound", d.Bound, "Dimension bound: loose or strict")
	fs.IntVar(&f.components, "components", 0, "Projected dimensions (0 derives them from --eps)")
	fs.Float64Var(&f.density, "density", 0, "Projection density (0 means 1/sqrt(n))")
	fs.StringVar(&f.analyzer, "analyzer", d.Analyzer, "Features: word (token n-grams) or char_wb (character n-grams)")
	fs.IntVar(&f.ngramMin, "ngram-min", d.NgramMin, "Smallest n-gram length")
	fs.IntVar(&f.ngramMax, "ngram-max", d.NgramMax, "Largest n-gram length")
	fs.BoolVar(&f.binary, "binary", false, "Use term presence instead of term counts")
	fs.IntVar(&f.minDF, "min-df", d.MinDF, "Minimum document frequency of a term")
	fs.BoolVar(&f.stopWords, "stop-words", false, "Drop English stop words")
	fs.BoolVar(&f.stem, "stem", false, "Stem terms with the Snowball English stemmer")
	fs.Uint64Var(&f.seed, "seed", 0, "Random seed (0 draws from entropy)")
	if !training {
		return
	}
	fs.StringSliceVar(&f.arms, "arms", d.Arms, "Representations to train on: projected, full")
	fs.IntVar(&f.hidden, "hidden", d.Hidden, "Hidden layer width")
	fs.IntVar(&f.epochs, "epochs", d.Epochs, "Training epochs")
	fs.IntVar(&f.batchSize, "batch-size", d.BatchSize, "Mini-batch size")
	fs.Float64Var(&f.learningRate, "learning-rate", d.LearningRate, "Adam learning rate")
}

func (f *experimentFlags) apply(cmd *cobra.Command, cfg *rproj.ExperimentConfig) {
	fs := cmd.Flags()
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("data-folder", func() { cfg.DataFolder = f.dataFolder })
	set("format", func() { cfg.Format = f.format })
	set("remove", func() { cfg.Remove = f.remove })
	set("analyzer", func() { cfg.Analyzer = f.analyzer })
	set("ngram-min", func() { cfg.NgramMin = f.ngramMin })
	set("ngram-max", func() { cfg.NgramMax = f.ngramMax })
	set("binary", func() { cfg.Binary = f.binary })
	set("eps", func() { cfg.Epsilon = f.epsilon })
	set("bound", func() { cfg.Bound = f.bound })
	set("components", func() { cfg.Components = f.components })
	set("density", func() { cfg.Density = f.density })
	set("min-df", func() { cfg.MinDF = f.minDF })
	set("stop-words", func() { cfg.StopWords = f.stopWords })
	set("stem", func() { cfg.Stem = f.stem })
	set("seed", func() { cfg.Seed = f.seed })
	set("arms", func() { cfg.Arms = f.arms })
	set("hidden", func() { cfg.Hidden = f.hidden })
	set("epochs", func() { cfg.Epochs = f.epochs })
	set("batch-size", func() { cfg.BatchSize = f.batchSize })
	set("learning-rate", func() { cfg.LearningRate = f.learningRate })
}
