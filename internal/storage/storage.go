package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"

	"github.com/happyhackingspace/rproj/internal/textutil"
	"github.com/samber/lo"
	"golang.org/x/text/encoding/charmap"
)

// Formats understood by Load.
const (
	FormatJSON   = "json"
	FormatBydate = "bydate"
)

// Parts of a newsgroup post that can be stripped before vectorizing.
const (
	RemoveHeaders = "headers"
	RemoveFooters = "footers"
	RemoveQuotes  = "quotes"
)

// Storage wraps the corpus data folder.
type Storage struct {
	Folder string
}

// NewStorage creates a Storage for the given data folder.
func NewStorage(folder string) *Storage {
	return &Storage{Folder: folder}
}

// LoadOptions controls how a corpus is read.
type LoadOptions struct {
	Format string   // FormatJSON (default) or FormatBydate
	Remove []string // any of RemoveHeaders, RemoveFooters, RemoveQuotes
}

// Load reads the train and test splits.
func (s *Storage) Load(opts LoadOptions) (*Corpus, error) {
	var (
		corpus *Corpus
		err    error
	)
	switch opts.Format {
	case "", FormatJSON:
		corpus, err = s.loadJSON()
	case FormatBydate:
		corpus, err = s.loadBydate()
	default:
		return nil, fmt.Errorf("storage: unknown format %q", opts.Format)
	}
	if err != nil {
		return nil, err
	}

	for _, split := range []*Split{corpus.Train, corpus.Test} {
		if split.Len() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptySplit, split.Name)
		}
		for i, l := range split.Labels {
			if l < 0 || l >= len(corpus.Categories) {
				return nil, fmt.Errorf("%w: %s document %d has label %d (%d categories)",
					ErrLabelRange, split.Name, i, l, len(corpus.Categories))
			}
		}
		clean(split, opts.Remove)
	}
	slog.Debug("Corpus loaded", "folder", s.Folder, "train", corpus.Train.Len(),
		"test", corpus.Test.Len(), "categories", len(corpus.Categories))
	return corpus, nil
}

// loadJSON reads <split>_texts.json and <split>_labels.json for both splits,
// plus an optional categories.json.
func (s *Storage) loadJSON() (*Corpus, error) {
	train, err := s.LoadJSONSplit("train")
	if err != nil {
		return nil, err
	}
	test, err := s.LoadJSONSplit("test")
	if err != nil {
		return nil, err
	}

	var categories []string
	if err := readJSON(filepath.Join(s.Folder, "categories.json"), &categories); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read categories: %w", err)
		}
		categories = defaultCategories(append(lo.Uniq(train.Labels), test.Labels...))
	}
	return &Corpus{Categories: categories, Train: train, Test: test}, nil
}

// LoadJSONSplit reads one split stored as two parallel JSON arrays.
func (s *Storage) LoadJSONSplit(name string) (*Split, error) {
	split := &Split{Name: name}
	textsPath := filepath.Join(s.Folder, name+"_texts.json")
	if err := readJSON(textsPath, &split.Texts); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSplit, textsPath)
		}
		return nil, fmt.Errorf("read %s texts: %w", name, err)
	}
	labelsPath := filepath.Join(s.Folder, name+"_labels.json")
	if err := readJSON(labelsPath, &split.Labels); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSplit, labelsPath)
		}
		return nil, fmt.Errorf("read %s labels: %w", name, err)
	}
	if len(split.Texts) != len(split.Labels) {
		return nil, fmt.Errorf("%w: %s has %d texts and %d labels",
			ErrLengthMismatch, name, len(split.Texts), len(split.Labels))
	}
	return split, nil
}

// loadBydate reads the 20news-bydate-{train,test} directory trees. The
// category list is taken from the training tree.
func (s *Storage) loadBydate() (*Corpus, error) {
	trainDir := filepath.Join(s.Folder, "20news-bydate-train")
	categories, err := listCategories(trainDir)
	if err != nil {
		return nil, err
	}
	train, err := readBydateSplit("train", trainDir, categories)
	if err != nil {
		return nil, err
	}
	test, err := readBydateSplit("test", filepath.Join(s.Folder, "20news-bydate-test"), categories)
	if err != nil {
		return nil, err
	}
	return &Corpus{Categories: categories, Train: train, Test: test}, nil
}

func listCategories(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSplit, dir)
		}
		return nil, err
	}
	dirs := lo.Filter(entries, func(e os.DirEntry, _ int) bool { return e.IsDir() })
	categories := lo.Map(dirs, func(e os.DirEntry, _ int) string { return e.Name() })
	sort.Strings(categories)
	return categories, nil
}

func readBydateSplit(name, dir string, categories []string) (*Split, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSplit, dir)
		}
		return nil, err
	}
	split := &Split{Name: name}
	decoder := charmap.ISO8859_1.NewDecoder()
	for label, category := range categories {
		catDir := filepath.Join(dir, category)
		entries, err := os.ReadDir(catDir)
		if err != nil {
			slog.Warn("Cannot read category", "path", catDir, "error", err)
			continue
		}
		// os.ReadDir sorts by file name; bydate file names are numeric ids
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(catDir, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", e.Name(), err)
			}
			text, err := decoder.Bytes(raw)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", e.Name(), err)
			}
			split.Texts = append(split.Texts, string(text))
			split.Labels = append(split.Labels, label)
		}
	}
	return split, nil
}

func clean(split *Split, remove []string) {
	if len(remove) == 0 {
		return
	}
	headers := lo.Contains(remove, RemoveHeaders)
	quotes := lo.Contains(remove, RemoveQuotes)
	footers := lo.Contains(remove, RemoveFooters)
	for i, text := range split.Texts {
		if headers {
			text = textutil.StripHeader(text)
		}
		if quotes {
			text = textutil.StripQuotes(text)
		}
		if footers {
			text = textutil.StripFooter(text)
		}
		split.Texts[i] = text
	}
}

// defaultCategories names the label ids when no categories.json is present:
// the newsgroup names if the labels fit, otherwise their decimal ids.
func defaultCategories(labels []int) []string {
	if len(labels) == 0 {
		return nil
	}
	maxLabel := lo.Max(labels)
	if maxLabel < len(NewsgroupCategories) {
		return slices.Clone(NewsgroupCategories)
	}
	return lo.Times(maxLabel+1, strconv.Itoa)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// SaveJSON writes corpus in the json layout Load reads by default.
func (s *Storage) SaveJSON(corpus *Corpus) error {
	if err := os.MkdirAll(s.Folder, 0o755); err != nil {
		return fmt.Errorf("storage: create %s: %w", s.Folder, err)
	}
	files := []struct {
		name string
		v    any
	}{
		{"train_texts.json", corpus.Train.Texts},
		{"train_labels.json", corpus.Train.Labels},
		{"test_texts.json", corpus.Test.Texts},
		{"test_labels.json", corpus.Test.Labels},
		{"categories.json", corpus.Categories},
	}
	for _, f := range files {
		data, err := json.Marshal(f.v)
		if err != nil {
			return fmt.Errorf("storage: encode %s: %w", f.name, err)
		}
		if err := os.WriteFile(filepath.Join(s.Folder, f.name), data, 0o644); err != nil {
			return fmt.Errorf("storage: write %s: %w", f.name, err)
		}
	}
	slog.Debug("Corpus saved", "folder", s.Folder, "train", corpus.Train.Len(), "test", corpus.Test.Len())
	return nil
}
