package rproj

import (
	"errors"
	"fmt"
	"slices"

	"github.com/happyhackingspace/rproj/neighbors"
	"github.com/james-bowman/sparse"
)

const topTermCount = 8

// ErrUnknownTerm is returned when a neighbour query names a term outside the vocabulary.
var ErrUnknownTerm = errors.New("rproj: term not in vocabulary")

// NeighborQuery selects the query vector: the projected one-hot vector of
// Term when set, otherwise the projected training document Doc.
type NeighborQuery struct {
	Doc    int
	Term   string
	K      int
	Metric string
}

// NeighborHit is one retrieved training document.
type NeighborHit struct {
	Doc      int
	Distance float64
	Category string
	Text     string
}

// NeighborResult holds the answer to a NeighborQuery.
type NeighborResult struct {
	Query      string
	Category   string   // category of the query document, empty for term queries
	Terms      []string // highest weighted terms of the query document
	Components int
	Hits       []NeighborHit
}

// Neighbors projects the training corpus and returns the K training documents
// closest to the query.
func Neighbors(cfg *ExperimentConfig, q NeighborQuery) (*NeighborResult, error) {
	if cfg == nil {
		cfg = DefaultExperimentConfig()
	}
	if q.Metric == "" {
		q.Metric = string(neighbors.Cosine)
	}
	metric, err := neighbors.ParseMetric(q.Metric)
	if err != nil {
		return nil, fmt.Errorf("rproj: %w", err)
	}

	p, err := prepare(cfg)
	if err != nil {
		return nil, fmt.Errorf("rproj: %w", err)
	}

	rows, err := p.proj.Transform(p.train)
	if err != nil {
		return nil, fmt.Errorf("rproj: %w", err)
	}
	index, err := neighbors.NewIndex(rows, metric)
	if err != nil {
		return nil, fmt.Errorf("rproj: %w", err)
	}

	result := &NeighborResult{Components: index.Dim()}
	var hits []neighbors.Neighbor
	if q.Term != "" {
		j, ok := p.tfidf.CountVec.TermIndex(q.Term)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, q.Term)
		}
		vec, err := p.proj.ProjectTerm(j)
		if err != nil {
			return nil, fmt.Errorf("rproj: %w", err)
		}
		result.Query = fmt.Sprintf("term %q", q.Term)
		hits, err = index.Search(vec, q.K)
		if errors.Is(err, neighbors.ErrZeroQuery) {
			return nil, fmt.Errorf("rproj: term %q projects to the zero vector: %w", q.Term, err)
		}
		if err != nil {
			return nil, fmt.Errorf("rproj: %w", err)
		}
	} else {
		result.Query = fmt.Sprintf("document %d", q.Doc)
		hits, err = index.SearchDoc(q.Doc, q.K)
		if err != nil {
			return nil, fmt.Errorf("rproj: %w", err)
		}
		result.Category = p.corpus.Categories[p.corpus.Train.Labels[q.Doc]]
		result.Terms = topTerms(p.train, q.Doc, p.tfidf.CountVec.Terms(), topTermCount)
	}

	train := p.corpus.Train
	for _, h := range hits {
		result.Hits = append(result.Hits, NeighborHit{
			Doc:      h.Doc,
			Distance: h.Distance,
			Category: p.corpus.Categories[train.Labels[h.Doc]],
			Text:     train.Texts[h.Doc],
		})
	}
	return result, nil
}

// topTerms returns up to n vocabulary terms of a document row, heaviest
// first, ties by column.
func topTerms(m *sparse.CSR, row int, vocab []string, n int) []string {
	raw := m.RawMatrix()
	entries := make([]int, 0, raw.Indptr[row+1]-raw.Indptr[row])
	for k := raw.Indptr[row]; k < raw.Indptr[row+1]; k++ {
		entries = append(entries, k)
	}
	slices.SortStableFunc(entries, func(a, b int) int {
		if raw.Data[a] != raw.Data[b] {
			if raw.Data[a] > raw.Data[b] {
				return -1
			}
			return 1
		}
		return raw.Ind[a] - raw.Ind[b]
	})
	terms := make([]string, 0, min(n, len(entries)))
	for _, k := range entries[:min(n, len(entries))] {
		terms = append(terms, vocab[raw.Ind[k]])
	}
	return terms
}
