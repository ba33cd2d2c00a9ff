// Package neighbors answers k-nearest-neighbour queries over the rows of a
// dense document matrix.
package neighbors

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/james-bowman/nlp/measures/pairwise"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidK          = errors.New("neighbors: k must be positive")
	ErrDimensionMismatch = errors.New("neighbors: dimension mismatch")
	ErrUnknownMetric     = errors.New("neighbors: unknown metric")
	ErrEmptyIndex        = errors.New("neighbors: index has no rows")
	ErrZeroQuery         = errors.New("neighbors: cosine query has zero norm")
)

// Metric names a distance function between two vectors.
type Metric string

const (
	Cosine    Metric = "cosine"
	Euclidean Metric = "euclidean"
)

// ParseMetric maps a metric name to a Metric, case-insensitively.
func ParseMetric(name string) (Metric, error) {
	switch m := Metric(strings.ToLower(name)); m {
	case Cosine, Euclidean:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

func (m Metric) distance() (func(a, b mat.Vector) float64, error) {
	switch m {
	case Cosine:
		return pairwise.CosineDistance, nil
	case Euclidean:
		return pairwise.EuclideanDistance, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, string(m))
	}
}

// Neighbor is one search hit.
type Neighbor struct {
	Doc      int
	Distance float64
}

// Index holds the rows to search. The rows are not copied and must not be
// modified while the index is in use.
type Index struct {
	rows   *mat.Dense
	metric Metric
	dist   func(a, b mat.Vector) float64
}

// NewIndex creates an index over the rows of rows.
func NewIndex(rows *mat.Dense, metric Metric) (*Index, error) {
	if rows == nil || rows.IsEmpty() {
		return nil, ErrEmptyIndex
	}
	dist, err := metric.distance()
	if err != nil {
		return nil, err
	}
	return &Index{rows: rows, metric: metric, dist: dist}, nil
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int {
	r, _ := ix.rows.Dims()
	return r
}

// Dim returns the width of the indexed rows.
func (ix *Index) Dim() int {
	_, c := ix.rows.Dims()
	return c
}

// Metric returns the metric the index ranks by.
func (ix *Index) Metric() Metric {
	return ix.metric
}

// Search returns the k rows closest to query, nearest first. Equal
// distances are ordered by ascending row index. k is clamped to Len. Under
// the cosine metric a zero query has no direction and fails with ErrZeroQuery.
func (ix *Index) Search(query mat.Vector, k int) ([]Neighbor, error) {
	return ix.search(query, k, -1)
}

// SearchDoc queries with row doc of the index and leaves doc itself out of
// the result.
func (ix *Index) SearchDoc(doc, k int) ([]Neighbor, error) {
	if doc < 0 || doc >= ix.Len() {
		return nil, fmt.Errorf("neighbors: document %d outside [0, %d)", doc, ix.Len())
	}
	return ix.search(ix.rows.RowView(doc), k, doc)
}

func (ix *Index) search(query mat.Vector, k, exclude int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidK, k)
	}
	if query.Len() != ix.Dim() {
		return nil, fmt.Errorf("%w: query has %d dimensions, index has %d",
			ErrDimensionMismatch, query.Len(), ix.Dim())
	}
	if ix.metric == Cosine && mat.Norm(query, 2) == 0 {
		return nil, ErrZeroQuery
	}

	hits := make([]Neighbor, 0, ix.Len())
	for i := range ix.Len() {
		if i == exclude {
			continue
		}
		d := ix.dist(query, ix.rows.RowView(i))
		if math.IsNaN(d) {
			// cosine against a zero row
			d = math.Inf(1)
		}
		hits = append(hits, Neighbor{Doc: i, Distance: d})
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Distance < hits[b].Distance
	})
	return hits[:min(k, len(hits))], nil
}
