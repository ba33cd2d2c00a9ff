package vectorizer

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/happyhackingspace/rproj/internal/textutil"
	"github.com/kljensen/snowball"
)

// CountVectorizer converts text to token count vectors.
type CountVectorizer struct {
	Vocabulary map[string]int
	NgramRange [2]int
	Binary     bool
	Analyzer   string // "word" or "char_wb"
	MinDF      int
	MaxDF      float64 // fraction of documents; terms above it are dropped
	StopWords  map[string]bool
	Stem       bool

	// DocFreq[i] is the number of fitted documents containing term i.
	DocFreq []int
	// NumDocs is the size of the fitted corpus.
	NumDocs int

	terms []string
}

// NewCountVectorizer creates a CountVectorizer with default settings.
func NewCountVectorizer(ngramRange [2]int, binary bool, analyzer string, minDF int) *CountVectorizer {
	if analyzer == "" {
		analyzer = "word"
	}
	if minDF < 1 {
		minDF = 1
	}
	if ngramRange[0] < 1 {
		ngramRange = [2]int{1, 1}
	}
	return &CountVectorizer{
		NgramRange: ngramRange,
		Binary:     binary,
		Analyzer:   analyzer,
		MinDF:      minDF,
		MaxDF:      1.0,
	}
}

// analyze extracts features from text based on the analyzer type.
func (cv *CountVectorizer) analyze(text string) []string {
	text = strings.ToLower(text)
	if cv.Analyzer == "char_wb" {
		return charWbNgrams(text, cv.NgramRange[0], cv.NgramRange[1])
	}
	tokens := textutil.TokenizeMin(text, 2)
	if len(cv.StopWords) > 0 || cv.Stem {
		kept := tokens[:0]
		for _, tok := range tokens {
			if cv.StopWords[tok] {
				continue
			}
			if cv.Stem {
				tok = stem(tok)
			}
			kept = append(kept, tok)
		}
		tokens = kept
	}
	return textutil.TokenNgrams(tokens, cv.NgramRange[0], cv.NgramRange[1])
}

func stem(tok string) string {
	stemmed, err := snowball.Stem(tok, "english", true)
	if err != nil || stemmed == "" {
		return tok
	}
	return stemmed
}

// charWbNgrams extracts character n-grams within word boundaries.
// Each word is padded with spaces, and n-grams are extracted from padded words.
func charWbNgrams(text string, minN, maxN int) []string {
	tokens := textutil.Tokenize(text)
	var result []string
	for _, token := range tokens {
		padded := " " + token + " "
		result = append(result, textutil.Ngrams(padded, minN, maxN)...)
	}
	return result
}

// Fit builds the vocabulary from a corpus.
func (cv *CountVectorizer) Fit(corpus []string) {
	dfCounts := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, f := range cv.analyze(doc) {
			if !seen[f] {
				dfCounts[f]++
				seen[f] = true
			}
		}
	}

	maxDocs := len(corpus)
	if cv.MaxDF > 0 && cv.MaxDF < 1 {
		maxDocs = int(cv.MaxDF * float64(len(corpus)))
	}

	// Sort terms for deterministic ordering
	terms := make([]string, 0, len(dfCounts))
	for term, count := range dfCounts {
		if count >= cv.MinDF && count <= maxDocs {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)

	cv.Vocabulary = make(map[string]int, len(terms))
	cv.DocFreq = make([]int, len(terms))
	for i, term := range terms {
		cv.Vocabulary[term] = i
		cv.DocFreq[i] = dfCounts[term]
	}
	cv.terms = terms
	cv.NumDocs = len(corpus)
	slog.Debug("Vocabulary built", "documents", len(corpus), "candidates", len(dfCounts), "terms", len(terms))
}

// FitTransform fits the vocabulary and transforms the corpus.
func (cv *CountVectorizer) FitTransform(corpus []string) []SparseVector {
	cv.Fit(corpus)
	result := make([]SparseVector, len(corpus))
	for i, doc := range corpus {
		result[i] = cv.Transform(doc)
	}
	return result
}

// Transform converts a single document to a sparse vector.
// Terms outside the fitted vocabulary are ignored.
func (cv *CountVectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, f := range cv.analyze(text) {
		if idx, ok := cv.Vocabulary[f]; ok {
			if cv.Binary {
				counts[idx] = 1
			} else {
				counts[idx]++
			}
		}
	}
	return fromCounts(len(cv.Vocabulary), counts)
}

// VocabSize returns the vocabulary size.
func (cv *CountVectorizer) VocabSize() int {
	return len(cv.Vocabulary)
}

// Terms returns the vocabulary ordered by column index.
func (cv *CountVectorizer) Terms() []string {
	if len(cv.terms) != len(cv.Vocabulary) {
		cv.terms = make([]string, len(cv.Vocabulary))
		for term, idx := range cv.Vocabulary {
			cv.terms[idx] = term
		}
	}
	return cv.terms
}

// TermIndex returns the column of a term after the same normalization
// (lowercasing, stemming) applied to documents.
func (cv *CountVectorizer) TermIndex(term string) (int, bool) {
	features := cv.analyze(term)
	if len(features) != 1 {
		return 0, false
	}
	idx, ok := cv.Vocabulary[features[0]]
	return idx, ok
}
