package vectorizer

import (
	"errors"
	"math"

	"github.com/james-bowman/sparse"
)

// ErrNotFitted is returned when transforming with a vectorizer that has no vocabulary.
var ErrNotFitted = errors.New("vectorizer: not fitted")

// ErrEmptyVocabulary is returned when fitting leaves no terms (empty corpus or over-aggressive df limits).
var ErrEmptyVocabulary = errors.New("vectorizer: empty vocabulary")

// TfidfVectorizer converts text to TF-IDF weighted, L2-normalized vectors.
type TfidfVectorizer struct {
	CountVec *CountVectorizer
	IDF      []float64
	// SublinearTF replaces tf with 1 + ln(tf).
	SublinearTF bool
}

// NewTfidfVectorizer creates a TfidfVectorizer.
func NewTfidfVectorizer(ngramRange [2]int, minDF int, binary bool, analyzer string, stopWords map[string]bool) *TfidfVectorizer {
	cv := NewCountVectorizer(ngramRange, binary, analyzer, minDF)
	cv.StopWords = stopWords
	return &TfidfVectorizer{CountVec: cv}
}

// Fit computes IDF values from a corpus.
func (tv *TfidfVectorizer) Fit(corpus []string) error {
	tv.CountVec.Fit(corpus)
	vocabSize := tv.CountVec.VocabSize()
	if vocabSize == 0 {
		return ErrEmptyVocabulary
	}

	// smooth IDF: log((1 + n) / (1 + df)) + 1
	nDocs := float64(tv.CountVec.NumDocs)
	tv.IDF = make([]float64, vocabSize)
	for i, df := range tv.CountVec.DocFreq {
		tv.IDF[i] = math.Log((1+nDocs)/(1+float64(df))) + 1
	}
	return nil
}

// FitTransform fits the corpus and returns its document-term matrix.
func (tv *TfidfVectorizer) FitTransform(corpus []string) (*sparse.CSR, error) {
	if err := tv.Fit(corpus); err != nil {
		return nil, err
	}
	return tv.TransformCorpus(corpus)
}

// TransformCorpus returns the (len(corpus) x VocabSize) document-term matrix.
func (tv *TfidfVectorizer) TransformCorpus(corpus []string) (*sparse.CSR, error) {
	if len(tv.IDF) == 0 {
		return nil, ErrNotFitted
	}
	rows := make([]SparseVector, len(corpus))
	for i, doc := range corpus {
		rows[i] = tv.Transform(doc)
	}
	return StackCSR(rows, tv.VocabSize()), nil
}

// Transform converts a single document to a TF-IDF sparse vector.
func (tv *TfidfVectorizer) Transform(text string) SparseVector {
	sv := tv.CountVec.Transform(text)
	for i, idx := range sv.Indices {
		if tv.SublinearTF {
			sv.Values[i] = 1 + math.Log(sv.Values[i])
		}
		if idx < len(tv.IDF) {
			sv.Values[i] *= tv.IDF[idx]
		}
	}
	// L2 normalize each row
	sv.Normalize()
	return sv
}

// VocabSize returns the vocabulary size.
func (tv *TfidfVectorizer) VocabSize() int {
	return tv.CountVec.VocabSize()
}

// EnglishStopWords returns a common English stop word set.
func EnglishStopWords() map[string]bool {
	words := []string{
		"a", "about", "above", "after", "again", "against", "ain", "all", "am",
		"an", "and", "any", "are", "aren", "aren't", "as", "at", "be", "because",
		"been", "before", "being", "below", "between", "both", "but", "by", "can",
		"couldn", "couldn't", "d", "did", "didn", "didn't", "do", "does", "doesn",
		"doesn't", "doing", "don", "don't", "down", "during", "each", "few", "for",
		"from", "further", "had", "hadn", "hadn't", "has", "hasn", "hasn't", "have",
		"haven", "haven't", "having", "he", "her", "here", "hers", "herself", "him",
		"himself", "his", "how", "i", "if", "in", "into", "is", "isn", "isn't", "it",
		"it's", "its", "itself", "just", "ll", "m", "ma", "me", "mightn", "mightn't",
		"more", "most", "mustn", "mustn't", "my", "myself", "needn", "needn't", "no",
		"nor", "not", "now", "o", "of", "off", "on", "once", "only", "or", "other",
		"our", "ours", "ourselves", "out", "over", "own", "re", "s", "same", "shan",
		"shan't", "she", "she's", "should", "should've", "shouldn", "shouldn't", "so",
		"some", "such", "t", "than", "that", "that'll", "the", "their", "theirs",
		"them", "themselves", "then", "there", "these", "they", "this", "those",
		"through", "to", "too", "under", "until", "up", "ve", "very", "was", "wasn",
		"wasn't", "we", "were", "weren", "weren't", "what", "when", "where", "which",
		"while", "who", "whom", "why", "will", "with", "won", "won't", "wouldn",
		"wouldn't", "y", "you", "you'd", "you'll", "you're", "you've", "your",
		"yours", "yourself", "yourselves",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
