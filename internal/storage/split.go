// Package storage reads the Twenty Newsgroups train/test splits from a data folder.
package storage

import "errors"

var (
	ErrMissingSplit   = errors.New("storage: split not found")
	ErrLengthMismatch = errors.New("storage: texts and labels differ in length")
	ErrLabelRange     = errors.New("storage: label out of range")
	ErrEmptySplit     = errors.New("storage: split has no documents")
)

// Split holds the documents of one corpus split.
type Split struct {
	Name   string
	Texts  []string
	Labels []int // category ids, index into Corpus.Categories
}

// Len returns the number of documents.
func (s *Split) Len() int {
	return len(s.Texts)
}

// Corpus is a train/test pair sharing one category list.
type Corpus struct {
	Categories []string
	Train      *Split
	Test       *Split
}

// NewsgroupCategories are the twenty category names in label order.
var NewsgroupCategories = []string{
	"alt.atheism",
	"comp.graphics",
	"comp.os.ms-windows.misc",
	"comp.sys.ibm.pc.hardware",
	"comp.sys.mac.hardware",
	"comp.windows.x",
	"misc.forsale",
	"rec.autos",
	"rec.motorcycles",
	"rec.sport.baseball",
	"rec.sport.hockey",
	"sci.crypt",
	"sci.electronics",
	"sci.med",
	"sci.space",
	"soc.religion.christian",
	"talk.politics.guns",
	"talk.politics.mideast",
	"talk.politics.misc",
	"talk.religion.misc",
}
