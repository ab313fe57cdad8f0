// Package bm25 implements a term → adaptive-posting-list inverted index and
// Okapi BM25 scoring over it, matching this lineage's BM25 component but
// built from scratch: the teacher's BM25 support is a thin wrapper over
// Bleve (internal/store/bm25.go, pkg/indexer/bm25.go); this engine needs
// its own in-process index sharing the collection's id space, posting
// cardinality crossover, and score merge described directly.
package bm25

import (
	"math"
	"sort"
	"sync"
)

// Config tunes BM25 scoring and tokenization.
type Config struct {
	K1        float64
	B         float64
	StopWords map[string]struct{} // nil disables stop-word filtering
}

// DefaultConfig returns k1≈1.2, b≈0.75 with no stop-word filtering.
func DefaultConfig() Config {
	return Config{K1: 1.2, B: 0.75}
}

type docEntry struct {
	length    int
	termFreqs map[string]int
}

// Index is a BM25 inverted index over documents identified by the
// collection's internal u64 index space.
type Index struct {
	mu sync.RWMutex

	config Config

	postings map[string]*postingList
	docs     map[uint64]*docEntry

	totalLength int
}

// New creates an empty index.
func New(config Config) *Index {
	return &Index{
		config:   config,
		postings: make(map[string]*postingList),
		docs:     make(map[uint64]*docEntry),
	}
}

// Index tokenizes text and records it under id, replacing any prior
// document at that id.
func (idx *Index) Index(id uint64, text string) {
	tokens := Tokenize(text, idx.config.StopWords)

	termFreqs := make(map[string]int, len(tokens))
	for _, t := range tokens {
		termFreqs[t]++
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.docs[id]; ok {
		idx.removeLocked(id, existing)
	}

	idx.docs[id] = &docEntry{length: len(tokens), termFreqs: termFreqs}
	idx.totalLength += len(tokens)

	for term := range termFreqs {
		pl, ok := idx.postings[term]
		if !ok {
			pl = newPostingList()
			idx.postings[term] = pl
		}
		pl.insert(id)
	}
}

// Delete removes a document from the index. Deleting an unknown id is a
// no-op.
func (idx *Index) Delete(id uint64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	entry, ok := idx.docs[id]
	if !ok {
		return
	}
	idx.removeLocked(id, entry)
	delete(idx.docs, id)
}

func (idx *Index) removeLocked(id uint64, entry *docEntry) {
	idx.totalLength -= entry.length
	for term := range entry.termFreqs {
		if pl, ok := idx.postings[term]; ok {
			pl.remove(id)
			if pl.isEmpty() {
				delete(idx.postings, term)
			}
		}
	}
}

// Hit is one scored document.
type Hit struct {
	ID    uint64
	Score float64
}

// Search tokenizes query, scores every document containing at least one
// query term with Okapi BM25, and returns the top k by descending score.
func (idx *Index) Search(query string, k int) []Hit {
	queryTerms := Tokenize(query, idx.config.StopWords)
	if len(queryTerms) == 0 || k <= 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	docCount := len(idx.docs)
	if docCount == 0 {
		return nil
	}
	avgDocLength := float64(idx.totalLength) / float64(docCount)

	scores := make(map[uint64]float64)
	seen := make(map[string]bool, len(queryTerms))

	for _, term := range queryTerms {
		if seen[term] {
			continue
		}
		seen[term] = true

		pl, ok := idx.postings[term]
		if !ok {
			continue
		}
		df := pl.len()
		idf := math.Log(1 + (float64(docCount)-float64(df)+0.5)/(float64(df)+0.5))

		pl.each(func(id uint64) {
			entry := idx.docs[id]
			tf := float64(entry.termFreqs[term])
			denom := tf + idx.config.K1*(1-idx.config.B+idx.config.B*float64(entry.length)/avgDocLength)
			scores[id] += idf * (tf * (idx.config.K1 + 1)) / denom
		})
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, Hit{ID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].ID < hits[j].ID
		}
		return hits[i].Score > hits[j].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// Stats summarizes index size for diagnostics.
type Stats struct {
	DocumentCount int
	TermCount     int
	AvgDocLength  float64
}

// Stats returns a snapshot of index size.
func (idx *Index) Stats() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	avg := 0.0
	if len(idx.docs) > 0 {
		avg = float64(idx.totalLength) / float64(len(idx.docs))
	}
	return Stats{
		DocumentCount: len(idx.docs),
		TermCount:     len(idx.postings),
		AvgDocLength:  avg,
	}
}

// Contains reports whether id has a document in the index.
func (idx *Index) Contains(id uint64) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.docs[id]
	return ok
}
