package services

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/FumingPower3925/ttrpg-session-manager/logger"
	"github.com/FumingPower3925/ttrpg-session-manager/types"
)

// DefaultMaxResults caps a search when the caller does not say otherwise.
const DefaultMaxResults = 10

// A filename token is worth far more than any realistic number of body
// occurrences, so a name match always outranks a body-only match.
const nameTokenWeight = 10000.0

// SearchIndex is an inverted index over session documents. It is rebuilt
// wholesale whenever the document set changes and serves synchronous,
// read-only queries in between.
type SearchIndex struct {
	mu        sync.RWMutex
	documents []types.SearchDocument
	// token -> document ordinal -> per-field hit counts
	nameHits map[string]map[int]int
	bodyHits map[string]map[int]int
}

// NewSearchIndex creates an empty index.
func NewSearchIndex() *SearchIndex {
	idx := &SearchIndex{}
	idx.reset(nil)
	return idx
}

func (idx *SearchIndex) reset(docs []types.SearchDocument) {
	idx.documents = docs
	idx.nameHits = make(map[string]map[int]int)
	idx.bodyHits = make(map[string]map[int]int)
}

// IndexDocuments replaces the whole index with a fresh document set. The
// prior index is discarded; there is no incremental patching.
func (idx *SearchIndex) IndexDocuments(docs []types.SearchDocument) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset(docs)
	for ord, doc := range docs {
		for _, token := range tokenize(doc.Reference.Name) {
			addHit(idx.nameHits, token, ord)
		}
		for _, token := range tokenize(doc.RawContent) {
			addHit(idx.bodyHits, token, ord)
		}
	}
}

func addHit(field map[string]map[int]int, token string, ord int) {
	if field[token] == nil {
		field[token] = make(map[int]int)
	}
	field[token][ord]++
}

// Search returns at most maxResults ranked hits for query. A blank query
// returns nothing. Filename matches rank above body-only matches regardless
// of body hit counts. Any internal failure yields empty results rather than
// propagating; search is never allowed to take the session down.
func (idx *SearchIndex) Search(query string, maxResults int) (results []types.SearchResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.L().Errorw("search failed", "query", query, "panic", r)
			results = nil
		}
	}()

	queryWords := tokenize(query)
	if len(queryWords) == 0 {
		return nil
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	scores := make(map[int]float64)
	for _, word := range queryWords {
		for ord, count := range idx.nameHits[word] {
			scores[ord] += nameTokenWeight * float64(count)
		}
		for ord, count := range idx.bodyHits[word] {
			scores[ord] += float64(count)
		}
		// Prefix matches on filenames keep partially-typed queries useful.
		for token, hits := range idx.nameHits {
			if token != word && strings.HasPrefix(token, word) {
				for ord, count := range hits {
					scores[ord] += nameTokenWeight / 2 * float64(count)
				}
			}
		}
	}

	ordinals := make([]int, 0, len(scores))
	for ord := range scores {
		ordinals = append(ordinals, ord)
	}
	sort.Slice(ordinals, func(i, j int) bool {
		if scores[ordinals[i]] != scores[ordinals[j]] {
			return scores[ordinals[i]] > scores[ordinals[j]]
		}
		return ordinals[i] < ordinals[j]
	})

	if len(ordinals) > maxResults {
		ordinals = ordinals[:maxResults]
	}

	results = make([]types.SearchResult, 0, len(ordinals))
	for _, ord := range ordinals {
		doc := idx.documents[ord]
		results = append(results, types.SearchResult{
			Reference:   doc.Reference,
			MatchedName: doc.Reference.Name,
			Score:       scores[ord],
			Snippet:     BuildSnippet(doc.RawContent, queryWords),
		})
	}
	return results
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
