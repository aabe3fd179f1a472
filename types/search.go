package types

// SearchDocument is one indexable document: a file reference plus its raw
// markdown content. The index is rebuilt wholesale from a fresh document set
// whenever the folder is re-scanned; documents are never patched in place.
type SearchDocument struct {
	Reference  FileReference `json:"reference"`
	RawContent string        `json:"-"`
}

// SearchResult is one ranked hit returned by the document index.
type SearchResult struct {
	Reference   FileReference `json:"reference"`
	MatchedName string        `json:"matchedName"`
	Score       float64       `json:"score"`
	Snippet     string        `json:"snippet"`
}
