// Package classify annotates items via an external classifier and applies
// the relevance filter.
package classify

import "context"

// Request carries one item's material to the classifier.
type Request struct {
	Title   string
	Source  string
	Content string
}

// Result is the structured classifier output for one item.
type Result struct {
	Category string
	Relevant bool
	Title    string
	Summary  string
}

// Classifier produces a category, a relevance verdict, and a short summary
// for one item, or a longer free-form reading of it.
type Classifier interface {
	Classify(ctx context.Context, req Request) (Result, error)
	Detail(ctx context.Context, req Request) (string, error)
}
