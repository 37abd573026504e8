// Package search decides when a query needs live web context and reduces a
// search provider's response into a single canonical fact.
package search

import "fmt"

// Category classifies a reduced search result.
type Category string

const (
	CategoryPrice          Category = "PRICE"
	CategoryWeather        Category = "WEATHER"
	CategoryDirectAnswer   Category = "DIRECT_ANSWER"
	CategorySearchResult   Category = "SEARCH_RESULT"
	CategoryKnowledgeGraph Category = "KNOWLEDGE_GRAPH"
	CategoryOrganicResult  Category = "ORGANIC_RESULT"
	CategoryNoResult       Category = "NO_RESULT"
	CategoryError          Category = "ERROR"
)

const (
	// NoResultText is the fact text emitted when the provider had nothing usable.
	NoResultText = "No information available."

	// ErrorText is the fact text emitted when the lookup itself failed.
	ErrorText = "Search is unavailable right now."
)

// Fact is a single piece of web context. Text never contains the category tag.
type Fact struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

// String renders the fact with its tag, for logs.
func (f Fact) String() string {
	return fmt.Sprintf("[%s] %s", f.Category, f.Text)
}

// Informative reports whether the fact carries real content rather than a
// "nothing found" or failure placeholder.
func (f Fact) Informative() bool {
	return f.Category != CategoryNoResult && f.Category != CategoryError
}
