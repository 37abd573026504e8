package search

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// bitcoinTitle is the answer box title the provider uses for BTC spot prices.
const bitcoinTitle = "1 bitcoin ="

var (
	priceTitleTerms   = []string{"price", "stock", "market", "value"}
	weatherTitleTerms = []string{"weather"}
)

// ErrMalformedResponse is returned by Reduce when the payload is not JSON.
var ErrMalformedResponse = errors.New("malformed search response")

// extractor inspects one section of the provider response. The bool is false
// when the section is absent or has nothing usable.
type extractor func(doc gjson.Result) (Fact, bool)

// extractors are tried in priority order; the first hit wins.
var extractors = []extractor{
	fromAnswerBox,
	fromKnowledgeGraph,
	fromOrganic,
}

// Reduce collapses a raw provider response into one Fact.
func Reduce(payload []byte) (Fact, error) {
	if !gjson.ValidBytes(payload) {
		return Fact{}, ErrMalformedResponse
	}

	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return Fact{}, ErrMalformedResponse
	}

	for _, extract := range extractors {
		if fact, ok := extract(doc); ok {
			return fact, nil
		}
	}

	return Fact{Category: CategoryNoResult, Text: NoResultText}, nil
}

func fromAnswerBox(doc gjson.Result) (Fact, bool) {
	box := doc.Get("answerBox")
	if !box.IsObject() {
		return Fact{}, false
	}

	answer := strings.TrimSpace(box.Get("answer").String())
	if answer == "" {
		if snippet := strings.TrimSpace(box.Get("snippet").String()); snippet != "" {
			return Fact{Category: CategorySearchResult, Text: snippet}, true
		}
		return Fact{}, false
	}

	title := strings.TrimSpace(box.Get("title").String())
	lower := strings.ToLower(title)

	switch {
	case lower == bitcoinTitle:
		return Fact{Category: CategoryPrice, Text: answer}, true
	case containsAny(lower, priceTitleTerms):
		return Fact{Category: CategoryPrice, Text: title + ": " + answer}, true
	case containsAny(lower, weatherTitleTerms):
		return Fact{Category: CategoryWeather, Text: answer}, true
	default:
		return Fact{Category: CategoryDirectAnswer, Text: answer}, true
	}
}

func fromKnowledgeGraph(doc gjson.Result) (Fact, bool) {
	kg := doc.Get("knowledgeGraph")
	if !kg.IsObject() {
		return Fact{}, false
	}

	var parts []string
	if v := strings.TrimSpace(kg.Get("title").String()); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(kg.Get("price").String()); v != "" {
		parts = append(parts, "Current value: "+v)
	}
	if v := strings.TrimSpace(kg.Get("description").String()); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(kg.Get("lastUpdated").String()); v != "" {
		parts = append(parts, "Last updated: "+v)
	}

	if len(parts) == 0 {
		return Fact{}, false
	}

	return Fact{Category: CategoryKnowledgeGraph, Text: strings.Join(parts, " - ")}, true
}

func fromOrganic(doc gjson.Result) (Fact, bool) {
	snippet := strings.TrimSpace(doc.Get("organic.0.snippet").String())
	if snippet == "" {
		return Fact{}, false
	}
	return Fact{Category: CategoryOrganicResult, Text: snippet}, true
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
