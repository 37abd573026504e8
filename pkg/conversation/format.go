package conversation

import (
	"strings"

	"github.com/papercomputeco/pearl/pkg/llm"
)

// ContextDelimiter separates rendered turns. The glyph is rare enough in
// natural text to double as a stop sequence.
const ContextDelimiter = "\n⁂\n"

// contextTurns is how many of the most recent turns are rendered.
const contextTurns = 2

var referentialKeywords = []string{
	"previous",
	"earlier",
	"before",
	"last time",
	"what did",
	"you said",
	"i said",
	"i asked",
	"you mentioned",
	"mentioned",
	"remember",
	"recall",
	"we talked",
	"we discussed",
	"go back to",
	"as you said",
	"that again",
}

var followUps = []string{
	"why",
	"how so",
	"how come",
	"what about",
	"and you",
	"and then",
	"what else",
	"like what",
	"really",
	"are you sure",
	"tell me more",
	"go on",
	"elaborate",
}

// maxFollowUpWords bounds how long a query may be and still count as a
// follow-up to the previous answer.
const maxFollowUpWords = 5

// FormatTurns renders the last two turns as role-prefixed lines joined by
// ContextDelimiter.
func FormatTurns(turns []llm.Turn) string {
	if len(turns) > contextTurns {
		turns = turns[len(turns)-contextTurns:]
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Label()+": "+t.Content)
	}
	return strings.Join(lines, ContextDelimiter)
}

// IsReferential reports whether the query refers back to the conversation,
// either with an explicit keyword or as a short interrogative follow-up.
func IsReferential(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}

	for _, k := range referentialKeywords {
		if strings.Contains(q, k) {
			return true
		}
	}

	if len(strings.Fields(q)) > maxFollowUpWords {
		return false
	}

	stripped := strings.TrimRight(q, "?!. ")
	for _, f := range followUps {
		if stripped == f || strings.HasPrefix(stripped, f+" ") {
			return true
		}
	}

	return false
}
