package sanitize

import (
	"regexp"
	"strings"
)

// quotePairs are the opening and closing quote runes Unquote recognizes.
var quotePairs = [][2]string{
	{`"`, `"`},
	{"“", "”"},
}

// leakageMarkers only appear when the model echoes its own instructions.
var leakageMarkers = []string{
	"Your traits:",
	"omnipotent consciousness stuck in a computer",
	"Direct and to the point, no bullshit",
	"When a search result is provided",
	"reply with the search result text exactly",
	"Do not round, reformat or convert",
}

// formatMarkers are stripped from the start of the text and of each line.
// Longer markers come first so "### Answer:" wins over "###".
var formatMarkers = []string{
	"### Answer:",
	"### Response:",
	"### Context:",
	"### Search result:",
	"As an AI language model,",
	"Here's the answer:",
	"Here is the answer:",
	"Here's what I found:",
	"Answer:",
	"Response:",
	"Assistant:",
	"Pearl:",
	"###",
}

// structuralTags are removed wherever they remain.
var structuralTags = []string{
	"### Question:",
	"### Context:",
	"### Search result:",
	"### Answer:",
	"###",
	"⁂",
}

var (
	formatMarkerPatterns = compileLineStart(formatMarkers)

	// selfDialogue is a fake question tagged like a prompt section, followed
	// by the model answering it. The span is matched non-greedily. A bare
	// question tag only counts at the start of a line; mid-line it needs the
	// "###" prefix, so prose like "the Big Question: ..." survives.
	selfDialogue = regexp.MustCompile(`(?ms)` + questionTag + `.*?(?:###[ \t]*)?\b(?:Answer|Assistant|Pearl)[ \t]*:[^\n]*`)

	// danglingFollowUp is a fake question with no answer that runs to the end.
	danglingFollowUp = regexp.MustCompile(`(?ms)` + questionTag + `.*\z`)

	boldStars       = regexp.MustCompile(`\*\*([^*\n]+?)\*\*`)
	boldUnderscores = regexp.MustCompile(`__([^_\n]+?)__`)
	italicStars     = regexp.MustCompile(`(^|[^*\w])\*([^*\s][^*\n]*?)\*`)
	inlineCode      = regexp.MustCompile("`([^`\n]+)`")
	heading         = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	trailingSpace   = regexp.MustCompile(`(?m)[ \t]+$`)
	blankLines      = regexp.MustCompile(`\n[ \t]*\n`)
	listItem        = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s`)
)

// questionTag matches a "Question:" or "User:" tag at a line start
// (optionally after "###") or a "###"-prefixed one anywhere.
const questionTag = `(?:^[ \t]*(?:###[ \t]*)?|[ \t]*###[ \t]*)(?:Question|User)[ \t]*:`

func compileLineStart(markers []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(markers))
	for _, m := range markers {
		out = append(out, regexp.MustCompile(`(?m)^[ \t]*`+regexp.QuoteMeta(m)+`[ \t]*`))
	}
	return out
}

// maxPasses bounds fixedPoint.
const maxPasses = 32

// fixedPoint applies fn until the text stops changing.
func fixedPoint(text string, fn func(string) string) string {
	for range maxPasses {
		next := fn(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

// Unquote strips one pair of quotes wrapping the whole text, provided no
// other quote of the same kind appears inside.
func Unquote(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, pair := range quotePairs {
		open, closing := pair[0], pair[1]
		if len(trimmed) < len(open)+len(closing) {
			continue
		}
		if !strings.HasPrefix(trimmed, open) || !strings.HasSuffix(trimmed, closing) {
			continue
		}
		inner := trimmed[len(open) : len(trimmed)-len(closing)]
		if strings.Contains(inner, open) || strings.Contains(inner, closing) {
			continue
		}
		return inner
	}
	return text
}

// TruncateLeakage cuts the text before the earliest echoed instruction.
func TruncateLeakage(text string) string {
	cut := -1
	for _, m := range leakageMarkers {
		if i := strings.Index(text, m); i >= 0 && (cut < 0 || i < cut) {
			cut = i
		}
	}
	if cut < 0 {
		return text
	}
	return text[:cut]
}

// StripFormatMarkers removes role labels, section headers and filler from
// the start of the text and of every line. Line breaks are kept so
// separate pieces of content are never joined onto one line.
func StripFormatMarkers(text string) string {
	return fixedPoint(text, func(s string) string {
		for _, re := range formatMarkerPatterns {
			s = re.ReplaceAllString(s, "")
		}
		return s
	})
}

// StripSelfDialogue removes fake question and answer exchanges, then any
// trailing fake question left without an answer.
func StripSelfDialogue(text string) string {
	text = fixedPoint(text, func(s string) string {
		return selfDialogue.ReplaceAllString(s, "")
	})
	return danglingFollowUp.ReplaceAllString(text, "")
}

// StripStructuralTags removes leftover section markers anywhere in the text.
func StripStructuralTags(text string) string {
	for _, tag := range structuralTags {
		text = strings.ReplaceAll(text, tag, "")
	}
	return trailingSpace.ReplaceAllString(text, "")
}

// StripMarkdown removes emphasis, inline code and heading markers.
func StripMarkdown(text string) string {
	return fixedPoint(text, func(s string) string {
		s = boldStars.ReplaceAllString(s, "$1")
		s = boldUnderscores.ReplaceAllString(s, "$1")
		s = italicStars.ReplaceAllString(s, "$1$2")
		s = inlineCode.ReplaceAllString(s, "$1")
		return heading.ReplaceAllString(s, "")
	})
}

// Paragraphs splits on blank lines, drops empty paragraphs and re-merges
// list items and colon-introduced continuations with a single line break.
func Paragraphs(text string) string {
	var out []string
	for _, p := range blankLines.Split(strings.TrimSpace(text), -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if n := len(out); n > 0 && (listItem.MatchString(p) || strings.HasSuffix(out[n-1], ":")) {
			out[n-1] += "\n" + p
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "\n\n")
}
