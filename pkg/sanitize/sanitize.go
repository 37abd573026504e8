// Package sanitize cleans raw generation output before it reaches a caller.
//
// Clean runs an ordered list of pure string transformations. Each step is
// exported so it can be tested on its own.
package sanitize

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

var fallbacks = []string{
	"I don't know.",
	"No idea.",
	"Beats me.",
	"I'm not sure about that.",
	"Can't say.",
}

// terminalPunctuation are the runes a cleaned reply may end with.
const terminalPunctuation = ".!?:-"

// Fallbacks returns the canned replies used for empty or degenerate output.
func Fallbacks() []string {
	out := make([]string, len(fallbacks))
	copy(out, fallbacks)
	return out
}

// Picker chooses one of the fallback replies.
type Picker func(options []string) string

// RandomPicker picks a fallback uniformly at random.
func RandomPicker(options []string) string {
	return options[rand.IntN(len(options))]
}

// FirstPicker always picks the first fallback.
func FirstPicker(options []string) string {
	return options[0]
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithPicker overrides how fallbacks are chosen.
func WithPicker(p Picker) Option {
	return func(s *Sanitizer) {
		s.pick = p
	}
}

// Sanitizer cleans generation output.
type Sanitizer struct {
	pick Picker
}

// New creates a Sanitizer. Fallbacks are picked at random unless overridden.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{pick: RandomPicker}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// steps run in order between the two fallback checks.
var steps = []func(string) string{
	Unquote,
	TruncateLeakage,
	StripFormatMarkers,
	StripSelfDialogue,
	StripStructuralTags,
	StripMarkdown,
	Paragraphs,
}

// Clean returns the sanitized reply. It never returns an empty string.
func (s *Sanitizer) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return s.fallback()
	}

	text := strings.TrimSpace(fixedPoint(raw, runSteps))
	if text == "" {
		return s.fallback()
	}

	return Terminate(text)
}

// runSteps applies every step once. Clean repeats it until nothing changes,
// since a later step can expose a marker an earlier step would remove.
func runSteps(text string) string {
	for _, step := range steps {
		text = step(text)
	}
	return text
}

func (s *Sanitizer) fallback() string {
	return s.pick(Fallbacks())
}

// Terminate appends a period unless text already ends in terminal
// punctuation.
func Terminate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	last, _ := utf8.DecodeLastRuneInString(text)
	if strings.ContainsRune(terminalPunctuation, last) {
		return text
	}
	return text + "."
}
