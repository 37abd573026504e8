package prompt

import (
	"strings"

	"github.com/papercomputeco/pearl/pkg/conversation"
	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/search"
)

// Structural tags delimiting prompt sections.
const (
	ContextTag  = "### Context:"
	SearchTag   = "### Search result:"
	QuestionTag = "### Question:"
	AnswerTag   = "### Answer:"
)

// factDirective is appended to the persona when a search fact is present.
const factDirective = `When a search result is provided, reply with the search result text exactly as written.
Do not add commentary, opinions or jokes to it. Do not round, reformat or convert any numbers.`

// StopSequences returns every structural marker the backend must not
// continue past, in the order they are sent.
func StopSequences() []string {
	return []string{
		QuestionTag,
		ContextTag,
		SearchTag,
		AnswerTag,
		"Question:",
		"User:",
		"###",
		strings.TrimSpace(conversation.ContextDelimiter),
	}
}

// Assembler builds GenerationRequests from a persona, query, optional
// search fact and optional conversation context.
type Assembler struct {
	model  string
	params llm.GenerationParams
}

// NewAssembler creates an Assembler for the given model and static params.
func NewAssembler(model string, params llm.GenerationParams) *Assembler {
	return &Assembler{model: model, params: params}
}

// Model returns the model every assembled request targets.
func (a *Assembler) Model() string {
	return a.model
}

// Assemble returns the request for one generation call. Sections appear in a
// fixed order: persona, context, search result, question, answer cue.
func (a *Assembler) Assemble(persona Persona, query string, fact *search.Fact, context string) llm.GenerationRequest {
	return llm.GenerationRequest{
		Model:  a.model,
		Prompt: Build(persona, query, fact, context),
		Params: a.params,
		Stop:   StopSequences(),
	}
}

// Build renders the prompt text only.
func Build(persona Persona, query string, fact *search.Fact, context string) string {
	var b strings.Builder

	b.WriteString(strings.TrimSpace(persona.Instructions))
	if fact != nil {
		b.WriteString("\n\n")
		b.WriteString(factDirective)
	}

	if context = strings.TrimSpace(context); context != "" {
		b.WriteString("\n\n")
		b.WriteString(ContextTag)
		b.WriteString("\n")
		b.WriteString(context)
	}

	if fact != nil {
		b.WriteString("\n\n")
		b.WriteString(SearchTag)
		b.WriteString("\n")
		b.WriteString(fact.Text)
	}

	b.WriteString("\n\n")
	b.WriteString(QuestionTag)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(query))

	b.WriteString("\n\n")
	b.WriteString(AnswerTag)
	b.WriteString("\n")

	return b.String()
}
