package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/pearl/pkg/llm"
	"github.com/papercomputeco/pearl/pkg/llm/provider"
)

// summaryTemperature keeps summaries close to the source turns.
const summaryTemperature = 0.3

// Summarizer compresses a run of turns into a short recap.
type Summarizer interface {
	Summarize(ctx context.Context, turns []llm.Turn) (string, error)
}

// GeneratorSummarizer asks the generation backend for a recap using a
// separate low-temperature call.
type GeneratorSummarizer struct {
	generator provider.Generator
	model     string
	params    llm.GenerationParams
}

// NewGeneratorSummarizer creates a Summarizer that calls gen with the given
// model. The base params are reused with a lower temperature.
func NewGeneratorSummarizer(gen provider.Generator, model string, params llm.GenerationParams) *GeneratorSummarizer {
	return &GeneratorSummarizer{
		generator: gen,
		model:     model,
		params:    params.WithTemperature(summaryTemperature),
	}
}

// Summarize implements Summarizer.
func (g *GeneratorSummarizer) Summarize(ctx context.Context, turns []llm.Turn) (string, error) {
	var b strings.Builder
	b.WriteString("Summarize the following conversation in 2-3 short key points. ")
	b.WriteString("Reply with the key points only.\n\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Label(), t.Content)
	}
	b.WriteString("\nKey points:")

	resp, err := g.generator.Generate(ctx, llm.GenerationRequest{
		Model:  g.model,
		Prompt: b.String(),
		Params: g.params,
		Stop:   []string{"User:", "Assistant:", ContextDelimiter},
	})
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}
