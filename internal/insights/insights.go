// Package insights turns the cross-country comparison into a short
// plain-language narrative for the dashboard's analysis tab. A deterministic
// builder always works; when an OpenAI key is configured the narrative is
// rephrased by a model instead.
package insights

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kodjo/solarscope/internal/stats"
)

// Input is everything a narrative draws on.
type Input struct {
	Metric  string
	Rows    int
	Ranking []stats.RegionRank
	ANOVA   *stats.ANOVAResult // nil when fewer than 2 countries selected
}

// Build produces the deterministic narrative.
func Build(in Input) string {
	var parts []string

	if len(in.Ranking) > 0 {
		top := in.Ranking[0]
		parts = append(parts, fmt.Sprintf(
			"%s shows the highest average %s at %.2f W/m².",
			top.Country, in.Metric, top.Mean))
	}

	if in.ANOVA != nil {
		if in.ANOVA.Significant {
			parts = append(parts, fmt.Sprintf(
				"The difference in %s between the %d countries is statistically significant (p = %.4g).",
				in.Metric, in.ANOVA.Groups, in.ANOVA.PValue))
		} else {
			parts = append(parts, fmt.Sprintf(
				"No statistically significant difference in %s was found between the %d countries (p = %.4g).",
				in.Metric, in.ANOVA.Groups, in.ANOVA.PValue))
		}
	}

	if in.Rows > 0 {
		parts = append(parts, fmt.Sprintf("The analysis covers %d cleaned observations.", in.Rows))
	}

	return strings.Join(parts, " ")
}

// Generator rephrases narratives through the OpenAI API.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a generator from the OPENAI_API_KEY environment
// variable, or errors so the caller can run without one.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Generator{client: client, model: openai.ChatModelGPT4oMini}, nil
}

// Narrative asks the model to phrase the comparison for an analyst. The
// deterministic Build output is included as grounding so the model cannot
// invent numbers.
func (g *Generator) Narrative(ctx context.Context, in Input) (string, error) {
	facts := Build(in)
	if facts == "" {
		return "", errors.New("insights: nothing to summarize")
	}

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You summarize solar-irradiance comparisons for energy analysts. " +
				"Use only the facts provided. Two or three sentences, no headings."),
			openai.UserMessage(facts),
		},
	})
	if err != nil {
		return "", fmt.Errorf("insights: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("insights: empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
