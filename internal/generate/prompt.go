package generate

import (
	"fmt"
	"strings"

	"bookrag/internal/domain"
)

// SourceOption selects where generation context comes from.
type SourceOption string

const (
	// SourceMyData grounds the answer in retrieved chunks only.
	SourceMyData SourceOption = "mydata"
	// SourceModel relies entirely on the model's own knowledge.
	SourceModel SourceOption = "model"
	// SourceCombined injects retrieved chunks and lets the model add its own.
	SourceCombined SourceOption = "combined"
)

// UsesRetrieval reports whether the option requires embedding the prompt and
// retrieving stored chunks.
func (o SourceOption) UsesRetrieval() bool {
	return o != SourceModel
}

// FormatSources renders retrieved chunks as numbered source blocks with
// their similarity scores.
func FormatSources(scored []domain.ScoredChunk) string {
	parts := make([]string, len(scored))
	for i, sc := range scored {
		parts[i] = fmt.Sprintf("Source %d (Score: %.4f):\n%s", i+1, sc.Score, sc.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt assembles the full generation prompt from the user request,
// the rendered source context, and an optional stock data appendix.
func BuildPrompt(userPrompt string, option SourceOption, context, stockContext string) string {
	knowledge := "following source material"
	if option == SourceModel {
		knowledge = "best of your own knowledge"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a helpful assistant.\n\n")
	fmt.Fprintf(&b, "Use the %s to answer the user's question or fulfill their request.\n\n", knowledge)
	fmt.Fprintf(&b, "User Request:\n%q", userPrompt)
	if option != SourceModel {
		fmt.Fprintf(&b, "\n\nSource material:\n%s", context)
	}
	prompt := strings.TrimSpace(b.String())

	if stockContext != "" {
		prompt += "\n\nStock historical data summary:\n" + stockContext
	}
	return prompt
}

// WordCount counts whitespace-separated words of generated text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
