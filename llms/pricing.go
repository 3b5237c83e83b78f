package llms

// PricePerMillion holds per-million-token prices for one model.
type PricePerMillion struct {
	Prompt     float64
	Completion float64
}

// staticPriceTable is a small, deliberately incomplete static price table.
// Open Question (spec.md §9): the source's fallback policy for unknown
// aliases is unspecified. This implementation prices unknown aliases at
// zero rather than guessing — see DESIGN.md "Open Question decisions".
var staticPriceTable = map[string]PricePerMillion{
	"claude-opus-4":       {Prompt: 15, Completion: 75},
	"claude-sonnet-4":     {Prompt: 3, Completion: 15},
	"gpt-4o":              {Prompt: 2.5, Completion: 10},
	"gpt-4o-mini":         {Prompt: 0.15, Completion: 0.6},
	"gemini-2.0-flash":    {Prompt: 0.1, Completion: 0.4},
	"gemini-1.5-pro":      {Prompt: 1.25, Completion: 5},
}

// CostOf returns the dollar cost of one call to model, or zero if the
// model has no price table entry.
func CostOf(model string, promptTokens, completionTokens int) float64 {
	price, ok := staticPriceTable[model]
	if !ok {
		return 0
	}
	return float64(promptTokens)/1_000_000*price.Prompt +
		float64(completionTokens)/1_000_000*price.Completion
}
