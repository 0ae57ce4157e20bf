package pricing

import (
	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding covers models tiktoken does not know about.
const fallbackEncoding = "cl100k_base"

// EstimateTokens returns the approximate token count of text for a model,
// used to estimate usage before a provider call is issued. The count is an
// estimate only; recorded usage always comes from the actual response.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			// Rough word-based fallback when no encoding is available at all
			return len(text) / 4
		}
	}

	return len(enc.Encode(text, nil, nil))
}
