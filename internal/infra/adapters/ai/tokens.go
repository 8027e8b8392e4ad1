package ai

import (
	"github.com/pkoukk/tiktoken-go"

	"telegram-ai-forge/internal/domain/ports/adapter"
)

// fallbackEncoding covers models tiktoken does not know by name.
const fallbackEncoding = "cl100k_base"

// countBPETokens estimates prompt tokens locally. Exact enough for
// admission checks and cost previews; the provider's own usage numbers
// remain the source of truth for metering.
func countBPETokens(modelName string, segments []adapter.Segment) (int, error) {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, err
		}
	}
	n := 0
	for _, seg := range segments {
		n += len(enc.Encode(seg.Text, nil, nil))
	}
	return n, nil
}
