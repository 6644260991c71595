// Package tokens estimates the token cost of accumulated context and
// warns when it outgrows the usable part of the model's window.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// fallbackEncoding is compatible with most newer OpenAI models and is
// used whenever the model name is not recognized.
const fallbackEncoding = "cl100k_base"

// Count estimates the number of tokens in text for the given model. An
// unrecognized model falls back to the cl100k_base encoding; if no
// encoding can be loaded at all, a bytes/4 heuristic keeps the session
// going. The result is always non-negative and Count never fails.
func Count(text, model string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil || enc == nil {
		// English text averages roughly four bytes per token.
		return len(text) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// Monitor checks accumulated context against an effective window. The
// effective window is the advertised window divided by Divisor, a
// deliberately conservative estimate of how much context a model can
// take without degrading.
type Monitor struct {
	Window  int
	Divisor int
	Model   string
}

// Ratio returns estimated tokens divided by the effective window.
// Values above 1.0 mean the context has outgrown the usable window.
func (m Monitor) Ratio(text string) float64 {
	window := m.Window
	if window <= 0 {
		window = 400000
	}
	divisor := m.Divisor
	if divisor <= 0 {
		divisor = 5
	}
	effective := float64(window) / float64(divisor)
	return float64(Count(text, m.Model)) / effective
}

// Advisory returns a warning string when the context exceeds the
// effective window, or "" when within budget. It never blocks the
// session; oversized context is allowed to proceed.
func (m Monitor) Advisory(text string) string {
	ratio := m.Ratio(text)
	if ratio <= 1.0 {
		return ""
	}
	return fmt.Sprintf("%.0f%% of the recommended context window has been used. It is recommended that you restart the chat and summarize your findings so far.", ratio*100)
}
