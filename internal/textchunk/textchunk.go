// Package textchunk splits large text into bounded-size chunks suitable
// for embedding into a prompt, preferring cuts at line boundaries.
package textchunk

// newlineSlack is the fraction of the chunk budget that must already be
// consumed before a newline cut is accepted. Cutting earlier than this
// would waste more than 40% of the budget per chunk.
const newlineSlack = 0.6

// Chunk splits text into chunks of at most maxChars bytes each.
//
// Each chunk boundary is moved back to the last newline inside the window
// when that newline sits past newlineSlack*maxChars, so code and prose are
// not cut mid-line unless a line is too long to avoid it. Concatenating
// the returned chunks reproduces text exactly.
//
// A non-positive maxChars disables splitting: the text is returned as a
// single chunk. Empty text yields no chunks.
func Chunk(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		return []string{text}
	}

	var chunks []string
	i := 0
	n := len(text)
	for i < n {
		end := i + maxChars
		if end > n {
			end = n
		}
		if nl := lastNewline(text, i, end); nl != -1 && nl > i+int(newlineSlack*float64(maxChars)) {
			// The newline ends the chunk; the following line starts fresh.
			end = nl + 1
		}
		chunks = append(chunks, text[i:end])
		i = end
	}
	return chunks
}

// lastNewline returns the index of the last '\n' in text[start:end], or -1.
func lastNewline(text string, start, end int) int {
	for j := end - 1; j >= start; j-- {
		if text[j] == '\n' {
			return j
		}
	}
	return -1
}

// EstimateTokens returns a rough token count for text, assuming roughly
// four characters per token. This is a sizing heuristic only; it is not a
// tokenizer and must not be used for billing or hard limit enforcement.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := len(text) / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
