package ingest

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// defaultChunkTokens bounds how much document text goes into one extraction
// call, leaving room for the system prompt and the response.
const defaultChunkTokens = 8000

// splitChunks breaks text into pieces of at most maxTokens tokens, cutting
// on paragraph boundaries where possible. A single oversized paragraph is
// hard-split on token boundaries. Without a tokenizer the text passes
// through as one chunk.
func splitChunks(text string, maxTokens int) []string {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return []string{text}
	}

	if len(enc.Encode(text, nil, nil)) <= maxTokens {
		return []string{text}
	}

	var (
		chunks  []string
		current strings.Builder
		tokens  int
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			tokens = 0
		}
	}

	for _, paragraph := range strings.Split(text, "\n\n") {
		count := len(enc.Encode(paragraph, nil, nil))

		if count > maxTokens {
			flush()
			chunks = append(chunks, hardSplit(enc, paragraph, maxTokens)...)
			continue
		}
		if tokens+count > maxTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
		tokens += count
	}
	flush()

	return chunks
}

func hardSplit(enc *tiktoken.Tiktoken, text string, maxTokens int) []string {
	ids := enc.Encode(text, nil, nil)

	var chunks []string
	for start := 0; start < len(ids); start += maxTokens {
		end := min(start+maxTokens, len(ids))
		chunks = append(chunks, enc.Decode(ids[start:end]))
	}
	return chunks
}
