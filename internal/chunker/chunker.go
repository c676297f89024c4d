// Package chunker splits transcripts into sentence-aligned, token-bounded
// chunks and provides the token estimator shared with cost estimation.
package chunker

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// Chunk is a contiguous run of sentences.
type Chunk struct {
	Index  int
	Text   string
	Tokens int
}

// Split divides text into chunks whose estimated token count stays within
// budget. A sentence that alone exceeds the budget becomes its own chunk
// rather than being cut. Empty text yields no chunks; a budget <= 0 yields
// a single chunk.
func Split(text string, budget int) []Chunk {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if total := EstimateTokens(trimmed); budget <= 0 || total <= budget {
		return []Chunk{{Index: 0, Text: trimmed, Tokens: total}}
	}

	var (
		chunks  []Chunk
		current []string
		tokens  int
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		body := strings.Join(current, " ")
		chunks = append(chunks, Chunk{Index: len(chunks), Text: body, Tokens: EstimateTokens(body)})
		current = current[:0]
		tokens = 0
	}
	for _, sentence := range Sentences(trimmed) {
		cost := EstimateTokens(sentence)
		if tokens+cost > budget && len(current) > 0 {
			flush()
		}
		current = append(current, sentence)
		tokens += cost
	}
	flush()
	return chunks
}

// Sentences splits text after runs of sentence-terminal punctuation followed
// by whitespace, end of text, or a CJK character. Full-width punctuation is
// folded only to find boundaries; the returned sentences keep the original
// characters. Punctuation directly after a CJK character always ends a
// sentence since CJK text is not space separated.
func Sentences(text string) []string {
	runes := []rune(text)
	folded := make([]rune, len(runes))
	for i, r := range runes {
		folded[i] = fold(r)
	}
	var (
		out   []string
		start int
	)
	emit := func(end int) {
		if s := strings.Join(strings.Fields(string(runes[start:end])), " "); s != "" {
			out = append(out, s)
		}
		start = end
	}
	for i := 0; i < len(runes); i++ {
		if !isTerminal(folded[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && (isTerminal(folded[j]) || isClosing(folded[j])) {
			j++
		}
		afterCJK := i > 0 && isCJK(runes[i-1])
		if afterCJK || j == len(runes) || unicode.IsSpace(runes[j]) || isCJK(runes[j]) {
			emit(j)
		}
		i = j - 1
	}
	emit(len(runes))
	return out
}

// EstimateTokens approximates the token count of text: one token per CJK
// character plus one per four other characters of each whitespace-separated
// word, with at least one token per word.
func EstimateTokens(text string) int {
	total := 0
	for _, field := range strings.Fields(text) {
		cjk, other := 0, 0
		for _, r := range field {
			if isCJK(r) {
				cjk++
			} else {
				other++
			}
		}
		n := cjk + (other+3)/4
		if n < 1 {
			n = 1
		}
		total += n
	}
	return total
}

// fold maps a single rune to its narrow form so boundary checks line up
// with the original rune positions.
func fold(r rune) rune {
	switch r {
	case '。', '｡':
		return '.'
	}
	narrow := []rune(width.Narrow.String(string(r)))
	if len(narrow) != 1 {
		return r
	}
	return narrow[0]
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '」', '』', '｣':
		return true
	}
	return false
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
