package assemble

import (
	"math"
	"strings"
	"unicode/utf8"

	"git.home.luguber.info/inful/promptkit/internal/config"
)

// EstimateTokens approximates the token count of s as runes divided by charsPerToken,
// rounded up. It is a budgeting aid and does not match any particular tokenizer.
func EstimateTokens(s string, charsPerToken float64) int {
	if s == "" {
		return 0
	}
	if charsPerToken <= 0 {
		charsPerToken = config.DefaultCharsPerToken
	}
	return int(math.Ceil(float64(utf8.RuneCountInString(s)) / charsPerToken))
}

// CountLines returns the number of lines in s. A trailing line without a newline
// counts as a line.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
