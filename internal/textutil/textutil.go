// Package textutil provides tokenization and newsgroup post cleanup.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var tokenizeRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize extracts word tokens from text (Unicode-aware word characters).
func Tokenize(text string) []string {
	return tokenizeRe.FindAllString(text, -1)
}

// TokenizeMin extracts word tokens of at least minLen runes. With minLen 2 it
// matches the (?u)\b\w\w+\b pattern used by default for document vectorizing.
func TokenizeMin(text string, minLen int) []string {
	tokens := Tokenize(text)
	if minLen <= 1 {
		return tokens
	}
	kept := tokens[:0]
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) >= minLen {
			kept = append(kept, tok)
		}
	}
	return kept
}

// Ngrams returns min_n to max_n character-level n-grams of the given string.
func Ngrams(s string, minN, maxN int) []string {
	runes := []rune(s)
	textLen := len(runes)
	var res []string
	for n := minN; n <= maxN && n <= textLen; n++ {
		for i := 0; i <= textLen-n; i++ {
			res = append(res, string(runes[i:i+n]))
		}
	}
	return res
}

// TokenNgrams returns n-grams from a list of tokens, joined by space.
func TokenNgrams(tokens []string, minN, maxN int) []string {
	tLen := len(tokens)
	var res []string
	for n := minN; n <= maxN && n <= tLen; n++ {
		for i := 0; i <= tLen-n; i++ {
			res = append(res, strings.Join(tokens[i:i+n], " "))
		}
	}
	return res
}

// StripHeader drops the RFC 822 header block of a newsgroup post: everything
// up to the first blank line.
func StripHeader(text string) string {
	_, after, found := strings.Cut(text, "\n\n")
	if !found {
		return text
	}
	return after
}

var quoteRe = regexp.MustCompile(`(?i)(writes in|writes:|wrote:|says:|said:|^In article|^Quoted from|^\||^>)`)

// StripQuotes removes quoted reply lines and the attribution lines that
// introduce them.
func StripQuotes(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if quoteRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// StripFooter removes a trailing signature block: everything from the last
// blank or all-dash line onwards.
func StripFooter(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.Trim(strings.TrimSpace(lines[i]), "-") != "" {
			continue
		}
		if i > 0 {
			return strings.Join(lines[:i], "\n")
		}
		break
	}
	return text
}
