package quiz

import (
	"strings"
	"unicode/utf8"
)

// Letters that were not yet distinguished in the 24-letter alphabet.
var counterparts = map[rune]rune{
	'I': 'J', 'J': 'I',
	'i': 'j', 'j': 'i',
	'U': 'V', 'V': 'U',
	'u': 'v', 'v': 'u',
}

// Grade compares an answer with the expected character. With equivalence the
// I/J and U/V pairs are accepted for each other, and equivalent reports that
// the pair rule was needed.
func Grade(expected, answer string, equivalence bool) (correct, equivalent bool) {
	a, ok := firstRune(answer)
	if !ok {
		return false, false
	}
	e, ok := firstRune(expected)
	if !ok {
		return false, false
	}
	if a == e {
		return true, false
	}
	if !equivalence {
		return false, false
	}
	if pair, ok := counterparts[e]; ok && pair == a {
		return true, true
	}
	return false, false
}

// Counterpart returns the interchangeable letter for ch in the 24-letter alphabet.
func Counterpart(ch string) (string, bool) {
	r, ok := firstRune(ch)
	if !ok {
		return "", false
	}
	pair, ok := counterparts[r]
	if !ok {
		return "", false
	}
	return string(pair), true
}

// Attempt holds a submitted character and the images of graphs that show it.
type Attempt struct {
	Answer string   `json:"answer"`
	Images []string `json:"images"`
}

// NewAttempt collects the resolved images of pooled graphs matching answer,
// including the counterpart letter when equivalence is on.
func NewAttempt(answer string, pool []Graph, resolve Resolver, equivalence bool) Attempt {
	attempt := Attempt{Answer: normalizeAnswer(answer)}
	if attempt.Answer == "" {
		return attempt
	}
	wanted := map[string]struct{}{attempt.Answer: {}}
	if equivalence {
		if pair, ok := Counterpart(attempt.Answer); ok {
			wanted[pair] = struct{}{}
		}
	}
	seen := map[string]struct{}{}
	for _, g := range pool {
		if _, ok := wanted[g.Char]; !ok {
			continue
		}
		path := g.Image
		if resolve != nil {
			path = resolve(g.Image)
		}
		if path == "" {
			continue
		}
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		attempt.Images = append(attempt.Images, path)
	}
	return attempt
}

func normalizeAnswer(answer string) string {
	r, ok := firstRune(answer)
	if !ok {
		return ""
	}
	return string(r)
}

func firstRune(s string) (rune, bool) {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return 0, false
	}
	return r, true
}
