package stats

import (
	"cmp"
	"slices"
	"strings"

	"github.com/verte-zerg/sharpie/internal/model"
)

// TopLettersByFrequency returns the n letters answered most often, ties by char.
func TopLettersByFrequency(aggs []model.LetterAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	sorted := slices.Clone(aggs)
	slices.SortFunc(sorted, func(a, b model.LetterAggregate) int {
		if c := cmp.Compare(b.Correct+b.Incorrect, a.Correct+a.Incorrect); c != 0 {
			return c
		}
		return strings.Compare(a.Char, b.Char)
	})
	out := make([]string, 0, min(n, len(sorted)))
	for _, agg := range sorted[:min(n, len(sorted))] {
		out = append(out, agg.Char)
	}
	return out
}

// MostPractised formats the n most answered letters as a single line, or ""
// when there is no history.
func MostPractised(aggs []model.LetterAggregate, n int) string {
	top := TopLettersByFrequency(aggs, n)
	if len(top) == 0 {
		return ""
	}
	return "Most practised: " + strings.Join(top, " ")
}
