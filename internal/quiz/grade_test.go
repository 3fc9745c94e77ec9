package quiz

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestGrade(t *testing.T) {
	cases := []struct {
		name        string
		expected    string
		answer      string
		equivalence bool
		correct     bool
		equivalent  bool
	}{
		{name: "exact", expected: "a", answer: "a", correct: true},
		{name: "wrong", expected: "a", answer: "o"},
		{name: "case matters", expected: "A", answer: "a"},
		{name: "trims space", expected: "e", answer: " e\n", correct: true},
		{name: "empty answer", expected: "e", answer: ""},
		{name: "first rune only", expected: "s", answer: "st", correct: true},
		{name: "i for j without equivalence", expected: "j", answer: "i"},
		{name: "i for j with equivalence", expected: "j", answer: "i", equivalence: true, correct: true, equivalent: true},
		{name: "V for U with equivalence", expected: "U", answer: "V", equivalence: true, correct: true, equivalent: true},
		{name: "v for U is still case sensitive", expected: "U", answer: "v", equivalence: true},
		{name: "exact with equivalence is not equivalent", expected: "u", answer: "u", equivalence: true, correct: true},
		{name: "unpaired letter", expected: "c", answer: "e", equivalence: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			correct, equivalent := Grade(tc.expected, tc.answer, tc.equivalence)
			assert.Equal(t, tc.correct, correct)
			assert.Equal(t, tc.equivalent, equivalent)
		})
	}
}

func TestCounterpart(t *testing.T) {
	pair, ok := Counterpart("J")
	assert.True(t, ok)
	assert.Equal(t, "I", pair)

	_, ok = Counterpart("k")
	assert.False(t, ok)
}

func TestNewAttemptCollectsMatchingImages(t *testing.T) {
	pool := []Graph{
		{Char: "i", Image: "min/i1.png"},
		{Char: "j", Image: "min/j1.png"},
		{Char: "i", Image: "min/i2.png"},
		{Char: "i", Image: "min/i1.png"},
		{Char: "l", Image: "min/l1.png"},
	}
	resolve := func(image string) string { return "/root/" + image }

	plain := NewAttempt("i", pool, resolve, false)
	want := Attempt{Answer: "i", Images: []string{"/root/min/i1.png", "/root/min/i2.png"}}
	if diff := cmp.Diff(want, plain); diff != "" {
		t.Fatalf("attempt mismatch (-want +got):\n%s", diff)
	}

	paired := NewAttempt("i", pool, resolve, true)
	want = Attempt{Answer: "i", Images: []string{"/root/min/i1.png", "/root/min/j1.png", "/root/min/i2.png"}}
	if diff := cmp.Diff(want, paired); diff != "" {
		t.Fatalf("attempt mismatch (-want +got):\n%s", diff)
	}
}

func TestNewAttemptEmptyAnswer(t *testing.T) {
	attempt := NewAttempt("  ", []Graph{{Char: "a", Image: "a.png"}}, nil, true)
	assert.Empty(t, attempt.Answer)
	assert.Empty(t, attempt.Images)
}
