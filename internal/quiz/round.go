package quiz

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrRoundOver is returned when an answer arrives after the time limit.
var ErrRoundOver = errors.New("round is over")

// HistoryEntry records one answered prompt.
type HistoryEntry struct {
	Graph      Graph     `json:"graph"`
	Answer     string    `json:"answer"`
	Correct    bool      `json:"correct"`
	Equivalent bool      `json:"equivalent"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Mistake is a graph that was answered wrongly at least once.
type Mistake struct {
	Graph   Graph    `json:"graph"`
	Answers []string `json:"answers"`
	Count   int      `json:"count"`
}

// LetterCount tallies answers per expected character.
type LetterCount struct {
	Char      string
	Correct   int
	Incorrect int
}

// GameStats summarises a round.
type GameStats struct {
	Correct    int           `json:"correct"`
	Incorrect  int           `json:"incorrect"`
	Total      int           `json:"total"`
	Percentage float64       `json:"percentage"`
	Elapsed    time.Duration `json:"elapsed"`
	Mistakes   []Mistake     `json:"mistakes"`
}

// Round holds the history of a single game.
type Round struct {
	StartedAt   time.Time
	TimeLimit   time.Duration
	Equivalence bool

	history []HistoryEntry
}

// NewRound starts a round at start. A zero limit means untimed.
func NewRound(start time.Time, limit time.Duration, equivalence bool) *Round {
	return &Round{
		StartedAt:   start,
		TimeLimit:   limit,
		Equivalence: equivalence,
	}
}

// Answer grades answer against expected and records the result.
func (r *Round) Answer(expected Graph, answer string, at time.Time) (HistoryEntry, error) {
	if r.Expired(at) {
		return HistoryEntry{}, ErrRoundOver
	}
	correct, equivalent := Grade(expected.Char, answer, r.Equivalence)
	entry := HistoryEntry{
		Graph:      expected,
		Answer:     normalizeAnswer(answer),
		Correct:    correct,
		Equivalent: equivalent,
		AnsweredAt: at,
	}
	r.Record(entry)
	return entry, nil
}

// Record appends a completed entry.
func (r *Round) Record(entry HistoryEntry) {
	r.history = append(r.history, entry)
}

// History returns a copy of the recorded entries.
func (r *Round) History() []HistoryEntry {
	out := make([]HistoryEntry, len(r.history))
	copy(out, r.history)
	return out
}

// Deadline returns the end of a timed round.
func (r *Round) Deadline() (time.Time, bool) {
	if r.TimeLimit <= 0 {
		return time.Time{}, false
	}
	return r.StartedAt.Add(r.TimeLimit), true
}

// Expired reports whether the time limit has passed at now.
func (r *Round) Expired(now time.Time) bool {
	deadline, ok := r.Deadline()
	if !ok {
		return false
	}
	return !now.Before(deadline)
}

// Remaining returns the time left in a timed round, zero when untimed or expired.
func (r *Round) Remaining(now time.Time) time.Duration {
	deadline, ok := r.Deadline()
	if !ok {
		return 0
	}
	left := deadline.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Stats aggregates the history as of now.
func (r *Round) Stats(now time.Time) GameStats {
	stats := GameStats{Mistakes: Mistakes(r.history)}
	for _, e := range r.history {
		if e.Correct {
			stats.Correct++
		} else {
			stats.Incorrect++
		}
	}
	stats.Total = stats.Correct + stats.Incorrect
	stats.Percentage = Percentage(stats.Correct, stats.Total)

	end := now
	if deadline, ok := r.Deadline(); ok && end.After(deadline) {
		end = deadline
	}
	elapsed := end.Sub(r.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	stats.Elapsed = elapsed.Truncate(time.Second)
	return stats
}

// Percentage returns correct/total as a percentage rounded to one decimal place.
func Percentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}

// Mistakes returns the distinct wrongly answered graphs, sorted by character then image.
func Mistakes(history []HistoryEntry) []Mistake {
	byKey := map[string]*Mistake{}
	var order []string
	for _, e := range history {
		if e.Correct {
			continue
		}
		key := e.Graph.Key()
		m, ok := byKey[key]
		if !ok {
			m = &Mistake{Graph: e.Graph}
			byKey[key] = m
			order = append(order, key)
		}
		m.Count++
		if e.Answer != "" && !containsString(m.Answers, e.Answer) {
			m.Answers = append(m.Answers, e.Answer)
		}
	}

	out := make([]Mistake, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Graph, out[j].Graph
		if a.Char != b.Char {
			return LessChar(a.Char, b.Char)
		}
		return a.Image < b.Image
	})
	return out
}

// Letters tallies correct and incorrect answers per expected character.
func Letters(history []HistoryEntry) []LetterCount {
	byChar := map[string]*LetterCount{}
	for _, e := range history {
		lc, ok := byChar[e.Graph.Char]
		if !ok {
			lc = &LetterCount{Char: e.Graph.Char}
			byChar[e.Graph.Char] = lc
		}
		if e.Correct {
			lc.Correct++
		} else {
			lc.Incorrect++
		}
	}
	out := make([]LetterCount, 0, len(byChar))
	for _, lc := range byChar {
		out = append(out, *lc)
	}
	sort.Slice(out, func(i, j int) bool {
		return LessChar(out[i].Char, out[j].Char)
	})
	return out
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
