package quiz

import (
	"errors"
	"math/rand"
	"time"
)

// ErrEmptyPool is returned when no enabled set contributes a graph.
var ErrEmptyPool = errors.New("no graphs available in the selected sets")

// Picker chooses prompts from a pool of graphs.
type Picker struct {
	rnd *rand.Rand
}

// NewPicker returns a Picker seeded with the current time.
func NewPicker() *Picker {
	return NewPickerWithSeed(time.Now().UnixNano())
}

// NewPickerWithSeed returns a Picker with a fixed seed.
func NewPickerWithSeed(seed int64) *Picker {
	return &Picker{rnd: rand.New(rand.NewSource(seed))}
}

// Next selects a graph uniformly. The previous graph is not repeated when the
// pool offers an alternative.
func (p *Picker) Next(pool []Graph, previous *Graph) (Graph, error) {
	candidates := candidatesFor(pool, previous)
	if len(candidates) == 0 {
		return Graph{}, ErrEmptyPool
	}
	return candidates[p.rnd.Intn(len(candidates))], nil
}

// NextWeighted selects a graph with a bias toward weak letters.
func (p *Picker) NextWeighted(pool []Graph, previous *Graph, weak map[string]struct{}, factor float64) (Graph, error) {
	candidates := candidatesFor(pool, previous)
	if len(candidates) == 0 {
		return Graph{}, ErrEmptyPool
	}
	if len(weak) == 0 || factor <= 0 {
		return candidates[p.rnd.Intn(len(candidates))], nil
	}

	weights := make([]float64, len(candidates))
	total := 0.0
	for i, g := range candidates {
		w := 1.0
		if _, ok := weak[g.Char]; ok {
			w += factor
		}
		weights[i] = w
		total += w
	}

	r := p.rnd.Float64() * total
	acc := 0.0
	idx := len(candidates) - 1
	for j, w := range weights {
		acc += w
		if r < acc {
			idx = j
			break
		}
	}
	return candidates[idx], nil
}

func candidatesFor(pool []Graph, previous *Graph) []Graph {
	if previous == nil || len(pool) < 2 {
		return pool
	}
	prevKey := previous.Key()
	out := make([]Graph, 0, len(pool))
	for _, g := range pool {
		if g.Key() == prevKey {
			continue
		}
		out = append(out, g)
	}
	if len(out) == 0 {
		return pool
	}
	return out
}
