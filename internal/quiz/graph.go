// Package quiz implements prompt selection, answer grading and round bookkeeping.
package quiz

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Graph is a single letterform sample cut from a manuscript.
type Graph struct {
	Char   string `json:"char" yaml:"char"`
	Image  string `json:"image" yaml:"image"`
	Source string `json:"source" yaml:"source"`
}

// Key identifies a graph by character and image.
func (g Graph) Key() string {
	return g.Char + "\x00" + g.Image
}

// GraphSet is a named collection of graphs that can be switched on or off.
type GraphSet struct {
	ID      string  `json:"id" yaml:"id"`
	Name    string  `json:"name" yaml:"name"`
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Graphs  []Graph `json:"graphs" yaml:"graphs"`
}

// Solution is the graph currently prompted together with its resolved image path.
type Solution struct {
	Graph Graph  `json:"graph"`
	Path  string `json:"path"`
}

// Resolver maps a catalogue-relative image reference to a displayable location.
type Resolver func(image string) string

// NewSolution resolves the image of g.
func NewSolution(g Graph, resolve Resolver) Solution {
	s := Solution{Graph: g, Path: g.Image}
	if resolve != nil {
		s.Path = resolve(g.Image)
	}
	return s
}

// Pool returns the graphs of every enabled set, in set order.
func Pool(sets []GraphSet) []Graph {
	var pool []Graph
	for _, set := range sets {
		if !set.Enabled {
			continue
		}
		pool = append(pool, set.Graphs...)
	}
	return pool
}

// LessChar orders characters alphabetically ignoring case, lower case first on ties.
func LessChar(a, b string) bool {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	if a == b {
		return false
	}
	ra, _ := utf8.DecodeRuneInString(a)
	return unicode.IsLower(ra)
}

// SortGraphs orders graphs by character, then image.
func SortGraphs(graphs []Graph) {
	sort.SliceStable(graphs, func(i, j int) bool {
		if graphs[i].Char != graphs[j].Char {
			return LessChar(graphs[i].Char, graphs[j].Char)
		}
		return graphs[i].Image < graphs[j].Image
	})
}
