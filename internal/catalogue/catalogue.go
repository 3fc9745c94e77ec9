// Package catalogue loads graph sets and their images from a catalogue directory.
package catalogue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/sharpie/internal/quiz"
)

// ManifestName is the file describing a catalogue.
const ManifestName = "catalogue.yaml"

// ErrNotFound is returned when a catalogue directory has no manifest.
var ErrNotFound = errors.New("catalogue not found")

// Source describes a manuscript graphs were taken from.
type Source struct {
	ID         string `yaml:"id" json:"id"`
	Title      string `yaml:"title" json:"title"`
	Repository string `yaml:"repository" json:"repository,omitempty"`
	Shelfmark  string `yaml:"shelfmark" json:"shelfmark,omitempty"`
}

// Catalogue is the full collection of graph sets.
type Catalogue struct {
	Root    string          `yaml:"-" json:"-"`
	Sets    []quiz.GraphSet `yaml:"sets" json:"sets"`
	Sources []Source        `yaml:"sources" json:"sources"`
}

// Letter groups every graph of one character.
type Letter struct {
	Char   string       `json:"char"`
	Graphs []quiz.Graph `json:"graphs"`
}

// Load reads and validates the manifest in dir.
func Load(dir string) (*Catalogue, error) {
	path := filepath.Join(dir, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read catalogue: %w", err)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve catalogue dir: %w", err)
	}
	return Parse(data, root)
}

// Parse decodes a manifest whose images live under root.
func Parse(data []byte, root string) (*Catalogue, error) {
	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue: %w", err)
	}
	cat.Root = root
	if err := cat.validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (c *Catalogue) validate() error {
	if len(c.Sets) == 0 {
		return fmt.Errorf("catalogue has no graph sets")
	}
	ids := map[string]struct{}{}
	for i, set := range c.Sets {
		if strings.TrimSpace(set.ID) == "" {
			return fmt.Errorf("set %d has no id", i)
		}
		if strings.Contains(set.ID, ",") {
			return fmt.Errorf("set id %q must not contain a comma", set.ID)
		}
		if _, dup := ids[set.ID]; dup {
			return fmt.Errorf("duplicate set id %q", set.ID)
		}
		ids[set.ID] = struct{}{}
		for j, g := range set.Graphs {
			if utf8.RuneCountInString(g.Char) != 1 {
				return fmt.Errorf("set %q graph %d: char must be a single character, got %q", set.ID, j, g.Char)
			}
			if strings.TrimSpace(g.Image) == "" {
				return fmt.Errorf("set %q graph %d: image is required", set.ID, j)
			}
		}
	}
	return nil
}

// SetIDs returns the set IDs in manifest order.
func (c *Catalogue) SetIDs() []string {
	ids := make([]string, len(c.Sets))
	for i, set := range c.Sets {
		ids[i] = set.ID
	}
	return ids
}

// EnabledSetIDs returns the IDs of sets enabled in the manifest.
func (c *Catalogue) EnabledSetIDs() []string {
	var ids []string
	for _, set := range c.Sets {
		if set.Enabled {
			ids = append(ids, set.ID)
		}
	}
	return ids
}

// DefaultSetIDs returns the sets a round uses when none are chosen: the
// enabled sets, or every set when the manifest enables none.
func (c *Catalogue) DefaultSetIDs() []string {
	if ids := c.EnabledSetIDs(); len(ids) > 0 {
		return ids
	}
	return c.SetIDs()
}

// UnknownSets returns requested IDs missing from the catalogue.
func (c *Catalogue) UnknownSets(ids []string) []string {
	known := map[string]struct{}{}
	for _, set := range c.Sets {
		known[set.ID] = struct{}{}
	}
	var unknown []string
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown
}

// Apply returns a copy whose enabled flags follow opts.
func (c *Catalogue) Apply(opts quiz.Options) *Catalogue {
	out := &Catalogue{
		Root:    c.Root,
		Sets:    make([]quiz.GraphSet, len(c.Sets)),
		Sources: c.Sources,
	}
	for i, set := range c.Sets {
		set.Enabled = opts.HasSet(set.ID)
		out.Sets[i] = set
	}
	return out
}

// Pool returns the graphs of the enabled sets.
func (c *Catalogue) Pool() []quiz.Graph {
	return quiz.Pool(c.Sets)
}

// ByLetter groups graphs of all sets by character in alphabetical order.
func (c *Catalogue) ByLetter() []Letter {
	byChar := map[string]*Letter{}
	for _, set := range c.Sets {
		for _, g := range set.Graphs {
			l, ok := byChar[g.Char]
			if !ok {
				l = &Letter{Char: g.Char}
				byChar[g.Char] = l
			}
			l.Graphs = append(l.Graphs, g)
		}
	}
	letters := make([]Letter, 0, len(byChar))
	for _, l := range byChar {
		quiz.SortGraphs(l.Graphs)
		letters = append(letters, *l)
	}
	sort.Slice(letters, func(i, j int) bool {
		return quiz.LessChar(letters[i].Char, letters[j].Char)
	})
	return letters
}

// Source looks up a manuscript by id.
func (c *Catalogue) Source(id string) (Source, bool) {
	for _, s := range c.Sources {
		if s.ID == id {
			return s, true
		}
	}
	return Source{}, false
}

// SourceTitle returns the title of a source, or the id when it is not described.
func (c *Catalogue) SourceTitle(id string) string {
	if s, ok := c.Source(id); ok && s.Title != "" {
		return s.Title
	}
	return id
}

// Resolve joins an image reference with the catalogue root. References that
// escape the root are rejected.
func (c *Catalogue) Resolve(image string) (string, error) {
	if image == "" {
		return "", fmt.Errorf("image path is empty")
	}
	if filepath.IsAbs(image) {
		return "", fmt.Errorf("image path %q must be relative", image)
	}
	path := filepath.Join(c.Root, filepath.FromSlash(image))
	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve image %q: %w", image, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("image path %q escapes catalogue", image)
	}
	return path, nil
}

// Resolver adapts Resolve for quiz helpers; invalid references resolve to "".
func (c *Catalogue) Resolver() quiz.Resolver {
	return func(image string) string {
		path, err := c.Resolve(image)
		if err != nil {
			return ""
		}
		return path
	}
}
