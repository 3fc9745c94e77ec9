package quiz

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Alphabet sizes understood by the grader.
const (
	Alphabet24 = 24
	Alphabet26 = 26
)

// Query keys used in share links.
const (
	keyAlphabet = "alphabet"
	keySets     = "sets"
	keyTime     = "time"
	keyWeak     = "weak"
)

// Options configures a round.
type Options struct {
	Alphabet  int           `json:"alphabet"`
	Sets      []string      `json:"sets"`
	TimeLimit time.Duration `json:"time_limit"`
	FocusWeak bool          `json:"focus_weak"`
}

// DefaultOptions returns the settings used when nothing else is given.
func DefaultOptions() Options {
	return Options{
		Alphabet:  Alphabet26,
		Sets:      []string{"minuscules"},
		TimeLimit: 3 * time.Minute,
	}
}

// Equivalence reports whether I/J and U/V are interchangeable.
func (o Options) Equivalence() bool {
	return o.Alphabet == Alphabet24
}

// HasSet reports whether the set is enabled.
func (o Options) HasSet(id string) bool {
	return containsString(o.Sets, id)
}

// ToggleSet enables or disables a set.
func (o Options) ToggleSet(id string) Options {
	out := make([]string, 0, len(o.Sets)+1)
	found := false
	for _, s := range o.Sets {
		if s == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		out = append(out, id)
	}
	o.Sets = out
	return o
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Alphabet != Alphabet24 && o.Alphabet != Alphabet26 {
		return fmt.Errorf("alphabet must be %d or %d", Alphabet24, Alphabet26)
	}
	if o.TimeLimit < 0 {
		return fmt.Errorf("time limit must be >= 0")
	}
	if len(o.Sets) == 0 {
		return fmt.Errorf("at least one graph set must be enabled")
	}
	return nil
}

// Encode renders the options as a query string with sorted keys and set IDs.
func (o Options) Encode() string {
	sets := make([]string, 0, len(o.Sets))
	for _, s := range o.Sets {
		sets = append(sets, url.QueryEscape(s))
	}
	sort.Strings(sets)
	weak := "0"
	if o.FocusWeak {
		weak = "1"
	}
	parts := []string{
		keyAlphabet + "=" + strconv.Itoa(o.Alphabet),
		keySets + "=" + strings.Join(sets, ","),
		keyTime + "=" + strconv.Itoa(int(o.TimeLimit/time.Second)),
		keyWeak + "=" + weak,
	}
	return strings.Join(parts, "&")
}

// DecodeOptions parses a query string or URL on top of defaults. Unknown keys
// are ignored.
func DecodeOptions(raw string, defaults Options) (Options, error) {
	opts := defaults
	opts.Sets = append([]string(nil), defaults.Sets...)
	raw = strings.TrimSpace(raw)
	if idx := strings.Index(raw, "?"); idx >= 0 {
		raw = raw[idx+1:]
	}
	if idx := strings.Index(raw, "#"); idx >= 0 {
		raw = raw[:idx]
	}
	if raw == "" {
		return opts, nil
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return Options{}, fmt.Errorf("invalid options query: %w", err)
	}

	if v := values.Get(keyAlphabet); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Options{}, fmt.Errorf("invalid %s value %q: %w", keyAlphabet, v, err)
		}
		opts.Alphabet = n
	}
	if _, ok := values[keySets]; ok {
		opts.Sets = ParseSetList(values.Get(keySets))
	}
	if v := values.Get(keyTime); v != "" {
		d, err := ParseTimeLimit(v)
		if err != nil {
			return Options{}, fmt.Errorf("invalid %s value %q: %w", keyTime, v, err)
		}
		opts.TimeLimit = d
	}
	if v := values.Get(keyWeak); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Options{}, fmt.Errorf("invalid %s value %q: %w", keyWeak, v, err)
		}
		opts.FocusWeak = b
	}
	return opts, nil
}

// ParseSetList splits a comma separated list of set IDs.
func ParseSetList(v string) []string {
	var sets []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" || containsString(sets, part) {
			continue
		}
		sets = append(sets, part)
	}
	return sets
}

// ParseTimeLimit accepts whole seconds or a Go duration such as "3m".
func ParseTimeLimit(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
