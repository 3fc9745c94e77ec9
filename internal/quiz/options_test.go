package quiz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsEncodeIsStable(t *testing.T) {
	opts := Options{
		Alphabet:  Alphabet24,
		Sets:      []string{"minuscules", "majuscules"},
		TimeLimit: 3 * time.Minute,
		FocusWeak: true,
	}
	assert.Equal(t, "alphabet=24&sets=majuscules,minuscules&time=180&weak=1", opts.Encode())
}

func TestDecodeOptionsRoundTripsFromURL(t *testing.T) {
	opts := Options{Alphabet: Alphabet24, Sets: []string{"majuscules"}, TimeLimit: 5 * time.Minute}
	decoded, err := DecodeOptions("https://example.org/play?"+opts.Encode()+"#top", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, opts, decoded)
	assert.True(t, decoded.Equivalence())
}

func TestDecodeOptionsKeepsDefaults(t *testing.T) {
	defaults := DefaultOptions()
	decoded, err := DecodeOptions("time=3m&unknown=1", defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults.Alphabet, decoded.Alphabet)
	assert.Equal(t, defaults.Sets, decoded.Sets)
	assert.Equal(t, 3*time.Minute, decoded.TimeLimit)
}

func TestDecodeOptionsErrorsNameTheKey(t *testing.T) {
	_, err := DecodeOptions("alphabet=many", DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alphabet")

	_, err = DecodeOptions("weak=perhaps", DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weak")
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
	assert.Error(t, Options{Alphabet: 25, Sets: []string{"x"}}.Validate())
	assert.Error(t, Options{Alphabet: 26}.Validate())
	assert.Error(t, Options{Alphabet: 26, Sets: []string{"x"}, TimeLimit: -time.Second}.Validate())
}

func TestToggleSet(t *testing.T) {
	opts := DefaultOptions().ToggleSet("majuscules")
	assert.True(t, opts.HasSet("majuscules"))
	assert.True(t, opts.HasSet("minuscules"))
	opts = opts.ToggleSet("minuscules")
	assert.Equal(t, []string{"majuscules"}, opts.Sets)
}
