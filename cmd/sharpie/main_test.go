package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/config"
	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/store"
)

func TestResolveConfigLayers(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--time", "60",
		"--options", "https://example.org/play?alphabet=24&sets=majuscules&time=300&weak=1",
	}))
	alphabet := 26
	sets := []string{"minuscules", "majuscules"}
	top := 3
	fileCfg := config.FileConfig{
		Game: config.GameConfig{Alphabet: &alphabet, Sets: &sets},
		Weak: config.WeakConfig{Top: &top},
	}

	cfg, err := resolveConfig(cmd, fileCfg)
	require.NoError(t, err)
	assert.Equal(t, quiz.Alphabet24, cfg.Options.Alphabet)
	assert.Equal(t, []string{"majuscules"}, cfg.Options.Sets)
	assert.Equal(t, 60*time.Second, cfg.Options.TimeLimit)
	assert.True(t, cfg.Options.FocusWeak)
	assert.Equal(t, 3, cfg.WeakTop)
	assert.Equal(t, defaultWeakWindow, cfg.WeakWindow)
}

func TestResolveConfigFileOverridesDefaults(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--alphabet", "24"}))
	alphabet := 26
	limit := 0
	base := "https://example.org/play"
	fileCfg := config.FileConfig{
		Game:  config.GameConfig{Alphabet: &alphabet, TimeLimit: &limit},
		Serve: config.ServeConfig{BaseURL: &base},
	}

	cfg, err := resolveConfig(cmd, fileCfg)
	require.NoError(t, err)
	assert.Equal(t, quiz.Alphabet24, cfg.Options.Alphabet)
	assert.Zero(t, cfg.Options.TimeLimit)
	assert.Equal(t, base, cfg.BaseURL)
}

func TestResolveConfigRejectsBadOptions(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--options", "alphabet=twelve"}))
	_, err := resolveConfig(cmd, config.FileConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--options")
}

func TestCatalogueSetsAreDefault(t *testing.T) {
	manifest := `
sets:
  - id: caps
    enabled: true
    graphs:
      - {char: A, image: caps/A.png}
  - id: small
    graphs:
      - {char: a, image: small/a.png}
`
	cat, err := catalogue.Parse([]byte(manifest), t.TempDir())
	require.NoError(t, err)

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))
	cfg, err := resolveConfig(cmd, config.FileConfig{})
	require.NoError(t, err)
	assert.Empty(t, cfg.Options.Sets)

	seeded, err := withCatalogueSets(cfg, cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"caps"}, seeded.Options.Sets)
	assert.Len(t, cat.Apply(seeded.Options).Pool(), 1)

	fallback, err := withCatalogueSets(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, quiz.DefaultOptions().Sets, fallback.Options.Sets)

	cmd = newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--sets", "small"}))
	cfg, err = resolveConfig(cmd, config.FileConfig{})
	require.NoError(t, err)
	chosen, err := withCatalogueSets(cfg, cat)
	require.NoError(t, err)
	assert.Equal(t, []string{"small"}, chosen.Options.Sets)
}

func TestAboutPages(t *testing.T) {
	pages, err := aboutPages(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"about", "help"}, pages)

	pages, err = aboutPages([]string{"summary"})
	require.NoError(t, err)
	assert.Equal(t, []string{"summary"}, pages)

	_, err = aboutPages([]string{"nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "about, help, summary")
}

func TestValidateConfig(t *testing.T) {
	valid := model.Config{
		Options:      quiz.DefaultOptions(),
		CatalogueDir: "catalogue",
		WeakTop:      5,
		WeakFactor:   2,
		WeakWindow:   20,
	}
	require.NoError(t, validateConfig(valid))

	cases := map[string]func(*model.Config){
		"alphabet":    func(c *model.Config) { c.Options.Alphabet = 25 },
		"no sets":     func(c *model.Config) { c.Options.Sets = nil },
		"negative":    func(c *model.Config) { c.Options.TimeLimit = -time.Second },
		"catalogue":   func(c *model.Config) { c.CatalogueDir = "" },
		"weak-top":    func(c *model.Config) { c.WeakTop = -1 },
		"weak-factor": func(c *model.Config) { c.WeakFactor = -0.5 },
		"weak-window": func(c *model.Config) { c.WeakWindow = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			cfg.Options.Sets = append([]string(nil), valid.Options.Sets...)
			mutate(&cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	md, err := toml.Decode(defaultConfigTemplate(), &cfg)
	require.NoError(t, err)
	assert.Empty(t, md.Undecoded())
	assert.Nil(t, cfg.Game.Alphabet)
	assert.Contains(t, defaultConfigTemplate(), "[serve]")
}

func TestCatalogueListAndAbout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, catalogue.WriteSample(dir, false))
	cat, err := loadCatalogue(dir)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeCatalogueList(&buf, cat))
	out := buf.String()
	assert.Contains(t, out, "minuscules")
	assert.Contains(t, out, "(enabled)")
	assert.Contains(t, out, "letters: ")

	vars := aboutVars(dir)
	assert.Equal(t, "52", vars["graphs"])
	assert.Equal(t, "2", vars["sets"])
}

func TestLoadCatalogueHint(t *testing.T) {
	_, err := loadCatalogue(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sharpie catalogue --init")
}

func TestWriteStatsReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "sharpie.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	ctx := context.Background()
	cfg := model.StatsConfig{Window: 5}

	var empty bytes.Buffer
	require.NoError(t, writeStatsReport(ctx, &empty, st, cfg, 80))
	assert.Contains(t, empty.String(), "No games recorded yet.")

	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	round := quiz.NewRound(start, 0, false)
	s := quiz.Graph{Char: "s", Image: "minuscules/s.png"}
	e := quiz.Graph{Char: "e", Image: "minuscules/e.png"}
	_, err = round.Answer(s, "f", start.Add(5*time.Second))
	require.NoError(t, err)
	_, err = round.Answer(e, "e", start.Add(10*time.Second))
	require.NoError(t, err)
	_, err = st.SaveRound(ctx, "g1", quiz.DefaultOptions(), round, start.Add(20*time.Second))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeStatsReport(ctx, &buf, st, cfg, 80))
	out := buf.String()
	assert.Contains(t, out, "Most practised: e s")
	assert.Contains(t, out, "Letters (last 1 games)")
	assert.Contains(t, out, "Mistakes")
}
