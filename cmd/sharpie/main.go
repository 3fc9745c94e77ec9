// Package main provides the CLI entrypoint for sharpie.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/config"
	"github.com/verte-zerg/sharpie/internal/logging"
	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/share"
	"github.com/verte-zerg/sharpie/internal/store"
	"github.com/verte-zerg/sharpie/internal/tui"
)

const (
	defaultWeakTop     = 5
	defaultWeakFactor  = 2.0
	defaultWeakWindow  = 20
	defaultStatsWindow = 10
	defaultAddr        = "127.0.0.1:8080"
)

var (
	gameAlphabet   int
	gameSets       string
	gameTime       int
	gameFocusWeak  bool
	gameWeakTop    int
	gameWeakFactor float64
	gameWeakWindow int
	gameOptions    string
	catalogueDir   string
	debugLog       bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sharpie",
		Short:         "Learn to read secretary hand, one letter at a time",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	defaults := quiz.DefaultOptions()
	flags := rootCmd.PersistentFlags()
	flags.IntVar(&gameAlphabet, "alphabet", defaults.Alphabet, "alphabet size (24 or 26)")
	flags.StringVar(&gameSets, "sets", "", "comma separated graph set IDs (default: the catalogue's enabled sets)")
	flags.IntVar(&gameTime, "time", int(defaults.TimeLimit/time.Second), "round length in seconds (0 for untimed)")
	flags.BoolVar(&gameFocusWeak, "focus-weak", false, "show weak letters more often")
	flags.IntVar(&gameWeakTop, "weak-top", defaultWeakTop, "number of weak letters to focus on")
	flags.Float64Var(&gameWeakFactor, "weak-factor", defaultWeakFactor, "extra weight for weak letters")
	flags.IntVar(&gameWeakWindow, "weak-window", defaultWeakWindow, "number of recent games to compute weak letters")
	flags.StringVar(&gameOptions, "options", "", "options as a share link or query string")
	flags.StringVar(&catalogueDir, "catalogue", config.DefaultCatalogueDir(), "catalogue directory")
	flags.BoolVar(&debugLog, "debug", false, "log at debug level")

	rootCmd.AddCommand(newCatalogueCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLinkCmd())
	rootCmd.AddCommand(newAboutCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}

	cat, err := loadCatalogue(cfg.CatalogueDir)
	if err != nil {
		return err
	}
	cfg, err = withCatalogueSets(cfg, cat)
	if err != nil {
		return err
	}

	log, err := logging.NewFile(config.DefaultLogPath(), debugLog)
	if err != nil {
		return err
	}
	defer syncLog(log)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	log.Info("starting game ui",
		zap.String("catalogue", cfg.CatalogueDir),
		zap.String("options", cfg.Options.Encode()),
	)
	m := tui.NewModel(cfg, cat, st, quiz.NewPicker(), log)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// resolveConfig layers defaults, the config file, --options and explicit
// flags, in that order. Sets stay empty when none of them names any; see
// withCatalogueSets.
func resolveConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyConfig(cmd, "alphabet", &gameAlphabet, fileCfg.Game.Alphabet)
	applySetsConfig(cmd, "sets", &gameSets, fileCfg.Game.Sets)
	applyConfig(cmd, "time", &gameTime, fileCfg.Game.TimeLimit)
	applyConfig(cmd, "focus-weak", &gameFocusWeak, fileCfg.Game.FocusWeak)
	applyConfig(cmd, "catalogue", &catalogueDir, fileCfg.Game.Catalogue)
	applyConfig(cmd, "weak-top", &gameWeakTop, fileCfg.Weak.Top)
	applyConfig(cmd, "weak-factor", &gameWeakFactor, fileCfg.Weak.Factor)
	applyConfig(cmd, "weak-window", &gameWeakWindow, fileCfg.Weak.Window)

	baseURL := share.DefaultBaseURL
	if fileCfg.Serve.BaseURL != nil {
		baseURL = *fileCfg.Serve.BaseURL
	}

	var sets []string
	if cmd.Flags().Changed("sets") || fileCfg.Game.Sets != nil {
		sets = quiz.ParseSetList(gameSets)
	}
	opts := quiz.Options{
		Alphabet:  gameAlphabet,
		Sets:      sets,
		TimeLimit: time.Duration(gameTime) * time.Second,
		FocusWeak: gameFocusWeak,
	}
	if gameOptions != "" {
		decoded, err := quiz.DecodeOptions(gameOptions, opts)
		if err != nil {
			return model.Config{}, fmt.Errorf("invalid --options value: %w", err)
		}
		opts = overrideChanged(cmd, decoded)
	}

	cfg := model.Config{
		Options:      opts,
		CatalogueDir: catalogueDir,
		WeakTop:      gameWeakTop,
		WeakFactor:   gameWeakFactor,
		WeakWindow:   gameWeakWindow,
		BaseURL:      baseURL,
	}
	return cfg, nil
}

// withCatalogueSets falls back to the catalogue's default sets when no sets
// were chosen and validates the result. cat may be nil.
func withCatalogueSets(cfg model.Config, cat *catalogue.Catalogue) (model.Config, error) {
	if len(cfg.Options.Sets) == 0 {
		if cat != nil {
			cfg.Options.Sets = cat.DefaultSetIDs()
		} else {
			cfg.Options.Sets = quiz.DefaultOptions().Sets
		}
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// overrideChanged puts explicitly passed flags back on top of options decoded
// from --options.
func overrideChanged(cmd *cobra.Command, opts quiz.Options) quiz.Options {
	if cmd.Flags().Changed("alphabet") {
		opts.Alphabet = gameAlphabet
	}
	if cmd.Flags().Changed("sets") {
		opts.Sets = quiz.ParseSetList(gameSets)
	}
	if cmd.Flags().Changed("time") {
		opts.TimeLimit = time.Duration(gameTime) * time.Second
	}
	if cmd.Flags().Changed("focus-weak") {
		opts.FocusWeak = gameFocusWeak
	}
	return opts
}

func loadCatalogue(dir string) (*catalogue.Catalogue, error) {
	cat, err := catalogue.Load(dir)
	if err != nil {
		if errors.Is(err, catalogue.ErrNotFound) {
			lines := []string{
				err.Error(),
				"Create a sample catalogue: sharpie catalogue --init",
				"Or point at an existing one: sharpie --catalogue <dir>",
			}
			return nil, fmt.Errorf("%s", strings.Join(lines, "\n"))
		}
		return nil, fmt.Errorf("failed to load catalogue: %w", err)
	}
	return cat, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}
	return openInEditor(path)
}

// ensureConfigFile writes the commented template when path does not exist yet.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return nil
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func openInEditor(path string) error {
	parts := strings.Fields(os.Getenv("EDITOR"))
	if len(parts) == 0 {
		parts = []string{"vi"}
	}
	editor := exec.Command(parts[0], append(parts[1:], path)...)
	editor.Stdin, editor.Stdout, editor.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := editor.Run(); err != nil {
		return fmt.Errorf("failed to open editor %s: %w", parts[0], err)
	}
	return nil
}

// applyConfig copies a config file value into target unless the flag was
// passed explicitly.
func applyConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applySetsConfig(cmd *cobra.Command, name string, target *string, value *[]string) {
	if value == nil {
		return
	}
	joined := strings.Join(*value, ",")
	applyConfig(cmd, name, target, &joined)
}

func defaultConfigTemplate() string {
	defaults := quiz.DefaultOptions()
	return fmt.Sprintf(`# sharpie configuration
# Uncomment a value to enable it. CLI flags override config values.

[game]
# alphabet = %d           # 24 treats I/J and U/V as one letter
# sets = [%s]    # Graph sets to draw prompts from
# time = %d              # Round length in seconds, 0 for untimed
# focus-weak = false      # Show weak letters more often
# catalogue = %q

[weak]
# top = %d                # Number of weak letters to focus on
# factor = %.1f           # Extra weight for weak letters
# window = %d            # Number of recent games to compute weak letters

[serve]
# addr = %q
# base-url = %q
# watch = false           # Reload the catalogue when its files change
`,
		defaults.Alphabet,
		quotedList(defaults.Sets),
		int(defaults.TimeLimit/time.Second),
		config.DefaultCatalogueDir(),
		defaultWeakTop,
		defaultWeakFactor,
		defaultWeakWindow,
		defaultAddr,
		share.DefaultBaseURL,
	)
}

func quotedList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, strconv.Quote(v))
	}
	return strings.Join(quoted, ", ")
}

func validateConfig(cfg model.Config) error {
	if err := cfg.Options.Validate(); err != nil {
		return err
	}
	if cfg.CatalogueDir == "" {
		return fmt.Errorf("--catalogue must not be empty")
	}
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakFactor < 0 {
		return fmt.Errorf("--weak-factor must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}

func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func syncLog(log *zap.Logger) {
	// Sync on a terminal or closed file descriptor is allowed to fail.
	_ = log.Sync()
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
