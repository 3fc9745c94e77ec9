package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/config"
	"github.com/verte-zerg/sharpie/internal/content"
	"github.com/verte-zerg/sharpie/internal/logging"
	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/server"
	"github.com/verte-zerg/sharpie/internal/share"
	"github.com/verte-zerg/sharpie/internal/stats"
	"github.com/verte-zerg/sharpie/internal/statsui"
	"github.com/verte-zerg/sharpie/internal/store"
	"github.com/verte-zerg/sharpie/internal/tui"
)

const (
	statsMistakeLimit = 20
	statsTopLetters   = 5
)

var (
	catalogueList  bool
	catalogueInit  bool
	catalogueForce bool

	statsSince  string
	statsLast   int
	statsWindow int
	statsPlain  bool

	linkCopy bool

	serveAddr    string
	serveWatch   bool
	serveBaseURL string
)

func newCatalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Browse the graph catalogue",
		Args:  cobra.NoArgs,
		RunE:  runCatalogueCmd,
	}
	cmd.Flags().BoolVar(&catalogueList, "list", false, "print sets and letters instead of opening the browser")
	cmd.Flags().BoolVar(&catalogueInit, "init", false, "write a sample catalogue")
	cmd.Flags().BoolVar(&catalogueForce, "force", false, "overwrite an existing catalogue with --init")
	return cmd
}

func runCatalogueCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "catalogue", &catalogueDir, fileCfg.Game.Catalogue)

	if catalogueInit {
		if err := catalogue.WriteSample(catalogueDir, catalogueForce); err != nil {
			return err
		}
		logErrf("Wrote sample catalogue to %s\n", catalogueDir)
		return nil
	}

	cat, err := loadCatalogue(catalogueDir)
	if err != nil {
		return err
	}
	if catalogueList || !stdoutIsTerminal() {
		return writeCatalogueList(cmd.OutOrStdout(), cat)
	}

	log, err := logging.NewFile(config.DefaultLogPath(), debugLog)
	if err != nil {
		return err
	}
	defer syncLog(log)

	program := tea.NewProgram(tui.NewCatalogueModel(cat, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run catalogue TUI: %w", err)
	}
	return nil
}

func writeCatalogueList(w io.Writer, cat *catalogue.Catalogue) error {
	for _, set := range cat.Sets {
		state := ""
		if set.Enabled {
			state = " (enabled)"
		}
		if _, err := fmt.Fprintf(w, "%-14s %-20s %3d graphs%s\n", set.ID, set.Name, len(set.Graphs), state); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	letters := cat.ByLetter()
	if len(letters) == 0 {
		return nil
	}
	parts := make([]string, 0, len(letters))
	for _, l := range letters {
		parts = append(parts, l.Char+":"+strconv.Itoa(len(l.Graphs)))
	}
	if _, err := fmt.Fprintf(w, "\nletters: %s\n", strings.Join(parts, " ")); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N games")
	cmd.Flags().IntVar(&statsWindow, "window", defaultStatsWindow, "moving average window")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of opening the browser")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := statsConfig()
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "catalogue", &catalogueDir, fileCfg.Game.Catalogue)

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain || !stdoutIsTerminal() {
		return writeStatsReport(cmd.Context(), cmd.OutOrStdout(), st, cfg, terminalWidth())
	}

	log, err := logging.NewFile(config.DefaultLogPath(), debugLog)
	if err != nil {
		return err
	}
	defer syncLog(log)

	// Thumbnails are optional in the browser.
	cat, err := catalogue.Load(catalogueDir)
	if err != nil {
		log.Warn("stats without catalogue thumbnails", zap.Error(err))
		cat = nil
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg, cat, log), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func statsConfig() (model.StatsConfig, error) {
	cfg, err := stats.ParseFilter(statsSince, strconv.Itoa(statsLast), strconv.Itoa(statsWindow))
	if err != nil {
		return model.StatsConfig{}, fmt.Errorf("invalid stats flags: %w", err)
	}
	return cfg, nil
}

func writeStatsReport(ctx context.Context, w io.Writer, st *store.Store, cfg model.StatsConfig, width int) error {
	report, err := stats.BuildReport(ctx, st, cfg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	if len(report.Games) == 0 {
		_, err := fmt.Fprintln(w, "No games recorded yet.")
		return err
	}
	if err := stats.RenderSummary(w, report.Games, cfg.Window, width); err != nil {
		return err
	}
	if line := stats.MostPractised(report.LetterAggsAll, statsTopLetters); line != "" {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "\nLetters (last %d games)\n", len(report.WindowGameIDs)); err != nil {
		return err
	}
	if err := stats.RenderLetterTable(w, report.LetterAggsWindow); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "\nMistakes"); err != nil {
		return err
	}
	return stats.RenderMistakes(w, report.Mistakes, statsMistakeLimit)
}

func newLinkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print a share link for the current options",
		Args:  cobra.NoArgs,
		RunE:  runLinkCmd,
	}
	cmd.Flags().BoolVar(&linkCopy, "copy", false, "copy the link to the clipboard")
	return cmd
}

func runLinkCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	// Without a catalogue the link falls back to the built-in default sets.
	cat, err := catalogue.Load(cfg.CatalogueDir)
	if err != nil {
		cat = nil
	}
	cfg, err = withCatalogueSets(cfg, cat)
	if err != nil {
		return err
	}
	link, err := share.Link(cfg.BaseURL, cfg.Options)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintln(out, link); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if stdoutIsTerminal() {
		qr, err := share.QR(link)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(out, qr); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if linkCopy {
		if err := share.Copy(link); err != nil {
			return err
		}
		logErrln("Copied to clipboard")
	}
	return nil
}

func newAboutCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "about [page]",
		Short:     "Explain secretary hand and the catalogue in use",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: content.Pages(),
		RunE:      runAboutCmd,
	}
}

func runAboutCmd(cmd *cobra.Command, args []string) error {
	pages, err := aboutPages(args)
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "catalogue", &catalogueDir, fileCfg.Game.Catalogue)

	style := content.StyleDark
	if !stdoutIsTerminal() {
		style = content.StylePlain
	}
	r, err := content.NewRenderer(min(terminalWidth(), 100), style)
	if err != nil {
		return err
	}
	vars := aboutVars(catalogueDir)
	for _, page := range pages {
		out, err := r.Render(page, vars)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// aboutPages picks the pages to render: about and help by default, or the
// single page named in args.
func aboutPages(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{content.PageAbout, content.PageHelp}, nil
	}
	available := content.Pages()
	for _, name := range available {
		if name == args[0] {
			return []string{name}, nil
		}
	}
	return nil, fmt.Errorf("unknown page %q (available: %s)", args[0], strings.Join(available, ", "))
}

func aboutVars(dir string) map[string]string {
	vars := map[string]string{"catalogue": dir, "graphs": "0", "sets": "0"}
	cat, err := catalogue.Load(dir)
	if err != nil {
		return vars
	}
	graphs := 0
	for _, set := range cat.Sets {
		graphs += len(set.Graphs)
	}
	vars["graphs"] = strconv.Itoa(graphs)
	vars["sets"] = strconv.Itoa(len(cat.Sets))
	return vars
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quiz as a JSON API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the catalogue when its files change")
	cmd.Flags().StringVar(&serveBaseURL, "base-url", share.DefaultBaseURL, "base URL for share links")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := resolveConfig(cmd, fileCfg)
	if err != nil {
		return err
	}
	applyConfig(cmd, "addr", &serveAddr, fileCfg.Serve.Addr)
	applyConfig(cmd, "watch", &serveWatch, fileCfg.Serve.Watch)
	applyConfig(cmd, "base-url", &serveBaseURL, fileCfg.Serve.BaseURL)
	cfg.BaseURL = serveBaseURL

	log, err := logging.NewConsole(debugLog)
	if err != nil {
		return err
	}
	defer syncLog(log)

	cat, err := loadCatalogue(cfg.CatalogueDir)
	if err != nil {
		return err
	}
	// Validate against the current catalogue, but keep unset sets empty so
	// new games follow the enabled sets of reloaded catalogues.
	if _, err := withCatalogueSets(cfg, cat); err != nil {
		return err
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("failed to close db", zap.Error(cerr))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, cat, st, quiz.NewPicker(), log)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, serveAddr)
	})
	if serveWatch {
		g.Go(func() error {
			return catalogue.Watch(gctx, cfg.CatalogueDir, catalogue.DefaultDebounce, log, srv.SetCatalogue)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
