// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/content"
	"github.com/verte-zerg/sharpie/internal/glyph"
	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"
	statsPkg "github.com/verte-zerg/sharpie/internal/stats"
	"github.com/verte-zerg/sharpie/internal/store"
)

type screen int

const (
	screenOptions screen = iota
	screenGame
	screenSummary
)

const (
	glyphWidth     = 32
	thumbWidth     = 12
	maxAttemptShow = 3
)

type tickMsg struct {
	round int
}

// Model implements the Bubble Tea quiz UI: options panel, game and summary.
type Model struct {
	config model.Config
	cat    *catalogue.Catalogue
	store  *store.Store
	picker *quiz.Picker
	log    *zap.Logger
	now    func() time.Time

	width  int
	height int
	screen screen
	help   help.Model

	// options panel
	opts   quiz.Options
	cursor int
	notice string

	// game
	roundSeq    int
	roundID     string
	round       *quiz.Round
	pool        []quiz.Graph
	current     quiz.Solution
	hasCurrent  bool
	last        *quiz.HistoryEntry
	lastAttempt quiz.Attempt
	weakSet     map[string]struct{}

	// summary
	stats   quiz.GameStats
	summary viewport.Model
	saveErr string

	lastAcc      float64
	hasLast      bool
	allCorrect   int
	allIncorrect int

	glyphs   map[string]string
	renderer *content.Renderer
}

// NewModel constructs the quiz model. st may be nil to play without history.
func NewModel(cfg model.Config, cat *catalogue.Catalogue, st *store.Store, picker *quiz.Picker, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		config:  cfg,
		cat:     cat,
		store:   st,
		picker:  picker,
		log:     log,
		now:     time.Now,
		help:    help.New(),
		opts:    cfg.Options,
		summary: viewport.New(0, 0),
		glyphs:  map[string]string{},
		weakSet: map[string]struct{}{},
	}
	m.cursor = len(m.optionRows()) - 1
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.renderer = nil
		m.resizeSummary()
		if m.screen == screenSummary {
			m.renderSummary()
		}
		return m, nil
	case tickMsg:
		if m.screen != screenGame || msg.round != m.roundSeq {
			return m, nil
		}
		if m.round.Expired(m.now()) {
			m.finishRound()
			return m, nil
		}
		return m, m.tick()
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenOptions:
			return m.updateOptions(msg)
		case screenGame:
			return m.updateGame(msg)
		case screenSummary:
			return m.updateSummary(msg)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var body string
	var bindings = keys.optionsHelp()
	switch m.screen {
	case screenOptions:
		body = m.viewOptions()
	case screenGame:
		body = m.viewGame()
		bindings = keys.gameHelp()
	case screenSummary:
		body = m.viewSummary()
		bindings = keys.summaryHelp()
	}
	helpLine := m.help.ShortHelpView(bindings)
	if m.width == 0 || m.height == 0 {
		return body + "\n\n" + helpLine
	}
	bodyHeight := m.height - 1
	placed := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, body)
	return placed + "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Center, helpLine)
}

func (m *Model) tick() tea.Cmd {
	seq := m.roundSeq
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{round: seq}
	})
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	games, err := m.store.ListGames(context.Background(), model.StatsConfig{})
	if err != nil {
		m.log.Warn("failed to load game history", zap.Error(err))
		return
	}
	if len(games) == 0 {
		return
	}
	last := games[len(games)-1]
	m.lastAcc, _ = statsPkg.GameMetrics(last.Correct, last.Incorrect, last.DurationMs)
	m.hasLast = true
	for _, g := range games {
		m.allCorrect += g.Correct
		m.allIncorrect += g.Incorrect
	}
}

func (m *Model) renderFooter() string {
	segments := []string{}
	if m.screen == screenGame && m.round != nil {
		stats := m.round.Stats(m.now())
		segments = append(segments, fmt.Sprintf("Score %d/%d · %.1f%%", stats.Correct, stats.Total, stats.Percentage))
		if m.round.TimeLimit > 0 {
			segments = append(segments, "Time "+formatClock(m.round.Remaining(m.now())))
		} else {
			segments = append(segments, "Time "+formatClock(stats.Elapsed))
		}
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastAcc*100))
	}
	if total := m.allCorrect + m.allIncorrect; total > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f%%", quiz.Percentage(m.allCorrect, total)))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) glyph(image string, width int) string {
	path, err := m.cat.Resolve(image)
	if err != nil {
		return mutedStyle.Render("[" + image + "]")
	}
	key := fmt.Sprintf("%s@%d", path, width)
	if out, ok := m.glyphs[key]; ok {
		return out
	}
	out, err := glyph.Render(path, width)
	if err != nil {
		m.log.Warn("failed to render graph", zap.String("path", path), zap.Error(err))
		out = mutedStyle.Render("[" + image + "]")
	}
	m.glyphs[key] = out
	return out
}

func (m *Model) contentRenderer() *content.Renderer {
	if m.renderer != nil {
		return m.renderer
	}
	width := m.width - 8
	if width <= 0 || width > 80 {
		width = 80
	}
	r, err := content.NewRenderer(width, content.StyleDark)
	if err != nil {
		m.log.Warn("failed to create markdown renderer", zap.Error(err))
		return nil
	}
	m.renderer = r
	return r
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		d = 0
	}
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
