// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/glyph"
	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/stats"
	"github.com/verte-zerg/sharpie/internal/store"
)

const (
	tabOverview = iota
	tabLetters
	tabMistakes
)

const (
	thumbWidth   = 10
	mistakeLimit = 30
	topLetters   = 5
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	letterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cat   *catalogue.Catalogue
	log   *zap.Logger
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs        []string
	activeTab   int
	viewports   []viewport.Model
	letterTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model. cat may be nil, in which case
// mistakes are listed without thumbnails.
func NewModel(st *store.Store, cfg model.StatsConfig, cat *catalogue.Catalogue, log *zap.Logger) *Model {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Model{
		store: st,
		cat:   cat,
		log:   log,
		cfg:   cfg,
		tabs:  []string{"Overview", "Letters", "Mistakes"},
	}
	m.initInputs()
	m.letterTable = buildLetterTable(nil, 0, 1)
	m.initViewports()
	m.refreshReport()
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
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l", "tab":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.Window = nextWindow(m.cfg.Window)
			m.refreshReport()
			return m, nil
		case "-":
			m.cfg.Window = prevWindow(m.cfg.Window)
			m.refreshReport()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabLetters {
				m.letterTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabLetters {
				m.letterTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		if m.activeTab == tabLetters {
			var cmd tea.Cmd
			m.letterTable, cmd = m.letterTable.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Since (YYYY-MM-DD): "),
		newFilterInput("Last: "),
		newFilterInput("Window: "),
	}
	m.setInputsFromConfig()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if m.cfg.Since != nil {
		m.filterInputs[0].SetValue(m.cfg.Since.Format(stats.DateLayout))
	} else {
		m.filterInputs[0].SetValue("")
	}
	if m.cfg.Last > 0 {
		m.filterInputs[1].SetValue(strconv.Itoa(m.cfg.Last))
	} else {
		m.filterInputs[1].SetValue("")
	}
	m.filterInputs[2].SetValue(strconv.Itoa(m.cfg.Window))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.letterTable.SetWidth(m.width)
	m.letterTable.SetHeight(max(1, bodyHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = max(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabLetters {
		m.letterTable.Focus()
	} else {
		m.letterTable.Blur()
	}
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format(stats.DateLayout)
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: since=%s  last=%s  window=%d", since, last, m.cfg.Window)
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderBody() string {
	if m.filterMode {
		lines := []string{"Settings (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	}
	if m.activeTab == tabLetters {
		switch {
		case len(m.report.Games) == 0:
			return "No games found."
		case len(m.report.LetterAggsWindow) == 0:
			return "No letter stats found."
		default:
			return tableMutedStyle.Render(m.letterTable.View())
		}
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.log.Error("failed to build stats report", zap.Error(err))
		m.errMsg = err.Error()
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load stats.")
		}
		return
	}
	m.errMsg = ""
	m.report = report
	m.letterTable.SetRows(letterRows(report.LetterAggsWindow))
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report.Games, m.report.LetterAggsAll, m.cfg.Window, width))
	m.viewports[tabMistakes].SetContent(m.renderMistakes(width))
}

func renderOverview(games []model.GameAggregate, letters []model.LetterAggregate, window, width int) string {
	if len(games) == 0 {
		return "No games found."
	}
	var totalAcc, totalAPM, bestAcc float64
	answered := 0
	for _, g := range games {
		acc, apm := stats.GameMetrics(g.Correct, g.Incorrect, g.DurationMs)
		totalAcc += acc
		totalAPM += apm
		bestAcc = max(bestAcc, acc)
		answered += g.Correct + g.Incorrect
	}
	count := float64(len(games))
	cards := []string{
		metricCard("Games", fmt.Sprintf("%d", len(games))),
		metricCard("Answered", fmt.Sprintf("%d", answered)),
		metricCard("Avg Acc", fmt.Sprintf("%.1f%%", totalAcc/count*100)),
		metricCard("Best Acc", fmt.Sprintf("%.1f%%", bestAcc*100)),
		metricCard("Answers/min", fmt.Sprintf("%.1f", totalAPM/count)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3], cards[4])
		summary = lipgloss.JoinVertical(lipgloss.Left, row1, row2)
	}

	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, games, window, width); err != nil {
		return summary
	}
	trend := ""
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, "Trend: ") {
			trend = line
		}
	}
	out := summary + "\n\n" + headerStyle.Render("Accuracy") + "\n" + trend
	if line := stats.MostPractised(letters, topLetters); line != "" {
		out += "\n\n" + line
	}
	return strings.TrimRight(out, "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderMistakes(width int) string {
	if len(m.report.Mistakes) == 0 {
		return "No mistakes recorded."
	}
	mistakes := m.report.Mistakes
	if len(mistakes) > mistakeLimit {
		mistakes = mistakes[:mistakeLimit]
	}
	blocks := make([]string, 0, len(mistakes))
	for _, mk := range mistakes {
		lines := []string{
			letterStyle.Render(mk.Char),
			fmt.Sprintf("missed %d times", mk.Count),
		}
		if len(mk.Answers) > 0 {
			lines = append(lines, "read as "+strings.Join(mk.Answers, ", "))
		}
		lines = append(lines, headerStyle.Render(truncateLine(mk.Image, width-thumbWidth-4)))
		text := strings.Join(lines, "\n")
		if thumb := m.thumbnail(mk.Image); thumb != "" {
			text = lipgloss.JoinHorizontal(lipgloss.Top, thumb, "  ", text)
		}
		blocks = append(blocks, text)
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) thumbnail(image string) string {
	if m.cat == nil {
		return ""
	}
	path, err := m.cat.Resolve(image)
	if err != nil {
		return ""
	}
	out, err := glyph.Render(path, thumbWidth)
	if err != nil {
		m.log.Debug("no thumbnail for mistake", zap.String("image", image), zap.Error(err))
		return ""
	}
	return out
}

func buildLetterTable(aggs []model.LetterAggregate, width, height int) table.Model {
	columns := []table.Column{
		{Title: "Letter", Width: 6},
		{Title: "Accuracy", Width: 9},
		{Title: "Correct", Width: 7},
		{Title: "Incorrect", Width: 9},
		{Title: "Total", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(letterRows(aggs)),
		table.WithHeight(max(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(letterTableStyles())
	return t
}

func letterRows(aggs []model.LetterAggregate) []table.Row {
	sorted := sortWeakestFirst(aggs)
	rows := make([]table.Row, 0, len(sorted))
	for _, agg := range sorted {
		total := agg.Correct + agg.Incorrect
		acc := 0.0
		if total > 0 {
			acc = float64(agg.Correct) / float64(total) * 100
		}
		rows = append(rows, table.Row{
			agg.Char,
			fmt.Sprintf("%.2f%%", acc),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
			fmt.Sprintf("%d", total),
		})
	}
	return rows
}

func letterTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func sortWeakestFirst(aggs []model.LetterAggregate) []model.LetterAggregate {
	out := append([]model.LetterAggregate(nil), aggs...)
	accuracy := func(a model.LetterAggregate) float64 {
		total := a.Correct + a.Incorrect
		if total == 0 {
			return 1
		}
		return float64(a.Correct) / float64(total)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := accuracy(out[i]), accuracy(out[j])
		if ai == aj {
			return out[i].Char < out[j].Char
		}
		return ai < aj
	})
	return out
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	cfg, err := stats.ParseFilter(
		m.filterInputs[0].Value(),
		m.filterInputs[1].Value(),
		m.filterInputs[2].Value(),
	)
	if err != nil {
		return err
	}
	m.cfg = cfg
	return nil
}

const windowStep = 5

// nextWindow moves to the next multiple of windowStep.
func nextWindow(n int) int {
	if n < 0 {
		n = 0
	}
	return (n/windowStep + 1) * windowStep
}

// prevWindow moves to the previous multiple of windowStep, bottoming out at 1.
func prevWindow(n int) int {
	if n <= windowStep {
		return 1
	}
	return (n - 1) / windowStep * windowStep
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
