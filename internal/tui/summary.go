package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/content"
	"github.com/verte-zerg/sharpie/internal/quiz"
)

func (m *Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Restart):
		return m, m.startRound()
	case key.Matches(msg, keys.Options):
		m.screen = screenOptions
		m.round = nil
		return m, nil
	}
	var cmd tea.Cmd
	m.summary, cmd = m.summary.Update(msg)
	return m, cmd
}

func (m *Model) resizeSummary() {
	width, height := 80, 20
	if m.width > 0 {
		width = m.width - 6
	}
	if m.height > 0 {
		height = m.height - 5
	}
	if width < 20 {
		width = 20
	}
	if height < 5 {
		height = 5
	}
	m.summary.Width = width
	m.summary.Height = height
}

func (m *Model) renderSummary() {
	if m.summary.Width == 0 {
		m.resizeSummary()
	}
	m.summary.SetContent(m.summaryContent())
	m.summary.GotoTop()
}

func (m *Model) summaryContent() string {
	vars := summaryVars(m.stats)
	var b strings.Builder
	if r := m.contentRenderer(); r != nil {
		out, err := r.Render(content.PageSummary, vars)
		if err != nil {
			m.log.Warn("failed to render summary", zap.Error(err))
		} else {
			b.WriteString(out)
		}
	}
	if b.Len() == 0 {
		b.WriteString(titleStyle.Render("Round complete"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("%s of %s correct (%s%%) in %s\n%s\n",
			vars["correct"], vars["total"], vars["percentage"], vars["elapsed"], vars["verdict"]))
	}
	if m.saveErr != "" {
		b.WriteString(incorrectStyle.Render(m.saveErr))
		b.WriteString("\n")
	}
	if len(m.stats.Mistakes) == 0 {
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Mistakes"))
	b.WriteString("\n\n")
	for _, mk := range m.stats.Mistakes {
		b.WriteString(m.viewMistake(mk))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m *Model) viewMistake(mk quiz.Mistake) string {
	thumb := m.glyph(mk.Graph.Image, thumbWidth)
	var lines []string
	lines = append(lines, valueStyle.Render(mk.Graph.Char))
	if len(mk.Answers) > 0 {
		lines = append(lines, labelStyle.Render("you typed "+strings.Join(mk.Answers, ", ")))
	}
	if mk.Count > 1 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("missed %d times", mk.Count)))
	}
	if mk.Graph.Source != "" {
		lines = append(lines, mutedStyle.Render(m.cat.SourceTitle(mk.Graph.Source)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, thumb, "  ", strings.Join(lines, "\n"))
}

func (m *Model) viewSummary() string {
	return frameStyle.Render(m.summary.View())
}

func summaryVars(stats quiz.GameStats) map[string]string {
	return map[string]string{
		"correct":    strconv.Itoa(stats.Correct),
		"total":      strconv.Itoa(stats.Total),
		"percentage": strconv.FormatFloat(stats.Percentage, 'f', 1, 64),
		"elapsed":    formatClock(stats.Elapsed),
		"verdict":    verdict(stats),
	}
}

func verdict(stats quiz.GameStats) string {
	switch {
	case stats.Total == 0:
		return "No graphs were answered this round."
	case stats.Percentage >= 90:
		return "An excellent reading."
	case stats.Percentage >= 70:
		return "A good reading. Review the mistakes below."
	default:
		return "Keep practising. Review the mistakes below."
	}
}
