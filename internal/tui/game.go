package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/quiz"
	statsPkg "github.com/verte-zerg/sharpie/internal/stats"
)

func (m *Model) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.End) {
		m.finishRound()
		return m, nil
	}
	if msg.Type != tea.KeyRunes || len(msg.Runes) == 0 {
		return m, nil
	}
	m.submit(string(msg.Runes[0]))
	return m, nil
}

func (m *Model) submit(answer string) {
	entry, err := m.round.Answer(m.current.Graph, answer, m.now())
	if err != nil {
		if !errors.Is(err, quiz.ErrRoundOver) {
			m.log.Warn("failed to grade answer", zap.Error(err))
		}
		m.finishRound()
		return
	}
	m.last = &entry
	m.lastAttempt = quiz.Attempt{}
	if !entry.Correct {
		m.lastAttempt = quiz.NewAttempt(entry.Answer, m.pool, nil, m.round.Equivalence)
	}
	m.log.Debug("answer graded",
		zap.String("round", m.roundID),
		zap.String("char", entry.Graph.Char),
		zap.String("image", entry.Graph.Image),
		zap.String("answer", entry.Answer),
		zap.Bool("correct", entry.Correct),
		zap.Bool("equivalent", entry.Equivalent),
	)
	if err := m.nextPrompt(); err != nil {
		m.log.Error("failed to pick next graph", zap.Error(err))
		m.finishRound()
	}
}

func (m *Model) finishRound() {
	if m.round == nil {
		return
	}
	endedAt := m.now()
	m.stats = m.round.Stats(endedAt)
	m.saveErr = ""
	if m.stats.Total > 0 {
		m.saveRound(endedAt.UTC())
	}
	m.log.Info("round finished",
		zap.String("round", m.roundID),
		zap.Int("correct", m.stats.Correct),
		zap.Int("total", m.stats.Total),
		zap.Float64("percentage", m.stats.Percentage),
		zap.Duration("elapsed", m.stats.Elapsed),
	)
	// Ticks of the finished round are dropped once the sequence moves on.
	m.roundSeq++
	m.screen = screenSummary
	m.renderSummary()
}

func (m *Model) saveRound(endedAt time.Time) {
	if m.store != nil {
		if _, err := m.store.SaveRound(context.Background(), m.roundID, m.opts, m.round, endedAt); err != nil {
			m.log.Error("failed to save round", zap.String("round", m.roundID), zap.Error(err))
			m.saveErr = fmt.Sprintf("failed to save round: %v", err)
		}
	}
	m.lastAcc, _ = statsPkg.GameMetrics(m.stats.Correct, m.stats.Incorrect, m.stats.Elapsed.Milliseconds())
	m.hasLast = true
	m.allCorrect += m.stats.Correct
	m.allIncorrect += m.stats.Incorrect
}

func (m *Model) viewGame() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Which letter is this?"))
	b.WriteString("\n\n")
	if m.hasCurrent {
		b.WriteString(m.glyph(m.current.Graph.Image, glyphWidth))
		b.WriteString("\n")
		if src := m.current.Graph.Source; src != "" {
			b.WriteString(mutedStyle.Render(m.cat.SourceTitle(src)))
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(m.viewFeedback())
	if footer := m.renderFooter(); footer != "" {
		b.WriteString("\n\n")
		b.WriteString(footer)
	}
	return frameStyle.Render(b.String())
}

func (m *Model) viewFeedback() string {
	if m.last == nil {
		return mutedStyle.Render("Type the letter you read.")
	}
	e := m.last
	if e.Correct {
		if e.Equivalent {
			return correctStyle.Render(fmt.Sprintf("✓ %s (accepted for %s)", e.Answer, e.Graph.Char))
		}
		return correctStyle.Render("✓ " + e.Graph.Char)
	}
	line := incorrectStyle.Render(fmt.Sprintf("✗ you typed %q, it was %q", e.Answer, e.Graph.Char))
	images := m.lastAttempt.Images
	if len(images) == 0 {
		return line
	}
	if len(images) > maxAttemptShow {
		images = images[:maxAttemptShow]
	}
	thumbs := make([]string, 0, len(images))
	for _, img := range images {
		thumbs = append(thumbs, m.glyph(img, thumbWidth))
	}
	caption := mutedStyle.Render(fmt.Sprintf("%q looks like:", e.Answer))
	row := lipgloss.JoinHorizontal(lipgloss.Top, interleave(thumbs, " ")...)
	return line + "\n" + caption + "\n" + row
}

func interleave(items []string, sep string) []string {
	out := make([]string, 0, len(items)*2)
	for i, it := range items {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, it)
	}
	return out
}
