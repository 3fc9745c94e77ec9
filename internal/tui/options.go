package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/share"
	statsPkg "github.com/verte-zerg/sharpie/internal/stats"
)

type rowKind int

const (
	rowAlphabet rowKind = iota
	rowSet
	rowTime
	rowWeak
	rowStart
)

type optionRow struct {
	kind  rowKind
	setID string
	label string
}

var timePresets = []time.Duration{0, time.Minute, 3 * time.Minute, 5 * time.Minute, 10 * time.Minute}

func (m *Model) optionRows() []optionRow {
	rows := []optionRow{{kind: rowAlphabet, label: "Alphabet"}}
	for _, set := range m.cat.Sets {
		name := set.Name
		if name == "" {
			name = set.ID
		}
		rows = append(rows, optionRow{kind: rowSet, setID: set.ID, label: name})
	}
	rows = append(rows,
		optionRow{kind: rowTime, label: "Time limit"},
		optionRow{kind: rowWeak, label: "Focus weak letters"},
		optionRow{kind: rowStart, label: "Start"},
	)
	return rows
}

func (m *Model) updateOptions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.optionRows()
	if m.cursor >= len(rows) {
		m.cursor = len(rows) - 1
	}
	row := rows[m.cursor]
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Left):
		m.adjust(row, -1)
	case key.Matches(msg, keys.Right):
		m.adjust(row, 1)
	case key.Matches(msg, keys.Toggle):
		m.adjust(row, 1)
	case key.Matches(msg, keys.Copy):
		m.copyLink()
	case key.Matches(msg, keys.Start):
		return m, m.startRound()
	}
	return m, nil
}

func (m *Model) adjust(row optionRow, dir int) {
	m.notice = ""
	switch row.kind {
	case rowAlphabet:
		if m.opts.Alphabet == quiz.Alphabet24 {
			m.opts.Alphabet = quiz.Alphabet26
		} else {
			m.opts.Alphabet = quiz.Alphabet24
		}
	case rowSet:
		m.opts = m.opts.ToggleSet(row.setID)
	case rowTime:
		m.opts.TimeLimit = stepPreset(m.opts.TimeLimit, dir)
	case rowWeak:
		m.opts.FocusWeak = !m.opts.FocusWeak
	}
}

func stepPreset(current time.Duration, dir int) time.Duration {
	idx := 0
	for i, p := range timePresets {
		if p <= current {
			idx = i
		}
	}
	if timePresets[idx] != current && dir < 0 {
		return timePresets[idx]
	}
	idx += dir
	if idx < 0 {
		idx = len(timePresets) - 1
	}
	if idx >= len(timePresets) {
		idx = 0
	}
	return timePresets[idx]
}

func (m *Model) shareLink() (string, error) {
	return share.Link(m.config.BaseURL, m.opts)
}

func (m *Model) copyLink() {
	link, err := m.shareLink()
	if err != nil {
		m.notice = err.Error()
		return
	}
	if err := share.Copy(link); err != nil {
		m.log.Warn("failed to copy share link", zap.Error(err))
		m.notice = err.Error()
		return
	}
	m.notice = "Link copied to clipboard."
}

func (m *Model) startRound() tea.Cmd {
	m.notice = ""
	if err := m.opts.Validate(); err != nil {
		m.notice = err.Error()
		return nil
	}
	if unknown := m.cat.UnknownSets(m.opts.Sets); len(unknown) > 0 {
		m.notice = fmt.Sprintf("unknown graph sets: %s", strings.Join(unknown, ", "))
		return nil
	}
	pool := m.cat.Apply(m.opts).Pool()
	if len(pool) == 0 {
		m.notice = quiz.ErrEmptyPool.Error()
		return nil
	}
	if m.opts.FocusWeak {
		m.refreshWeakSet()
	}

	m.pool = pool
	m.roundSeq++
	m.roundID = uuid.NewString()
	m.round = quiz.NewRound(m.now(), m.opts.TimeLimit, m.opts.Equivalence())
	m.last = nil
	m.lastAttempt = quiz.Attempt{}
	m.hasCurrent = false
	if err := m.nextPrompt(); err != nil {
		m.notice = err.Error()
		m.round = nil
		return nil
	}
	m.screen = screenGame
	m.log.Info("round started",
		zap.String("round", m.roundID),
		zap.Int("alphabet", m.opts.Alphabet),
		zap.Strings("sets", m.opts.Sets),
		zap.Duration("time_limit", m.opts.TimeLimit),
		zap.Int("pool", len(pool)),
	)
	return m.tick()
}

func (m *Model) refreshWeakSet() {
	m.weakSet = map[string]struct{}{}
	if m.store == nil {
		return
	}
	aggs, err := m.store.GetWeakLetters(context.Background(), m.config.WeakWindow)
	if err != nil {
		m.log.Warn("failed to load weak letters", zap.Error(err))
		return
	}
	if len(aggs) == 0 {
		m.notice = "No history yet; weak-letter focus has nothing to work with."
		return
	}
	m.weakSet = statsPkg.SelectWeakLetters(aggs, m.config.WeakTop)
}

func (m *Model) nextPrompt() error {
	var previous *quiz.Graph
	if m.hasCurrent {
		g := m.current.Graph
		previous = &g
	}
	var (
		g   quiz.Graph
		err error
	)
	if m.opts.FocusWeak && len(m.weakSet) > 0 {
		g, err = m.picker.NextWeighted(m.pool, previous, m.weakSet, m.config.WeakFactor)
	} else {
		g, err = m.picker.Next(m.pool, previous)
	}
	if err != nil {
		if errors.Is(err, quiz.ErrEmptyPool) {
			return err
		}
		return fmt.Errorf("failed to pick a graph: %w", err)
	}
	m.current = quiz.NewSolution(g, m.cat.Resolver())
	m.hasCurrent = true
	return nil
}

func (m *Model) viewOptions() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sharpie"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Read the letterforms of secretary hand."))
	b.WriteString("\n\n")

	for i, row := range m.optionRows() {
		text := row.label
		if row.kind == rowAlphabet || row.kind == rowTime {
			text = fmt.Sprintf("%-20s", row.label)
		}
		cursor := "  "
		label := labelStyle.Render(text)
		if i == m.cursor {
			cursor = selectedStyle.Render("› ")
			label = selectedStyle.Render(text)
		}
		b.WriteString(cursor)
		switch row.kind {
		case rowAlphabet:
			b.WriteString(label + " " + valueStyle.Render(alphabetLabel(m.opts.Alphabet)))
		case rowSet:
			b.WriteString(checkbox(m.opts.HasSet(row.setID)) + " " + label)
		case rowTime:
			b.WriteString(label + " " + valueStyle.Render(timeLabel(m.opts.TimeLimit)))
		case rowWeak:
			b.WriteString(checkbox(m.opts.FocusWeak) + " " + label)
		case rowStart:
			b.WriteString("\n  " + label)
		}
		b.WriteString("\n")
	}

	if link, err := m.shareLink(); err == nil {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("Share: " + link))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(incorrectStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if footer := m.renderFooter(); footer != "" {
		b.WriteString("\n")
		b.WriteString(footer)
	}
	return frameStyle.Render(b.String())
}

func checkbox(on bool) string {
	if on {
		return valueStyle.Render("[x]")
	}
	return mutedStyle.Render("[ ]")
}

func alphabetLabel(n int) string {
	if n == quiz.Alphabet24 {
		return "24 letters (I=J, U=V)"
	}
	return "26 letters"
}

func timeLabel(d time.Duration) string {
	if d <= 0 {
		return "untimed"
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(d/time.Minute))
	}
	return d.String()
}
