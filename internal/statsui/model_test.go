package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "sharpie.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return st
}

func seedGame(t *testing.T, st *store.Store, id string, endedAt time.Time, letters []model.LetterStats, mistakes []model.MistakeRecord) {
	t.Helper()
	game := model.GameRecord{
		UUID:       id,
		StartedAt:  endedAt.Add(-time.Minute),
		EndedAt:    endedAt,
		Alphabet:   26,
		Sets:       []string{"minuscules"},
		DurationMs: 60000,
	}
	for _, l := range letters {
		game.Correct += l.Correct
		game.Incorrect += l.Incorrect
	}
	if _, err := st.InsertGame(context.Background(), game, letters, mistakes); err != nil {
		t.Fatalf("insert game: %v", err)
	}
}

func TestModelTabsAndContent(t *testing.T) {
	st := openStore(t)
	now := time.Now().UTC()
	seedGame(t, st, "g1", now.Add(-time.Hour),
		[]model.LetterStats{{Char: "e", Correct: 3, Incorrect: 1}, {Char: "s", Correct: 1, Incorrect: 3}},
		[]model.MistakeRecord{{Char: "s", Image: "min/s1.png", Answers: []string{"f"}, Count: 3}})
	seedGame(t, st, "g2", now,
		[]model.LetterStats{{Char: "e", Correct: 4}},
		nil)

	m := NewModel(st, model.StatsConfig{Window: 5}, nil, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	if m.errMsg != "" {
		t.Fatalf("unexpected error: %s", m.errMsg)
	}
	if len(m.report.Games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(m.report.Games))
	}
	overview := m.View()
	if !strings.Contains(overview, "Games") {
		t.Fatalf("overview missing cards")
	}
	if !strings.Contains(overview, "Most practised: e s") {
		t.Fatalf("overview missing most practised letters:\n%s", overview)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabLetters {
		t.Fatalf("expected letters tab, got %d", m.activeTab)
	}
	rows := m.letterTable.Rows()
	if len(rows) != 2 || rows[0][0] != "s" {
		t.Fatalf("expected weakest letter first, got %v", rows)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabMistakes {
		t.Fatalf("expected mistakes tab, got %d", m.activeTab)
	}
	view := m.View()
	if !strings.Contains(view, "read as f") || !strings.Contains(view, "missed 3 times") {
		t.Fatalf("mistakes view missing entry:\n%s", view)
	}
}

func TestFilterApply(t *testing.T) {
	st := openStore(t)
	m := NewModel(st, model.StatsConfig{Window: 10}, nil, nil)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[1].SetValue("-2")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterError == "" {
		t.Fatalf("expected error for negative last")
	}

	m.filterInputs[0].SetValue("2024-01-02")
	m.filterInputs[1].SetValue("3")
	m.filterInputs[2].SetValue("4")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.filterMode {
		t.Fatalf("expected filter mode to close")
	}
	if m.cfg.Since == nil || m.cfg.Since.Format("2006-01-02") != "2024-01-02" || m.cfg.Last != 3 || m.cfg.Window != 4 {
		t.Fatalf("unexpected config: %+v", m.cfg)
	}
}

func TestWindowSteps(t *testing.T) {
	if got := nextWindow(3); got != 5 {
		t.Fatalf("nextWindow(3) = %d", got)
	}
	if got := nextWindow(10); got != 15 {
		t.Fatalf("nextWindow(10) = %d", got)
	}
	if got := prevWindow(12); got != 10 {
		t.Fatalf("prevWindow(12) = %d", got)
	}
	if got := prevWindow(5); got != 1 {
		t.Fatalf("prevWindow(5) = %d", got)
	}
}
