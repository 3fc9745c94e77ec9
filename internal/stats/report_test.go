package stats

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sharpie.db")
	st, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		end := start.Add(30 * time.Second)
		game := model.GameRecord{
			UUID:       filepath.Base(t.Name()) + string(rune('a'+i)),
			StartedAt:  start,
			EndedAt:    end,
			Alphabet:   26,
			Sets:       []string{"minuscules"},
			Correct:    10,
			Incorrect:  1,
			DurationMs: end.Sub(start).Milliseconds(),
		}
		letters := []model.LetterStats{
			{Char: "a", Correct: 5, Incorrect: 0},
			{Char: "b", Correct: 4, Incorrect: 1},
		}
		mistakes := []model.MistakeRecord{
			{Char: "b", Image: "min/b.png", Answers: []string{"h"}, Count: 1},
		}
		id, err := st.InsertGame(ctx, game, letters, mistakes)
		if err != nil {
			t.Fatalf("insert game: %v", err)
		}
		ids = append(ids, id)
	}

	cfg := model.StatsConfig{
		Last:   2,
		Window: 2,
	}
	report, err := BuildReport(ctx, st, cfg)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(report.Games))
	}
	if report.Games[0].GameID != ids[1] || report.Games[1].GameID != ids[2] {
		t.Fatalf("unexpected game ids: %+v", report.Games)
	}
	if len(report.WindowGameIDs) != 2 {
		t.Fatalf("expected 2 window game ids, got %d", len(report.WindowGameIDs))
	}
	if len(report.LetterAggsAll) == 0 {
		t.Fatalf("expected letter aggregates for all games")
	}
	if len(report.LetterAggsWindow) == 0 {
		t.Fatalf("expected letter aggregates for window games")
	}
	if len(report.Mistakes) != 1 || report.Mistakes[0].Count != 2 {
		t.Fatalf("expected merged mistakes over the window, got %+v", report.Mistakes)
	}
}
