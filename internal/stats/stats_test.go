package stats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/verte-zerg/sharpie/internal/model"
)

func TestGameMetrics(t *testing.T) {
	acc, apm := GameMetrics(15, 5, 120000)
	if acc != 0.75 {
		t.Fatalf("expected accuracy 0.75, got %v", acc)
	}
	if apm != 10 {
		t.Fatalf("expected 10 answers/min, got %v", apm)
	}
	acc, apm = GameMetrics(0, 0, 0)
	if acc != 0 || apm != 0 {
		t.Fatalf("expected zero metrics, got %v %v", acc, apm)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{3, 3}); got != "++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	games := []model.GameAggregate{
		{GameID: 1, Correct: 8, Incorrect: 2, DurationMs: 60000},
		{GameID: 2, Correct: 9, Incorrect: 1, DurationMs: 60000},
	}
	if err := RenderSummary(&buf, games, 2, 80); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Games: 2", "Graphs answered: 20", "Avg Accuracy: 85.00%", "Best Accuracy: 90.00%", "Avg Answers/min: 10.00", "Trend: "} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderSummary(&buf, nil, 2, 80); err != nil {
		t.Fatalf("render empty summary: %v", err)
	}
	if !strings.Contains(buf.String(), "No games found.") {
		t.Fatalf("expected empty message")
	}
}

func TestRenderLetterTableWeakestFirst(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.LetterAggregate{
		{Char: "a", Correct: 9, Incorrect: 1},
		{Char: "e", Correct: 1, Incorrect: 1},
	}
	if err := RenderLetterTable(&buf, aggs); err != nil {
		t.Fatalf("render table: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 4 {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
	if !strings.HasPrefix(lines[2], "e") || !strings.HasPrefix(lines[3], "a") {
		t.Fatalf("expected weakest letter first:\n%s", buf.String())
	}
}

func TestRenderMistakesLimit(t *testing.T) {
	var buf bytes.Buffer
	mistakes := []model.MistakeRecord{
		{Char: "e", Image: "min/e1.png", Answers: []string{"c", "o"}, Count: 4},
		{Char: "s", Image: "min/s1.png", Answers: []string{"f"}, Count: 2},
	}
	if err := RenderMistakes(&buf, mistakes, 1); err != nil {
		t.Fatalf("render mistakes: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "c o") || strings.Contains(out, "min/s1.png") {
		t.Fatalf("unexpected mistakes output:\n%s", out)
	}
}
