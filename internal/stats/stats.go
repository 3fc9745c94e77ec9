// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/sharpie/internal/model"
)

const sparkChars = " .:-=+*#%@"

// GameMetrics computes accuracy (0-1) and answers per minute for a game.
func GameMetrics(correct, incorrect int, durationMs int64) (accuracy, apm float64) {
	total := correct + incorrect
	if total > 0 {
		accuracy = float64(correct) / float64(total)
	}
	if durationMs > 0 {
		apm = float64(total) / (float64(durationMs) / 60000.0)
	}
	return accuracy, apm
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints totals for the games and an accuracy trend no wider than width.
func RenderSummary(w io.Writer, games []model.GameAggregate, window, width int) error {
	if len(games) == 0 {
		_, err := fmt.Fprintln(w, "No games found.")
		return err
	}
	var totalAcc, totalAPM, bestAcc float64
	answers := 0
	accs := make([]float64, len(games))
	for i, g := range games {
		acc, apm := GameMetrics(g.Correct, g.Incorrect, g.DurationMs)
		accs[i] = acc * 100
		totalAcc += acc
		totalAPM += apm
		bestAcc = math.Max(bestAcc, acc)
		answers += g.Correct + g.Incorrect
	}
	count := float64(len(games))
	lines := []string{
		"Summary",
		fmt.Sprintf("Games: %d", len(games)),
		fmt.Sprintf("Graphs answered: %d", answers),
		fmt.Sprintf("Avg Accuracy: %.2f%%", totalAcc/count*100),
		fmt.Sprintf("Best Accuracy: %.2f%%", bestAcc*100),
		fmt.Sprintf("Avg Answers/min: %.2f", totalAPM/count),
	}
	trend := MovingAverage(accs, window)
	label := "Trend: "
	if width > len(label) && len(trend) > width-len(label) {
		trend = trend[len(trend)-(width-len(label)):]
	}
	lines = append(lines, label+Sparkline(trend), "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderLetterTable prints per-letter aggregates, weakest first.
func RenderLetterTable(w io.Writer, aggs []model.LetterAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No letter stats found.")
		return err
	}
	rows := make([]model.LetterAggregate, len(aggs))
	copy(rows, aggs)
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := accuracy(rows[i]), accuracy(rows[j])
		if ai == aj {
			return rows[i].Char < rows[j].Char
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Letter (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Letter", "Accuracy", "Correct", "Incorrect"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Char,
			fmt.Sprintf("%.2f%%", accuracy(r)*100),
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Incorrect),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderMistakes prints the most frequent mistaken graphs, at most limit rows.
func RenderMistakes(w io.Writer, mistakes []model.MistakeRecord, limit int) error {
	if len(mistakes) == 0 {
		_, err := fmt.Fprintln(w, "No mistakes recorded.")
		return err
	}
	if limit > 0 && len(mistakes) > limit {
		mistakes = mistakes[:limit]
	}
	if _, err := fmt.Fprintln(w, "Frequent Mistakes"); err != nil {
		return err
	}
	headers := []string{"Letter", "Times", "Answered", "Image"}
	rows := make([][]string, 0, len(mistakes))
	for _, m := range mistakes {
		rows = append(rows, []string{
			m.Char,
			fmt.Sprintf("%d", m.Count),
			strings.Join(m.Answers, " "),
			m.Image,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
