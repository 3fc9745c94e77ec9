package store

import (
	"context"
	"time"

	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"
)

// SaveRound persists a finished round played with opts.
func (s *Store) SaveRound(ctx context.Context, id string, opts quiz.Options, round *quiz.Round, endedAt time.Time) (int64, error) {
	game, letters, mistakes := RoundRecords(id, opts, round, endedAt)
	return s.InsertGame(ctx, game, letters, mistakes)
}

// RoundRecords converts a round into the rows stored for it.
func RoundRecords(id string, opts quiz.Options, round *quiz.Round, endedAt time.Time) (model.GameRecord, []model.LetterStats, []model.MistakeRecord) {
	history := round.History()
	stats := round.Stats(endedAt)
	game := model.GameRecord{
		UUID:         id,
		StartedAt:    round.StartedAt,
		EndedAt:      endedAt,
		Alphabet:     opts.Alphabet,
		Sets:         append([]string(nil), opts.Sets...),
		TimeLimitSec: int(opts.TimeLimit / time.Second),
		Correct:      stats.Correct,
		Incorrect:    stats.Incorrect,
		DurationMs:   stats.Elapsed.Milliseconds(),
	}

	counts := quiz.Letters(history)
	letters := make([]model.LetterStats, 0, len(counts))
	for _, lc := range counts {
		letters = append(letters, model.LetterStats{Char: lc.Char, Correct: lc.Correct, Incorrect: lc.Incorrect})
	}

	mistakes := make([]model.MistakeRecord, 0, len(stats.Mistakes))
	for _, m := range stats.Mistakes {
		mistakes = append(mistakes, model.MistakeRecord{
			Char:    m.Graph.Char,
			Image:   m.Graph.Image,
			Answers: append([]string(nil), m.Answers...),
			Count:   m.Count,
		})
	}
	return game, letters, mistakes
}
