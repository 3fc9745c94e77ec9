// Package model defines shared data structures.
package model

import (
	"time"

	"github.com/verte-zerg/sharpie/internal/quiz"
)

// Config defines game settings.
type Config struct {
	Options      quiz.Options
	CatalogueDir string
	WeakTop      int
	WeakFactor   float64
	WeakWindow   int
	BaseURL      string
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since  *time.Time
	Last   int
	Window int
}

// GameRecord captures a completed round.
type GameRecord struct {
	UUID         string
	StartedAt    time.Time
	EndedAt      time.Time
	Alphabet     int
	Sets         []string
	TimeLimitSec int
	Correct      int
	Incorrect    int
	DurationMs   int64
}

// LetterStats stores per-letter results for a game.
type LetterStats struct {
	Char      string
	Correct   int
	Incorrect int
}

// LetterAggregate aggregates letter stats across games.
type LetterAggregate struct {
	Char      string
	Correct   int
	Incorrect int
}

// MistakeRecord is a mistaken graph as persisted or aggregated.
type MistakeRecord struct {
	Char    string
	Image   string
	Answers []string
	Count   int
}

// GameAggregate summarizes a game for reporting.
type GameAggregate struct {
	GameID     int64
	EndedAt    time.Time
	Correct    int
	Incorrect  int
	DurationMs int64
}
