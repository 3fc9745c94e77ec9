// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout keeps nine fractional digits so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for game history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The HTTP API writes from several goroutines; one connection keeps
	// SQLite from reporting SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY,
			uuid TEXT NOT NULL UNIQUE,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			alphabet INTEGER NOT NULL,
			sets TEXT NOT NULL,
			time_limit_s INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS game_letter_stats (
			game_id INTEGER NOT NULL,
			char TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			PRIMARY KEY (game_id, char)
		);`,
		`CREATE TABLE IF NOT EXISTS game_mistakes (
			game_id INTEGER NOT NULL,
			char TEXT NOT NULL,
			image TEXT NOT NULL,
			answers TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (game_id, char, image)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_games_ended_at ON games(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_game_letter_stats_char ON game_letter_stats(char);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertGame stores a completed game with its per-letter stats and mistakes.
func (s *Store) InsertGame(ctx context.Context, game model.GameRecord, letters []model.LetterStats, mistakes []model.MistakeRecord) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO games (uuid, started_at, ended_at, alphabet, sets, time_limit_s, correct, incorrect, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		game.UUID,
		game.StartedAt.UTC().Format(timeLayout),
		game.EndedAt.UTC().Format(timeLayout),
		game.Alphabet,
		strings.Join(game.Sets, ","),
		game.TimeLimitSec,
		game.Correct,
		game.Incorrect,
		game.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, ls := range letters {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO game_letter_stats (game_id, char, correct, incorrect) VALUES (?, ?, ?, ?)`,
			id, ls.Char, ls.Correct, ls.Incorrect); err != nil {
			return 0, err
		}
	}
	for _, m := range mistakes {
		answers, merr := json.Marshal(m.Answers)
		if merr != nil {
			err = merr
			return 0, err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO game_mistakes (game_id, char, image, answers, count) VALUES (?, ?, ?, ?, ?)`,
			id, m.Char, m.Image, string(answers), m.Count); err != nil {
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakLetters aggregates letter stats over the most recent games.
func (s *Store) GetWeakLetters(ctx context.Context, window int) ([]model.LetterAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_games AS (
		SELECT id FROM games
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT ls.char, SUM(ls.correct) AS correct, SUM(ls.incorrect) AS incorrect
	FROM game_letter_stats ls
	JOIN recent_games r ON r.id = ls.game_id
	GROUP BY ls.char`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	return scanLetterAggregates(rows)
}

// ListGames returns game aggregates filtered by stats config, oldest first.
func (s *Store) ListGames(ctx context.Context, cfg model.StatsConfig) ([]model.GameAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT id, ended_at, correct, incorrect, duration_ms
		FROM games
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var games []model.GameAggregate
	for rows.Next() {
		var agg model.GameAggregate
		var endedAt string
		if err := rows.Scan(&agg.GameID, &endedAt, &agg.Correct, &agg.Incorrect, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		games = append(games, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(games) > cfg.Last {
		games = games[len(games)-cfg.Last:]
	}
	return games, nil
}

// ListLetterAggregatesForGames aggregates per-letter stats across games.
func (s *Store) ListLetterAggregatesForGames(ctx context.Context, gameIDs []int64) ([]model.LetterAggregate, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(gameIDs)
	query := fmt.Sprintf(`SELECT char, SUM(correct) AS correct, SUM(incorrect) AS incorrect
		FROM game_letter_stats
		WHERE game_id IN (%s)
		GROUP BY char`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanLetterAggregates(rows)
}

// ListMistakes merges the mistakes of the given games by graph, most frequent first.
func (s *Store) ListMistakes(ctx context.Context, gameIDs []int64) ([]model.MistakeRecord, error) {
	if len(gameIDs) == 0 {
		return nil, nil
	}
	placeholders, args := idArgs(gameIDs)
	query := fmt.Sprintf(`SELECT char, image, answers, count
		FROM game_mistakes
		WHERE game_id IN (%s)
		ORDER BY game_id ASC`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	merged := map[string]*model.MistakeRecord{}
	for rows.Next() {
		var rec model.MistakeRecord
		var answers string
		if err := rows.Scan(&rec.Char, &rec.Image, &answers, &rec.Count); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
			return nil, fmt.Errorf("failed to decode answers: %w", err)
		}
		key := rec.Char + "\x00" + rec.Image
		existing, ok := merged[key]
		if !ok {
			copied := rec
			merged[key] = &copied
			continue
		}
		existing.Count += rec.Count
		for _, a := range rec.Answers {
			if !contains(existing.Answers, a) {
				existing.Answers = append(existing.Answers, a)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]model.MistakeRecord, 0, len(merged))
	for _, rec := range merged {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Char != out[j].Char {
			return quiz.LessChar(out[i].Char, out[j].Char)
		}
		return out[i].Image < out[j].Image
	})
	return out, nil
}

func scanLetterAggregates(rows *sql.Rows) ([]model.LetterAggregate, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var result []model.LetterAggregate
	for rows.Next() {
		var agg model.LetterAggregate
		if err := rows.Scan(&agg.Char, &agg.Correct, &agg.Incorrect); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func idArgs(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
