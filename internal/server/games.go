package server

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/stats"
)

// errGameNotFound is returned for unknown or swept game ids.
var errGameNotFound = errors.New("game not found")

// errGameFinished is returned when a finished game receives an answer.
var errGameFinished = errors.New("game is finished")

type game struct {
	mu sync.Mutex

	id       string
	opts     quiz.Options
	cat      *catalogue.Catalogue
	pool     []quiz.Graph
	weak     map[string]struct{}
	round    *quiz.Round
	current  quiz.Graph
	finished bool
	endedAt  time.Time
	saved    bool
	lastSeen time.Time
}

func (g *game) lastSeenAt() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSeen
}

func (s *Server) startGame(ctx context.Context, opts quiz.Options) (*game, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cat := s.catalogue()
	if unknown := cat.UnknownSets(opts.Sets); len(unknown) > 0 {
		return nil, fmt.Errorf("unknown graph sets: %v", unknown)
	}
	pool := cat.Apply(opts).Pool()
	if len(pool) == 0 {
		return nil, quiz.ErrEmptyPool
	}

	g := &game{
		id:   uuid.NewString(),
		opts: opts,
		cat:  cat,
		pool: pool,
		weak: map[string]struct{}{},
	}
	if opts.FocusWeak && s.store != nil {
		aggs, err := s.store.GetWeakLetters(ctx, s.config.WeakWindow)
		if err != nil {
			s.log.Warn("failed to load weak letters", zap.Error(err))
		} else {
			g.weak = stats.SelectWeakLetters(aggs, s.config.WeakTop)
		}
	}
	first, err := s.pick(pool, nil, g.weak)
	if err != nil {
		return nil, err
	}
	now := s.now()
	g.current = first
	g.round = quiz.NewRound(now, opts.TimeLimit, opts.Equivalence())
	g.lastSeen = now

	s.gamesMu.Lock()
	s.games[g.id] = g
	s.gamesMu.Unlock()
	s.log.Info("game started",
		zap.String("game", g.id),
		zap.Int("alphabet", opts.Alphabet),
		zap.Strings("sets", opts.Sets),
		zap.Duration("time_limit", opts.TimeLimit),
	)
	return g, nil
}

func (s *Server) game(id string) (*game, error) {
	s.gamesMu.Lock()
	defer s.gamesMu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return nil, errGameNotFound
	}
	return g, nil
}

type answerResult struct {
	entry   quiz.HistoryEntry
	attempt quiz.Attempt
	next    quiz.Graph
}

// answer grades an answer against the current prompt and moves to the next one.
// g.mu must not be held by the caller.
func (s *Server) answer(g *game, answer string) (answerResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := s.now()
	g.lastSeen = now
	if g.finished {
		return answerResult{}, errGameFinished
	}
	entry, err := g.round.Answer(g.current, answer, now)
	if err != nil {
		return answerResult{}, err
	}
	res := answerResult{entry: entry}
	if !entry.Correct {
		res.attempt = quiz.NewAttempt(entry.Answer, g.pool, nil, g.round.Equivalence)
	}
	previous := g.current
	next, err := s.pick(g.pool, &previous, g.weak)
	if err != nil {
		return answerResult{}, err
	}
	g.current = next
	res.next = next
	return res, nil
}

// finish ends the game once and stores it. Later calls return the same stats.
func (s *Server) finish(ctx context.Context, g *game) quiz.GameStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := s.now()
	g.lastSeen = now
	if !g.finished {
		g.finished = true
		g.endedAt = now
		s.log.Info("game finished", zap.String("game", g.id), zap.Int("answered", len(g.round.History())))
	}
	st := g.round.Stats(g.endedAt)
	if s.store != nil && !g.saved && st.Total > 0 {
		if _, err := s.store.SaveRound(ctx, g.id, g.opts, g.round, g.endedAt.UTC()); err != nil {
			s.log.Error("failed to save game", zap.String("game", g.id), zap.Error(err))
		} else {
			g.saved = true
		}
	}
	return st
}

type snapshot struct {
	stats     quiz.GameStats
	current   quiz.Graph
	finished  bool
	expired   bool
	remaining time.Duration
}

func (s *Server) snapshot(g *game) snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := s.now()
	end := now
	if g.finished {
		end = g.endedAt
	}
	return snapshot{
		stats:     g.round.Stats(end),
		current:   g.current,
		finished:  g.finished,
		expired:   g.round.Expired(now),
		remaining: g.round.Remaining(now),
	}
}

// imageURL maps a catalogue image reference onto the /graphs/ static route.
func imageURL(image string) string {
	u := url.URL{Path: graphsPrefix + image}
	return u.EscapedPath()
}
