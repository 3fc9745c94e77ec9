// Package server exposes the quiz over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
	// GameTTL is how long an idle game is kept in memory.
	GameTTL = time.Hour
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// Server serves games from a catalogue. Games live in memory; finished games
// are written to the store when one is configured.
type Server struct {
	echo   *echo.Echo
	config model.Config
	store  *store.Store
	log    *zap.Logger
	now    func() time.Time

	catMu sync.RWMutex
	cat   *catalogue.Catalogue

	pickMu sync.Mutex
	picker *quiz.Picker

	gamesMu sync.Mutex
	games   map[string]*game
}

// New builds a server. st may be nil to keep no history.
func New(cfg model.Config, cat *catalogue.Catalogue, st *store.Store, picker *quiz.Picker, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if picker == nil {
		picker = quiz.NewPicker()
	}
	s := &Server{
		config: cfg,
		store:  st,
		log:    log,
		now:    time.Now,
		cat:    cat,
		picker: picker,
		games:  map[string]*game{},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			log.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("64K"))

	s.echo = e
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// SetCatalogue swaps the catalogue used for new games. Running games keep
// the catalogue they started with.
func (s *Server) SetCatalogue(cat *catalogue.Catalogue) {
	s.catMu.Lock()
	s.cat = cat
	s.catMu.Unlock()
	s.log.Info("catalogue updated", zap.Int("sets", len(cat.Sets)), zap.Int("graphs", countGraphs(cat)))
}

func (s *Server) catalogue() *catalogue.Catalogue {
	s.catMu.RLock()
	defer s.catMu.RUnlock()
	return s.cat
}

// defaultOptions returns the configured options. Without configured sets,
// games use the default sets of the current catalogue.
func (s *Server) defaultOptions() quiz.Options {
	opts := s.config.Options
	if len(opts.Sets) == 0 {
		opts.Sets = s.catalogue().DefaultSetIDs()
	}
	return opts
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case err, ok := <-errCh:
			if ok {
				return err
			}
			return nil
		case <-ticker.C:
			if n := s.Sweep(s.now()); n > 0 {
				s.log.Debug("swept idle games", zap.Int("count", n))
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			s.log.Info("shutting down server")
			if err := s.echo.Shutdown(shutdownCtx); err != nil {
				return err
			}
			return nil
		}
	}
}

// Sweep drops games idle for longer than GameTTL and returns how many were removed.
func (s *Server) Sweep(now time.Time) int {
	s.gamesMu.Lock()
	defer s.gamesMu.Unlock()
	removed := 0
	for id, g := range s.games {
		if now.Sub(g.lastSeenAt()) > GameTTL {
			delete(s.games, id)
			removed++
		}
	}
	return removed
}

func (s *Server) pick(pool []quiz.Graph, previous *quiz.Graph, weak map[string]struct{}) (quiz.Graph, error) {
	s.pickMu.Lock()
	defer s.pickMu.Unlock()
	if len(weak) > 0 {
		return s.picker.NextWeighted(pool, previous, weak, s.config.WeakFactor)
	}
	return s.picker.Next(pool, previous)
}

func countGraphs(cat *catalogue.Catalogue) int {
	n := 0
	for _, set := range cat.Sets {
		n += len(set.Graphs)
	}
	return n
}
