package stats

import (
	"context"

	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Games            []model.GameAggregate
	WindowGameIDs    []int64
	LetterAggsAll    []model.LetterAggregate
	LetterAggsWindow []model.LetterAggregate
	Mistakes         []model.MistakeRecord
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	games, err := st.ListGames(ctx, cfg)
	if err != nil {
		return Report{}, err
	}

	allIDs := gameIDs(games)
	windowIDs := lastGameIDs(games, cfg.Window)
	letterAggsAll, err := st.ListLetterAggregatesForGames(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	letterAggsWindow, err := st.ListLetterAggregatesForGames(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}
	mistakes, err := st.ListMistakes(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	return Report{
		Games:            games,
		WindowGameIDs:    windowIDs,
		LetterAggsAll:    letterAggsAll,
		LetterAggsWindow: letterAggsWindow,
		Mistakes:         mistakes,
	}, nil
}

func gameIDs(games []model.GameAggregate) []int64 {
	ids := make([]int64, len(games))
	for i, g := range games {
		ids[i] = g.GameID
	}
	return ids
}

func lastGameIDs(games []model.GameAggregate, window int) []int64 {
	if window <= 0 || len(games) <= window {
		return gameIDs(games)
	}
	return gameIDs(games[len(games)-window:])
}
