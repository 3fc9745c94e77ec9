package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/model"
	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/store"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestServer(t *testing.T, st *store.Store) (*Server, *testClock) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, catalogue.WriteSample(dir, false))
	cat, err := catalogue.Load(dir)
	require.NoError(t, err)

	cfg := model.Config{
		Options:    quiz.DefaultOptions(),
		WeakTop:    3,
		WeakFactor: 2,
		WeakWindow: 5,
		BaseURL:    "https://example.org/play",
	}
	srv := New(cfg, cat, st, quiz.NewPickerWithSeed(7), nil)
	clock := &testClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	srv.now = clock.Now
	return srv, clock
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func currentChar(t *testing.T, srv *Server, id string) string {
	t.Helper()
	g, err := srv.game(id)
	require.NoError(t, err)
	return g.current.Char
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestCatalogue(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/catalogue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[catalogueResponse](t, rec)
	require.Len(t, resp.Sets, 2)
	assert.Equal(t, "minuscules", resp.Sets[0].ID)
	assert.True(t, resp.Sets[0].Enabled)
	assert.False(t, resp.Sets[1].Enabled)
	assert.Equal(t, 26, resp.Sets[0].Graphs)
}

func TestOptionsLink(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/options/link?alphabet=24&sets=majuscules,minuscules&time=60", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[linkResponse](t, rec)
	assert.Equal(t, "https://example.org/play?alphabet=24&sets=majuscules,minuscules&time=60&weak=0", resp.Link)
	assert.Equal(t, 60, resp.Options.TimeSeconds)

	rec = do(t, srv, http.MethodGet, "/api/options/link?alphabet=25", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "alphabet")
}

func TestGameFlow(t *testing.T) {
	srv, clock := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/games", `{"alphabet": 26, "time": 0}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[gameResponse](t, rec)
	require.NotEmpty(t, created.ID)
	require.NotNil(t, created.Prompt)
	assert.True(t, strings.HasPrefix(created.Prompt.Image, "/graphs/minuscules/"))
	assert.NotContains(t, rec.Body.String(), `"char"`)

	expected := currentChar(t, srv, created.ID)
	clock.now = clock.now.Add(2 * time.Second)
	rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/answers", `{"answer": "`+expected+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[answerResponse](t, rec)
	assert.True(t, first.Correct)
	assert.Equal(t, expected, first.Expected)
	assert.Nil(t, first.Attempt)

	expected = currentChar(t, srv, created.ID)
	wrong := "z"
	if expected == "z" {
		wrong = "y"
	}
	clock.now = clock.now.Add(2 * time.Second)
	rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/answers", `{"answer": "`+wrong+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	second := decode[answerResponse](t, rec)
	assert.False(t, second.Correct)
	require.NotNil(t, second.Attempt)
	assert.Equal(t, []string{"/graphs/minuscules/" + wrong + ".png"}, second.Attempt.Images)

	rec = do(t, srv, http.MethodGet, "/api/games/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[gameResponse](t, rec)
	require.NotNil(t, state.Stats)
	assert.Equal(t, 2, state.Stats.Total)
	assert.NotNil(t, state.Prompt)

	rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/finish", "")
	require.Equal(t, http.StatusOK, rec.Code)
	final := decode[statsResponse](t, rec)
	assert.Equal(t, 1, final.Correct)
	assert.Equal(t, 1, final.Incorrect)
	assert.Equal(t, 50.0, final.Percentage)
	assert.Equal(t, 4, final.ElapsedSeconds)
	require.Len(t, final.Mistakes, 1)
	assert.Equal(t, expected, final.Mistakes[0].Char)
	assert.Equal(t, []string{wrong}, final.Mistakes[0].Answers)

	rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/answers", `{"answer": "a"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestExpiredGameRejectsAnswers(t *testing.T) {
	srv, clock := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/games?time=60", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[gameResponse](t, rec)
	assert.Equal(t, 60, created.Options.TimeSeconds)
	assert.Equal(t, 60, created.RemainingSeconds)

	clock.now = clock.now.Add(61 * time.Second)
	rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/answers", `{"answer": "a"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, quiz.ErrRoundOver.Error(), decode[errorResponse](t, rec).Error)

	rec = do(t, srv, http.MethodGet, "/api/games/"+created.ID, "")
	state := decode[gameResponse](t, rec)
	assert.True(t, state.Expired)
	assert.Nil(t, state.Prompt)
	assert.Equal(t, 60, state.Stats.ElapsedSeconds)
}

func TestEquivalentAnswer(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/games", `{"alphabet": 24}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[gameResponse](t, rec)

	g, err := srv.game(created.ID)
	require.NoError(t, err)
	g.mu.Lock()
	g.current = quiz.Graph{Char: "j", Image: "minuscules/j.png", Source: "sample"}
	g.mu.Unlock()

	rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/answers", `{"answer": "i"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[answerResponse](t, rec)
	assert.True(t, resp.Correct)
	assert.True(t, resp.Equivalent)
	assert.Equal(t, "j", resp.Expected)
}

func TestBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	cases := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"unknown game", http.MethodGet, "/api/games/nope", "", http.StatusNotFound},
		{"unknown game answer", http.MethodPost, "/api/games/nope/answers", `{"answer":"a"}`, http.StatusNotFound},
		{"bad alphabet", http.MethodPost, "/api/games", `{"alphabet": 25}`, http.StatusBadRequest},
		{"negative time", http.MethodPost, "/api/games", `{"time": -1}`, http.StatusBadRequest},
		{"unknown set", http.MethodPost, "/api/games", `{"sets": ["cursive"]}`, http.StatusBadRequest},
		{"no sets", http.MethodPost, "/api/games?sets=", "", http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/api/games", `{"alphabet":`, http.StatusBadRequest},
		{"unknown route", http.MethodGet, "/api/nothing", "", http.StatusNotFound},
		{"escaping graph", http.MethodGet, "/graphs/../catalogue.yaml", "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, srv, tc.method, tc.target, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorResponse](t, rec).Error)
		})
	}

	rec := do(t, srv, http.MethodPost, "/api/games", "")
	created := decode[gameResponse](t, rec)
	rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/answers", `{"answer": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGraphsServed(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/graphs/minuscules/a.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
}

func TestFinishSavesOnce(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "sharpie.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })
	srv, clock := newTestServer(t, st)

	rec := do(t, srv, http.MethodPost, "/api/games", "")
	created := decode[gameResponse](t, rec)
	clock.now = clock.now.Add(time.Second)
	do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/answers", `{"answer": "`+currentChar(t, srv, created.ID)+`"}`)

	for i := 0; i < 2; i++ {
		rec = do(t, srv, http.MethodPost, "/api/games/"+created.ID+"/finish", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	games, err := st.ListGames(context.Background(), model.StatsConfig{})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 1, games[0].Correct)
}

func TestSweepDropsIdleGames(t *testing.T) {
	srv, clock := newTestServer(t, nil)
	rec := do(t, srv, http.MethodPost, "/api/games", "")
	created := decode[gameResponse](t, rec)

	assert.Equal(t, 0, srv.Sweep(clock.now.Add(time.Minute)))
	assert.Equal(t, 1, srv.Sweep(clock.now.Add(GameTTL+time.Second)))
	_, err := srv.game(created.ID)
	assert.ErrorIs(t, err, errGameNotFound)
}

func TestSetCatalogueAffectsNewGames(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	manifest := `
sets:
  - id: minuscules
    enabled: true
    graphs:
      - {char: x, image: x.png}
`
	cat, err := catalogue.Parse([]byte(manifest), t.TempDir())
	require.NoError(t, err)
	srv.SetCatalogue(cat)

	rec := do(t, srv, http.MethodPost, "/api/games", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[gameResponse](t, rec)
	assert.Equal(t, "/graphs/x.png", created.Prompt.Image)
}

func TestDefaultSetsFollowCatalogue(t *testing.T) {
	manifest := `
sets:
  - id: caps
    enabled: true
    graphs:
      - {char: A, image: caps/A.png}
  - id: small
    graphs:
      - {char: a, image: small/a.png}
`
	cat, err := catalogue.Parse([]byte(manifest), t.TempDir())
	require.NoError(t, err)
	cfg := model.Config{Options: quiz.DefaultOptions(), WeakFactor: 2}
	cfg.Options.Sets = nil
	srv := New(cfg, cat, nil, quiz.NewPickerWithSeed(3), nil)

	rec := do(t, srv, http.MethodPost, "/api/games", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[gameResponse](t, rec)
	assert.Equal(t, []string{"caps"}, created.Options.Sets)
	assert.Equal(t, "/graphs/caps/A.png", created.Prompt.Image)

	rec = do(t, srv, http.MethodGet, "/api/catalogue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[catalogueResponse](t, rec)
	require.Len(t, resp.Sets, 2)
	assert.True(t, resp.Sets[0].Enabled)
	assert.False(t, resp.Sets[1].Enabled)
}

func TestRunStopsOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
