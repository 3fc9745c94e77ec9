package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/quiz"
	"github.com/verte-zerg/sharpie/internal/share"
)

const graphsPrefix = "/graphs/"

type errorResponse struct {
	Error string `json:"error"`
}

type promptResponse struct {
	Image  string `json:"image"`
	Source string `json:"source,omitempty"`
}

type attemptResponse struct {
	Answer string   `json:"answer"`
	Images []string `json:"images"`
}

type mistakeResponse struct {
	Char    string   `json:"char"`
	Image   string   `json:"image"`
	Source  string   `json:"source,omitempty"`
	Answers []string `json:"answers"`
	Count   int      `json:"count"`
}

type statsResponse struct {
	Correct        int               `json:"correct"`
	Incorrect      int               `json:"incorrect"`
	Total          int               `json:"total"`
	Percentage     float64           `json:"percentage"`
	ElapsedSeconds int               `json:"elapsed_seconds"`
	Mistakes       []mistakeResponse `json:"mistakes"`
}

type setResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Graphs  int    `json:"graphs"`
}

type catalogueResponse struct {
	Sets    []setResponse      `json:"sets"`
	Sources []catalogue.Source `json:"sources"`
}

type optionsResponse struct {
	Alphabet    int      `json:"alphabet"`
	Sets        []string `json:"sets"`
	TimeSeconds int      `json:"time"`
	FocusWeak   bool     `json:"focus_weak"`
}

type createGameBody struct {
	Alphabet    int      `json:"alphabet" validate:"omitempty,oneof=24 26"`
	Sets        []string `json:"sets" validate:"omitempty,dive,required"`
	TimeSeconds *int     `json:"time" validate:"omitempty,min=0"`
	FocusWeak   *bool    `json:"focus_weak"`
}

type gameResponse struct {
	ID               string          `json:"id"`
	Options          optionsResponse `json:"options"`
	Prompt           *promptResponse `json:"prompt,omitempty"`
	Finished         bool            `json:"finished"`
	Expired          bool            `json:"expired"`
	RemainingSeconds int             `json:"remaining_seconds,omitempty"`
	Stats            *statsResponse  `json:"stats,omitempty"`
}

type answerBody struct {
	Answer string `json:"answer" validate:"required"`
}

type answerResponse struct {
	Correct    bool             `json:"correct"`
	Equivalent bool             `json:"equivalent"`
	Expected   string           `json:"expected"`
	Attempt    *attemptResponse `json:"attempt,omitempty"`
	Next       promptResponse   `json:"next"`
}

type linkResponse struct {
	Link    string          `json:"link"`
	Query   string          `json:"query"`
	Options optionsResponse `json:"options"`
}

func (s *Server) registerRoutes() {
	e := s.echo
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET(graphsPrefix+"*", s.getGraphHandler)

	api := e.Group("/api")
	api.GET("/catalogue", s.getCatalogueHandler)
	api.GET("/options/link", s.getLinkHandler)
	api.POST("/games", s.createGameHandler)
	api.GET("/games/:id", s.getGameHandler)
	api.POST("/games/:id/answers", s.postAnswerHandler)
	api.POST("/games/:id/finish", s.finishGameHandler)
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	} else {
		s.log.Error("request failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: msg})
	}
	if err != nil {
		s.log.Warn("failed to write error response", zap.Error(err))
	}
}

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorResponse{Error: msg})
}

func (s *Server) getCatalogueHandler(c echo.Context) error {
	cat := s.catalogue()
	resp := catalogueResponse{
		Sets:    make([]setResponse, 0, len(cat.Sets)),
		Sources: cat.Sources,
	}
	if resp.Sources == nil {
		resp.Sources = []catalogue.Source{}
	}
	for _, set := range cat.Sets {
		resp.Sets = append(resp.Sets, setResponse{
			ID:      set.ID,
			Name:    set.Name,
			Enabled: set.Enabled,
			Graphs:  len(set.Graphs),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getLinkHandler(c echo.Context) error {
	opts, err := quiz.DecodeOptions(c.QueryString(), s.defaultOptions())
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	if err := opts.Validate(); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	link, err := share.Link(s.config.BaseURL, opts)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, linkResponse{
		Link:    link,
		Query:   opts.Encode(),
		Options: toOptionsResponse(opts),
	})
}

func (s *Server) createGameHandler(c echo.Context) error {
	opts, err := quiz.DecodeOptions(c.QueryString(), s.defaultOptions())
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	// Query parameters were decoded above; only the body is bound here.
	body := new(createGameBody)
	if err := (&echo.DefaultBinder{}).BindBody(c, body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(body); err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	if body.Alphabet != 0 {
		opts.Alphabet = body.Alphabet
	}
	if body.Sets != nil {
		opts.Sets = body.Sets
	}
	if body.TimeSeconds != nil {
		opts.TimeLimit = time.Duration(*body.TimeSeconds) * time.Second
	}
	if body.FocusWeak != nil {
		opts.FocusWeak = *body.FocusWeak
	}

	g, err := s.startGame(c.Request().Context(), opts)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}
	snap := s.snapshot(g)
	prompt := toPrompt(g.cat, snap.current)
	return c.JSON(http.StatusCreated, gameResponse{
		ID:               g.id,
		Options:          toOptionsResponse(g.opts),
		Prompt:           &prompt,
		RemainingSeconds: int(snap.remaining / time.Second),
	})
}

func (s *Server) getGameHandler(c echo.Context) error {
	g, err := s.game(c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusNotFound, err.Error())
	}
	snap := s.snapshot(g)
	st := toStatsResponse(g.cat, snap.stats)
	resp := gameResponse{
		ID:               g.id,
		Options:          toOptionsResponse(g.opts),
		Finished:         snap.finished,
		Expired:          snap.expired,
		RemainingSeconds: int(snap.remaining / time.Second),
		Stats:            &st,
	}
	if !snap.finished && !snap.expired {
		prompt := toPrompt(g.cat, snap.current)
		resp.Prompt = &prompt
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) postAnswerHandler(c echo.Context) error {
	g, err := s.game(c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusNotFound, err.Error())
	}
	body := new(answerBody)
	if err := c.Bind(body); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(body); err != nil {
		return jsonError(c, http.StatusBadRequest, "answer is required")
	}
	if strings.TrimSpace(body.Answer) == "" {
		return jsonError(c, http.StatusBadRequest, "answer is required")
	}

	res, err := s.answer(g, body.Answer)
	switch {
	case errors.Is(err, quiz.ErrRoundOver), errors.Is(err, errGameFinished):
		return jsonError(c, http.StatusConflict, err.Error())
	case err != nil:
		return jsonError(c, http.StatusInternalServerError, err.Error())
	}

	resp := answerResponse{
		Correct:    res.entry.Correct,
		Equivalent: res.entry.Equivalent,
		Expected:   res.entry.Graph.Char,
		Next:       toPrompt(g.cat, res.next),
	}
	if !res.entry.Correct {
		images := make([]string, 0, len(res.attempt.Images))
		for _, img := range res.attempt.Images {
			images = append(images, imageURL(img))
		}
		resp.Attempt = &attemptResponse{Answer: res.attempt.Answer, Images: images}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) finishGameHandler(c echo.Context) error {
	g, err := s.game(c.Param("id"))
	if err != nil {
		return jsonError(c, http.StatusNotFound, err.Error())
	}
	st := s.finish(c.Request().Context(), g)
	return c.JSON(http.StatusOK, toStatsResponse(g.cat, st))
}

func (s *Server) getGraphHandler(c echo.Context) error {
	image := c.Param("*")
	path, err := s.catalogue().Resolve(image)
	if err != nil {
		return jsonError(c, http.StatusNotFound, "graph not found")
	}
	return c.File(path)
}

func toPrompt(cat *catalogue.Catalogue, g quiz.Graph) promptResponse {
	p := promptResponse{Image: imageURL(g.Image)}
	if g.Source != "" {
		p.Source = cat.SourceTitle(g.Source)
	}
	return p
}

func toOptionsResponse(opts quiz.Options) optionsResponse {
	sets := opts.Sets
	if sets == nil {
		sets = []string{}
	}
	return optionsResponse{
		Alphabet:    opts.Alphabet,
		Sets:        sets,
		TimeSeconds: int(opts.TimeLimit / time.Second),
		FocusWeak:   opts.FocusWeak,
	}
}

func toStatsResponse(cat *catalogue.Catalogue, st quiz.GameStats) statsResponse {
	resp := statsResponse{
		Correct:        st.Correct,
		Incorrect:      st.Incorrect,
		Total:          st.Total,
		Percentage:     st.Percentage,
		ElapsedSeconds: int(st.Elapsed / time.Second),
		Mistakes:       make([]mistakeResponse, 0, len(st.Mistakes)),
	}
	for _, m := range st.Mistakes {
		answers := m.Answers
		if answers == nil {
			answers = []string{}
		}
		mr := mistakeResponse{
			Char:    m.Graph.Char,
			Image:   imageURL(m.Graph.Image),
			Answers: answers,
			Count:   m.Count,
		}
		if m.Graph.Source != "" {
			mr.Source = cat.SourceTitle(m.Graph.Source)
		}
		resp.Mistakes = append(resp.Mistakes, mr)
	}
	return resp
}
