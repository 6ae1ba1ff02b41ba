package wp_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charleschow/mlb-winprob/internal/adapters/outbound/mlbstats"
	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
	"github.com/charleschow/mlb-winprob/internal/core/tracking"
	"github.com/charleschow/mlb-winprob/internal/core/winprob"
	"github.com/charleschow/mlb-winprob/internal/telemetry"
)

const (
	apiName    = "MLB Win Probability API"
	apiVersion = "0.2.0"
)

// StatsSource is the subset of the Stats API client the handler uses.
type StatsSource interface {
	GetSchedule(ctx context.Context, date string) ([]mlbstats.ScheduledGame, error)
	GetLiveState(ctx context.Context, gamePk int) (*mlbstats.LiveState, error)
	GetGamePlays(ctx context.Context, gamePk int) (*mlbstats.GamePlays, error)
}

// SnapshotHistory reads stored tracker snapshots.
type SnapshotHistory interface {
	History(ctx context.Context, gamePk int, limit int) ([]tracking.Snapshot, error)
}

// Handler serves the win-probability engine over HTTP.
//
// Routes:
//
//	GET /                         -> service description
//	GET /health                   -> 200 OK
//	GET /wp                       -> full analysis of one state
//	GET /wp/play                  -> WPA between two states
//	GET /re24                     -> scaled run-expectancy table
//	GET /wp/scenario              -> preset scenario analysis
//	GET /games/today              -> schedule
//	GET /wp/live/{gamePk}         -> live state plus analysis
//	GET /wp/live/{gamePk}/history -> tracker snapshots
//	GET /wp/replay/{gamePk}       -> per-play WP/WPA
//	GET /ws/live                  -> WebSocket stream of tracker events
type Handler struct {
	stats      StatsSource
	history    SnapshotHistory
	liveWS     http.HandlerFunc
	defaultRPG float64
}

type Option func(*Handler)

// WithHistory enables /wp/live/{gamePk}/history.
func WithHistory(h SnapshotHistory) Option { return func(x *Handler) { x.history = h } }

// WithLiveStream enables /ws/live.
func WithLiveStream(fn http.HandlerFunc) Option { return func(x *Handler) { x.liveWS = fn } }

// WithDefaultRPG sets runs_per_game when a request omits it.
func WithDefaultRPG(rpg float64) Option {
	return func(x *Handler) {
		if rpg >= minRPG && rpg <= maxRPG {
			x.defaultRPG = rpg
		}
	}
}

func NewHandler(stats StatsSource, opts ...Option) *Handler {
	h := &Handler{stats: stats, defaultRPG: baseball.DefaultRunsPerGame}
	for _, o := range opts {
		o(h)
	}
	return h
}

// RegisterRoutes wires HTTP routes onto the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.instrument(h.root))
	mux.HandleFunc("GET /health", h.healthCheck)
	mux.HandleFunc("GET /wp", h.instrument(h.getWP))
	mux.HandleFunc("GET /wp/play", h.instrument(h.getWPA))
	mux.HandleFunc("GET /re24", h.instrument(h.getRE24))
	mux.HandleFunc("GET /wp/scenario", h.instrument(h.getScenario))
	mux.HandleFunc("GET /games/today", h.instrument(h.gamesToday))
	mux.HandleFunc("GET /wp/live/{gamePk}", h.instrument(h.liveWP))
	mux.HandleFunc("GET /wp/live/{gamePk}/history", h.instrument(h.liveHistory))
	mux.HandleFunc("GET /wp/replay/{gamePk}", h.instrument(h.replay))
	if h.liveWS != nil {
		mux.HandleFunc("GET /ws/live", h.liveWS)
	}
}

// instrument counts and times a JSON route.
func (h *Handler) instrument(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer telemetry.Metrics.RequestLatency.Since(time.Now())
		telemetry.Metrics.Requests.Inc()
		fn(w, r)
	}
}

// WithCORS allows any origin, for browser front ends.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		telemetry.Warnf("wp_api: encode response: %v", err)
	}
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// writeErr maps err onto a status: validation 422, unknown game 404,
// anything else from upstream 502.
func writeErr(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		telemetry.Metrics.ValidationErrors.Inc()
		writeError(w, http.StatusUnprocessableEntity, ve.Error())
	case errors.Is(err, mlbstats.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		telemetry.Warnf("wp_api: upstream error: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

type rootResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
	Scenarios []string `json:"scenarios"`
}

func (h *Handler) root(w http.ResponseWriter, _ *http.Request) {
	endpoints := []string{
		"/wp",
		"/wp/play",
		"/re24",
		"/wp/scenario",
		"/games/today",
		"/wp/live/{gamePk}",
		"/wp/live/{gamePk}/history",
		"/wp/replay/{gamePk}",
	}
	if h.liveWS != nil {
		endpoints = append(endpoints, "/ws/live")
	}
	writeJSON(w, http.StatusOK, rootResponse{
		Name:      apiName,
		Version:   apiVersion,
		Endpoints: endpoints,
		Scenarios: winprob.Scenarios(),
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) getWP(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	rpg := q.rpg(h.defaultRPG)
	gs := q.gameState("", 2, rpg)
	ops, _ := q.optFloat("batter_ops", 0, maxOPS)
	era, _ := q.optFloat("pitcher_era", 0, maxERA)
	if err := q.Err(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, winprob.FullAnalysis(gs, ops, era))
}

type wpaResponse struct {
	winprob.WPAResult
	BeforeState baseball.GameState `json:"before_state"`
	AfterState  baseball.GameState `json:"after_state"`
}

func (h *Handler) getWPA(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	rpg := q.rpg(h.defaultRPG)
	before := q.gameState("before_", 2, rpg)
	after := q.gameState("after_", 3, rpg)
	if err := q.Err(); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wpaResponse{
		WPAResult:   winprob.WPA(before, after),
		BeforeState: before,
		AfterState:  after,
	})
}

type re24Response struct {
	RunsPerGame float64              `json:"runs_per_game"`
	Count       int                  `json:"count"`
	Table       []winprob.TableEntry `json:"re24_table"`
}

func (h *Handler) getRE24(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	rpg := q.rpg(h.defaultRPG)
	if err := q.Err(); err != nil {
		writeErr(w, err)
		return
	}
	table := winprob.FullTable(rpg)
	writeJSON(w, http.StatusOK, re24Response{RunsPerGame: rpg, Count: len(table), Table: table})
}

func (h *Handler) getScenario(w http.ResponseWriter, r *http.Request) {
	q := newQuery(r.URL.Query())
	rpg := q.rpg(h.defaultRPG)
	name := r.URL.Query().Get("name")
	if name == "" {
		q.fail("name", "field required")
	}
	if err := q.Err(); err != nil {
		writeErr(w, err)
		return
	}

	res := winprob.AnalyzeScenario(name, rpg)
	if res.Error != "" {
		telemetry.Metrics.ValidationErrors.Inc()
		writeError(w, http.StatusUnprocessableEntity, res.Error)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type scheduleResponse struct {
	Date  string                   `json:"date"`
	Count int                      `json:"count"`
	Games []mlbstats.ScheduledGame `json:"games"`
}

func (h *Handler) gamesToday(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			writeErr(w, &ValidationError{Param: "date", Reason: "expected YYYY-MM-DD"})
			return
		}
	}

	games, err := h.stats.GetSchedule(r.Context(), date)
	if err != nil {
		writeErr(w, err)
		return
	}
	games = mlbstats.FilterTeam(games, r.URL.Query().Get("team"))
	if games == nil {
		games = []mlbstats.ScheduledGame{}
	}

	label := date
	if label == "" {
		label = "today"
	}
	writeJSON(w, http.StatusOK, scheduleResponse{Date: label, Count: len(games), Games: games})
}

func gamePk(r *http.Request) (int, error) {
	raw := r.PathValue("gamePk")
	pk, err := strconv.Atoi(raw)
	if err != nil || pk <= 0 {
		return 0, &ValidationError{Param: "gamePk", Reason: "value is not a valid integer"}
	}
	return pk, nil
}

// liveResponse is the live state with the analysis merged in. Before first
// pitch only the state and StatusNote are set.
type liveResponse struct {
	*mlbstats.LiveState
	StatusNote        string                   `json:"status_note,omitempty"`
	GameState         *baseball.GameState      `json:"game_state,omitempty"`
	WinProbability    *float64                 `json:"win_probability"`
	WinProbabilityPct string                   `json:"win_probability_pct,omitempty"`
	LeverageIndex     *float64                 `json:"leverage_index,omitempty"`
	LeverageLabel     string                   `json:"leverage_label,omitempty"`
	Tactics           []winprob.Recommendation `json:"tactics,omitempty"`
}

func (h *Handler) liveWP(w http.ResponseWriter, r *http.Request) {
	pk, err := gamePk(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	q := newQuery(r.URL.Query())
	rpg := q.rpg(h.defaultRPG)
	if err := q.Err(); err != nil {
		writeErr(w, err)
		return
	}

	st, err := h.stats.GetLiveState(r.Context(), pk)
	if errors.Is(err, mlbstats.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Game %d not found or API unavailable", pk))
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := liveResponse{LiveState: st}
	if mlbstats.NotStarted(st.Status) {
		resp.StatusNote = "Game not yet started"
		writeJSON(w, http.StatusOK, resp)
		return
	}

	a := winprob.FullAnalysis(st.GameState(rpg), nil, nil)
	resp.GameState = &a.GameState
	resp.WinProbability = &a.WinProbability
	resp.WinProbabilityPct = a.WinProbabilityPct
	resp.LeverageIndex = &a.LeverageIndex
	resp.LeverageLabel = a.LeverageLabel
	resp.Tactics = a.Tactics
	writeJSON(w, http.StatusOK, resp)
}

type historyResponse struct {
	GamePk    int                 `json:"gamePk"`
	Count     int                 `json:"count"`
	Snapshots []tracking.Snapshot `json:"snapshots"`
}

func (h *Handler) liveHistory(w http.ResponseWriter, r *http.Request) {
	pk, err := gamePk(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	q := newQuery(r.URL.Query())
	limit := q.intRange("limit", ptr(500), 1, 5000)
	if err := q.Err(); err != nil {
		writeErr(w, err)
		return
	}
	if h.history == nil {
		writeError(w, http.StatusServiceUnavailable, "live tracker is not enabled")
		return
	}

	snaps, err := h.history.History(r.Context(), pk, limit)
	if err != nil {
		telemetry.Errorf("wp_api: history %d: %v", pk, err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if snaps == nil {
		snaps = []tracking.Snapshot{}
	}
	writeJSON(w, http.StatusOK, historyResponse{GamePk: pk, Count: len(snaps), Snapshots: snaps})
}

type replayResponse struct {
	GamePk   int               `json:"gamePk"`
	HomeTeam string            `json:"home_team"`
	AwayTeam string            `json:"away_team"`
	Status   string            `json:"status"`
	Count    int               `json:"count"`
	Plays    []winprob.PlayWPA `json:"plays"`
	Biggest  []winprob.PlayWPA `json:"biggest_plays"`
}

func (h *Handler) replay(w http.ResponseWriter, r *http.Request) {
	pk, err := gamePk(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	q := newQuery(r.URL.Query())
	rpg := q.rpg(h.defaultRPG)
	top := q.intRange("top", ptr(5), 0, 50)
	if err := q.Err(); err != nil {
		writeErr(w, err)
		return
	}

	gp, err := h.stats.GetGamePlays(r.Context(), pk)
	if err != nil {
		writeErr(w, err)
		return
	}

	plays := winprob.Replay(gp.ReplayInput(rpg), rpg, mlbstats.IsFinal(gp.Status))
	writeJSON(w, http.StatusOK, replayResponse{
		GamePk:   pk,
		HomeTeam: gp.HomeTeam,
		AwayTeam: gp.AwayTeam,
		Status:   gp.Status,
		Count:    len(plays),
		Plays:    plays,
		Biggest:  winprob.BiggestPlays(plays, top),
	})
}
