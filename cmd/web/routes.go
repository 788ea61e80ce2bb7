package main

import (
	"encoding/json"
	"net/http"

	"github.com/AdamBeresnev/matchday/internal/config"
	"github.com/AdamBeresnev/matchday/internal/httputil"
	"github.com/AdamBeresnev/matchday/internal/live"
	"github.com/AdamBeresnev/matchday/internal/lineup"
	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/AdamBeresnev/matchday/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

type application struct {
	matches  *service.MatchService
	fixtures *service.FixtureService
	hub      *live.Hub
}

func (app *application) routes(cfg config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Post("/tournaments", app.createTournament)
	r.Get("/tournaments/{id}", app.getTournament)
	r.Post("/tournaments/{id}/matches", app.scheduleMatch)
	r.Post("/tournaments/{id}/ties", app.scheduleTie)
	r.Post("/teams", app.createTeam)

	r.Route("/matches/{id}", func(r chi.Router) {
		r.Get("/", app.getMatch)
		r.Get("/clock", app.getClock)
		r.Get("/timeline", app.getTimeline)
		r.Get("/aggregate", app.getAggregate)
		r.Get("/lineups", app.getLineups)
		r.Put("/lineups", app.putLineups)
		r.Get("/ws", app.serveWS)

		r.Post("/start", app.start)
		r.Post("/halftime", app.halftime)
		r.Post("/second-half", app.secondHalf)
		r.Post("/finish", app.finish)
		r.Put("/additional-time", app.additionalTime)
		r.Put("/score", app.score)
		r.Put("/penalties", app.penalties)

		r.Post("/goals", app.addGoal)
		r.Delete("/goals/{eventID}", app.deleteGoal)
		r.Post("/cards", app.addCard)
		r.Delete("/cards/{eventID}", app.deleteCard)
		r.Post("/substitutions", app.addSubstitution)
		r.Delete("/substitutions/{eventID}", app.deleteSubstitution)
	})

	return r
}

func urlID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+param, err)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid JSON body", err)
		return false
	}
	return true
}

func (app *application) createTournament(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string `json:"name"`
		TwoLegged bool   `json:"two_legged"`
	}
	if !decode(w, r, &body) {
		return
	}
	id, err := app.fixtures.CreateTournament(r.Context(), body.Name, body.TwoLegged)
	if err != nil {
		httputil.Error(w, "Failed to create tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

func (app *application) getTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	data, err := app.fixtures.GetTournamentData(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get tournament", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (app *application) scheduleMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var input service.FixtureInput
	if !decode(w, r, &input) {
		return
	}
	matchID, err := app.fixtures.ScheduleMatch(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, "Failed to schedule match", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": matchID})
}

func (app *application) scheduleTie(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var input service.FixtureInput
	if !decode(w, r, &input) {
		return
	}
	legs, err := app.fixtures.ScheduleTwoLeggedTie(r.Context(), id, input)
	if err != nil {
		httputil.Error(w, "Failed to schedule tie", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"first_leg": legs[0], "second_leg": legs[1]})
}

func (app *application) createTeam(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string                `json:"name"`
		Players []service.PlayerInput `json:"players"`
	}
	if !decode(w, r, &body) {
		return
	}
	id, err := app.fixtures.CreateTeam(r.Context(), body.Name, body.Players)
	if err != nil {
		httputil.Error(w, "Failed to create team", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]uuid.UUID{"id": id})
}

func (app *application) getMatch(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	data, err := app.matches.GetMatchViewData(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get match data", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, data)
}

func (app *application) getClock(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	view, err := app.matches.Clock(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get clock", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (app *application) getTimeline(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	timeline, err := app.matches.Timeline(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get timeline", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, timeline)
}

func (app *application) getAggregate(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	agg, err := app.matches.Aggregate(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to get aggregate", err)
		return
	}
	if agg == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, agg)
}

type lineupView struct {
	Formations match.Formations             `json:"formations"`
	Entries    []match.Lineup               `json:"entries"`
	Mismatches map[string][]lineup.Mismatch `json:"mismatches"`
}

func newLineupView(editor *lineup.Editor) lineupView {
	view := lineupView{
		Formations: editor.Formations(),
		Entries:    editor.Entries(),
		Mismatches: make(map[string][]lineup.Mismatch),
	}
	for _, side := range []match.Side{match.SideA, match.SideB} {
		if mm := editor.Mismatches(side); len(mm) > 0 {
			view.Mismatches[side.String()] = mm
		}
	}
	return view
}

func (app *application) getLineups(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	editor, err := app.matches.LineupEditor(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to load lineups", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newLineupView(editor))
}

// putLineups replaces both lineups. Entries are checked against the rosters
// before anything is written.
func (app *application) putLineups(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		FormationA string         `json:"formation_a"`
		FormationB string         `json:"formation_b"`
		Entries    []match.Lineup `json:"entries"`
	}
	if !decode(w, r, &body) {
		return
	}

	editor, err := app.matches.LineupEditor(r.Context(), id)
	if err != nil {
		httputil.Error(w, "Failed to load lineups", err)
		return
	}
	for side, code := range map[match.Side]string{match.SideA: body.FormationA, match.SideB: body.FormationB} {
		if code == "" {
			continue
		}
		if err := editor.SetFormation(side, code); err != nil {
			httputil.Error(w, "Invalid formation", err)
			return
		}
	}
	if err := editor.Load(body.Entries); err != nil {
		httputil.Error(w, "Invalid lineup", err)
		return
	}

	if _, err := app.matches.CommitLineup(r.Context(), editor); err != nil {
		httputil.Error(w, "Failed to save lineups", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newLineupView(editor))
}

func (app *application) serveWS(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	app.hub.ServeWS(w, r, id)
}

func (app *application) writeMatch(w http.ResponseWriter, m *match.Match, err error) {
	if err != nil {
		httputil.Error(w, "Match update failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}

func (app *application) start(w http.ResponseWriter, r *http.Request) {
	if id, ok := urlID(w, r, "id"); ok {
		m, err := app.matches.Start(r.Context(), id)
		app.writeMatch(w, m, err)
	}
}

func (app *application) halftime(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Halftime bool `json:"halftime"`
	}
	if !decode(w, r, &body) {
		return
	}
	m, err := app.matches.SetHalftime(r.Context(), id, body.Halftime)
	app.writeMatch(w, m, err)
}

func (app *application) secondHalf(w http.ResponseWriter, r *http.Request) {
	if id, ok := urlID(w, r, "id"); ok {
		m, err := app.matches.StartSecondHalf(r.Context(), id)
		app.writeMatch(w, m, err)
	}
}

func (app *application) finish(w http.ResponseWriter, r *http.Request) {
	if id, ok := urlID(w, r, "id"); ok {
		m, err := app.matches.Finish(r.Context(), id)
		app.writeMatch(w, m, err)
	}
}

func (app *application) additionalTime(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Half    int `json:"half"`
		Minutes int `json:"minutes"`
	}
	if !decode(w, r, &body) {
		return
	}
	m, err := app.matches.SetAdditionalTime(r.Context(), id, body.Half, body.Minutes)
	app.writeMatch(w, m, err)
}

type scoreBody struct {
	ScoreA int `json:"score_a"`
	ScoreB int `json:"score_b"`
}

func (app *application) score(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body scoreBody
	if !decode(w, r, &body) {
		return
	}
	m, err := app.matches.SetScore(r.Context(), id, body.ScoreA, body.ScoreB)
	app.writeMatch(w, m, err)
}

func (app *application) penalties(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body scoreBody
	if !decode(w, r, &body) {
		return
	}
	m, err := app.matches.SetPenaltyScore(r.Context(), id, body.ScoreA, body.ScoreB)
	app.writeMatch(w, m, err)
}

func (app *application) addGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var goal match.Goal
	if !decode(w, r, &goal) {
		return
	}
	created, err := app.matches.AddGoal(r.Context(), id, goal)
	if err != nil {
		httputil.Error(w, "Failed to add goal", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (app *application) addCard(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var card match.Card
	if !decode(w, r, &card) {
		return
	}
	created, err := app.matches.AddCard(r.Context(), id, card)
	if err != nil {
		httputil.Error(w, "Failed to add card", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (app *application) addSubstitution(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var sub match.Substitution
	if !decode(w, r, &sub) {
		return
	}
	created, err := app.matches.AddSubstitution(r.Context(), id, sub)
	if err != nil {
		httputil.Error(w, "Failed to add substitution", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

// deleteEvent handles the three event DELETE routes.
func deleteEvent(remove func(r *http.Request, matchID, eventID uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		eventID, ok := urlID(w, r, "eventID")
		if !ok {
			return
		}
		if err := remove(r, matchID, eventID); err != nil {
			httputil.Error(w, "Failed to delete event", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (app *application) deleteGoal(w http.ResponseWriter, r *http.Request) {
	deleteEvent(func(r *http.Request, matchID, eventID uuid.UUID) error {
		return app.matches.DeleteGoal(r.Context(), matchID, eventID)
	})(w, r)
}

func (app *application) deleteCard(w http.ResponseWriter, r *http.Request) {
	deleteEvent(func(r *http.Request, matchID, eventID uuid.UUID) error {
		return app.matches.DeleteCard(r.Context(), matchID, eventID)
	})(w, r)
}

func (app *application) deleteSubstitution(w http.ResponseWriter, r *http.Request) {
	deleteEvent(func(r *http.Request, matchID, eventID uuid.UUID) error {
		return app.matches.DeleteSubstitution(r.Context(), matchID, eventID)
	})(w, r)
}
