package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AdamBeresnev/matchday/internal/aggregate"
	"github.com/AdamBeresnev/matchday/internal/clock"
	"github.com/AdamBeresnev/matchday/internal/coordinator"
	"github.com/AdamBeresnev/matchday/internal/ledger"
	"github.com/AdamBeresnev/matchday/internal/lineup"
	"github.com/AdamBeresnev/matchday/internal/match"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Repositories bundles the persistence collaborators of the match service.
// Goals must update the match score in the same write as the goal itself.
type Repositories struct {
	Matches       match.MatchRepository
	Goals         match.EventRepository[match.Goal]
	Cards         match.EventRepository[match.Card]
	Substitutions match.EventRepository[match.Substitution]
	Lineups       match.LineupRepository
	Teams         match.TeamReader
	Tournaments   match.TournamentReader
}

// ClockListener hears the clock label of every live match on each tick.
type ClockListener interface {
	ClockTicked(matchID uuid.UUID, label string)
}

type MatchService struct {
	repos    Repositories
	coord    *coordinator.Coordinator
	goals    *ledger.Ledger[match.Goal]
	cards    *ledger.Ledger[match.Card]
	subs     *ledger.Ledger[match.Substitution]
	resolver *aggregate.Resolver
	clocks   []ClockListener
	now      func() time.Time
}

func NewMatchService(repos Repositories, coord *coordinator.Coordinator) *MatchService {
	return &MatchService{
		repos:    repos,
		coord:    coord,
		goals:    ledger.NewGoals(repos.Matches, repos.Goals),
		cards:    ledger.NewCards(repos.Matches, repos.Cards),
		subs:     ledger.NewSubstitutions(repos.Matches, repos.Substitutions),
		resolver: aggregate.NewResolver(repos.Matches, repos.Tournaments),
		now:      time.Now,
	}
}

func (s *MatchService) AddClockListener(l ClockListener) {
	s.clocks = append(s.clocks, l)
}

func (s *MatchService) cache() *coordinator.Cache {
	return s.coord.Cache()
}

func (s *MatchService) GetMatch(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	return coordinator.Load(ctx, s.cache(), id, coordinator.ViewMatch, func(ctx context.Context) (*match.Match, error) {
		m, err := s.repos.Matches.Get(ctx, id)
		if err != nil {
			return nil, match.Transport(err)
		}
		return m, nil
	})
}

func (s *MatchService) Goals(ctx context.Context, id uuid.UUID) ([]match.Goal, error) {
	return coordinator.Load(ctx, s.cache(), id, coordinator.ViewGoals, func(ctx context.Context) ([]match.Goal, error) {
		return s.goals.List(ctx, id)
	})
}

func (s *MatchService) Cards(ctx context.Context, id uuid.UUID) ([]match.Card, error) {
	return coordinator.Load(ctx, s.cache(), id, coordinator.ViewCards, func(ctx context.Context) ([]match.Card, error) {
		return s.cards.List(ctx, id)
	})
}

func (s *MatchService) Substitutions(ctx context.Context, id uuid.UUID) ([]match.Substitution, error) {
	return coordinator.Load(ctx, s.cache(), id, coordinator.ViewSubstitutions, func(ctx context.Context) ([]match.Substitution, error) {
		return s.subs.List(ctx, id)
	})
}

func (s *MatchService) Lineups(ctx context.Context, id uuid.UUID) ([]match.Lineup, error) {
	return coordinator.Load(ctx, s.cache(), id, coordinator.ViewLineups, func(ctx context.Context) ([]match.Lineup, error) {
		entries, err := s.repos.Lineups.ListByMatch(ctx, id)
		if err != nil {
			return nil, match.Transport(err)
		}
		if entries == nil {
			entries = []match.Lineup{}
		}
		return entries, nil
	})
}

// Timeline loads the three ledgers concurrently and merges them.
func (s *MatchService) Timeline(ctx context.Context, id uuid.UUID) ([]ledger.Entry, error) {
	var (
		goals []match.Goal
		cards []match.Card
		subs  []match.Substitution
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		goals, err = s.Goals(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		cards, err = s.Cards(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		subs, err = s.Substitutions(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ledger.Merge(goals, cards, subs), nil
}

type ClockView struct {
	Label  string      `json:"label"`
	Live   bool        `json:"live"`
	Minute int         `json:"minute"`
	Phase  match.Phase `json:"phase"`
}

func (s *MatchService) Clock(ctx context.Context, id uuid.UUID) (ClockView, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return ClockView{}, err
	}
	return s.clockOf(m, s.now()), nil
}

func (s *MatchService) clockOf(m *match.Match, now time.Time) ClockView {
	label, live := clock.Display(m, now)
	return ClockView{Label: label, Live: live, Minute: clock.Minute(m, now), Phase: m.Phase()}
}

func (s *MatchService) Aggregate(ctx context.Context, id uuid.UUID) (*aggregate.Aggregate, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, m)
}

type MatchData struct {
	Match     *match.Match         `json:"match"`
	TeamA     *match.Team          `json:"team_a"`
	TeamB     *match.Team          `json:"team_b"`
	Timeline  []ledger.Entry       `json:"timeline"`
	Clock     ClockView            `json:"clock"`
	Aggregate *aggregate.Aggregate `json:"aggregate,omitempty"`
}

func (s *MatchService) GetMatchViewData(ctx context.Context, id uuid.UUID) (*MatchData, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	data := &MatchData{Match: m, Clock: s.clockOf(m, s.now())}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		team, err := s.repos.Teams.GetTeam(gctx, m.TeamAID)
		if err != nil {
			return fmt.Errorf("failed to get team A: %w", match.Transport(err))
		}
		data.TeamA = team
		return nil
	})
	g.Go(func() error {
		team, err := s.repos.Teams.GetTeam(gctx, m.TeamBID)
		if err != nil {
			return fmt.Errorf("failed to get team B: %w", match.Transport(err))
		}
		data.TeamB = team
		return nil
	})
	g.Go(func() (err error) {
		data.Timeline, err = s.Timeline(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		data.Aggregate, err = s.resolver.Resolve(gctx, m)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// LineupEditor returns an editor loaded with the persisted lineups and both rosters.
func (s *MatchService) LineupEditor(ctx context.Context, id uuid.UUID) (*lineup.Editor, error) {
	m, err := s.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.Lineups(ctx, id)
	if err != nil {
		return nil, err
	}

	editor := lineup.NewEditor(m)
	for _, side := range []match.Side{match.SideA, match.SideB} {
		team, err := s.repos.Teams.GetTeam(ctx, m.TeamID(side))
		if err != nil {
			return nil, fmt.Errorf("failed to get team %s: %w", side, match.Transport(err))
		}
		editor.SetRoster(side, team.Roster)
	}
	if err := editor.Load(entries); err != nil {
		return nil, err
	}
	return editor, nil
}

var matchViews = []coordinator.View{coordinator.ViewMatch}

// transition runs one lifecycle step. A step whose preconditions do not hold is a
// no-op and returns the match as read.
func (s *MatchService) transition(ctx context.Context, key coordinator.Key, step func(ctx context.Context, m *match.Match, now time.Time) (match.Patch, bool, error)) (*match.Match, error) {
	return coordinator.Run(ctx, s.coord, key, matchViews, func(ctx context.Context, m *match.Match) (*match.Match, error) {
		patch, ok, err := step(ctx, m, s.now())
		if err != nil {
			return nil, err
		}
		if !ok {
			return m, nil
		}
		updated, err := s.repos.Matches.Update(ctx, m.ID, patch)
		if err != nil {
			return nil, match.Transport(err)
		}
		return updated, nil
	})
}

// Start kicks off a scheduled match. Both teams must have eleven starters.
func (s *MatchService) Start(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationStart}
	return s.transition(ctx, key, func(ctx context.Context, m *match.Match, now time.Time) (match.Patch, bool, error) {
		patch, ok := m.Start(now)
		if !ok {
			return patch, false, nil
		}
		entries, err := s.repos.Lineups.ListByMatch(ctx, m.ID)
		if err != nil {
			return patch, false, match.Transport(err)
		}
		if err := lineup.ValidateKickoff(entries, m.TeamAID, m.TeamBID); err != nil {
			return patch, false, err
		}
		return patch, true, nil
	})
}

func (s *MatchService) SetHalftime(ctx context.Context, id uuid.UUID, halftime bool) (*match.Match, error) {
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationHalftime, Target: strconv.FormatBool(halftime)}
	return s.transition(ctx, key, func(_ context.Context, m *match.Match, _ time.Time) (match.Patch, bool, error) {
		patch, ok := m.SetHalftime(halftime)
		return patch, ok, nil
	})
}

func (s *MatchService) StartSecondHalf(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationSecondHalf}
	return s.transition(ctx, key, func(_ context.Context, m *match.Match, now time.Time) (match.Patch, bool, error) {
		patch, ok := m.StartSecondHalf(now)
		return patch, ok, nil
	})
}

func (s *MatchService) Finish(ctx context.Context, id uuid.UUID) (*match.Match, error) {
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationFinish}
	return s.transition(ctx, key, func(_ context.Context, m *match.Match, now time.Time) (match.Patch, bool, error) {
		patch, ok := m.Finish(now)
		return patch, ok, nil
	})
}

// SetAdditionalTime sets the stoppage minutes of half 1 or 2.
func (s *MatchService) SetAdditionalTime(ctx context.Context, id uuid.UUID, half, minutes int) (*match.Match, error) {
	if half != 1 && half != 2 {
		return nil, match.ErrInvalidHalf
	}
	if minutes < 0 {
		return nil, match.ErrNegativeValue
	}
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationAdditionalTime, Target: fmt.Sprintf("%d:%d", half, minutes)}
	return s.transition(ctx, key, func(_ context.Context, m *match.Match, _ time.Time) (match.Patch, bool, error) {
		if half == 1 {
			return match.Patch{AdditionalTimeFirstHalf: &minutes}, m.AdditionalTimeFirstHalf != minutes, nil
		}
		return match.Patch{AdditionalTimeSecondHalf: &minutes}, m.AdditionalTimeSecondHalf != minutes, nil
	})
}

// SetScore overwrites the regulation score. The next goal recorded or removed
// recomputes it from the goal ledger.
func (s *MatchService) SetScore(ctx context.Context, id uuid.UUID, scoreA, scoreB int) (*match.Match, error) {
	if scoreA < 0 || scoreB < 0 {
		return nil, match.ErrNegativeValue
	}
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationScore, Target: fmt.Sprintf("%d:%d", scoreA, scoreB)}
	return s.transition(ctx, key, func(_ context.Context, m *match.Match, _ time.Time) (match.Patch, bool, error) {
		changed := m.ScoreA != scoreA || m.ScoreB != scoreB
		return match.Patch{ScoreA: &scoreA, ScoreB: &scoreB}, changed, nil
	})
}

// SetPenaltyScore records a shoot-out score on a live knockout match that is level.
func (s *MatchService) SetPenaltyScore(ctx context.Context, id uuid.UUID, scoreA, scoreB int) (*match.Match, error) {
	if scoreA < 0 || scoreB < 0 {
		return nil, match.ErrNegativeValue
	}
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationPenalties, Target: fmt.Sprintf("%d:%d", scoreA, scoreB)}
	return s.transition(ctx, key, func(_ context.Context, m *match.Match, _ time.Time) (match.Patch, bool, error) {
		if !m.IsKnockout() || m.Status != match.StatusLive || !m.IsLevel() {
			return match.Patch{}, false, match.ErrPenaltiesNotAllowed
		}
		changed := m.PenaltyScoreA != scoreA || m.PenaltyScoreB != scoreB
		return match.Patch{PenaltyScoreA: &scoreA, PenaltyScoreB: &scoreB}, changed, nil
	})
}

var (
	goalViews         = []coordinator.View{coordinator.ViewGoals, coordinator.ViewMatch}
	cardViews         = []coordinator.View{coordinator.ViewCards}
	substitutionViews = []coordinator.View{coordinator.ViewSubstitutions}
	lineupViews       = []coordinator.View{coordinator.ViewLineups, coordinator.ViewMatch}
)

// goalKey separates goals that differ in any submitted field.
func goalKey(matchID uuid.UUID, goal match.Goal) coordinator.Key {
	assistant := ""
	if goal.AssistantID != nil {
		assistant = goal.AssistantID.String()
	}
	target := fmt.Sprintf("%s:%d:%s:%s:%t", goal.TeamID, goal.Minute, goal.ScorerID, assistant, goal.IsOwnGoal)
	return coordinator.Key{MatchID: matchID, Mutation: coordinator.MutationAddGoal, Target: target}
}

// AddGoal records a goal. The goal repository updates the score in the same
// write. Identical submissions that overlap are recorded once.
func (s *MatchService) AddGoal(ctx context.Context, id uuid.UUID, goal match.Goal) (match.Goal, error) {
	return coordinator.Run(ctx, s.coord, goalKey(id, goal), goalViews, func(ctx context.Context, m *match.Match) (match.Goal, error) {
		return s.goals.AddTo(ctx, m, goal)
	})
}

func (s *MatchService) DeleteGoal(ctx context.Context, id, goalID uuid.UUID) error {
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationDeleteGoal, Target: goalID.String()}
	_, err := coordinator.Run(ctx, s.coord, key, goalViews, func(ctx context.Context, m *match.Match) (struct{}, error) {
		return struct{}{}, s.goals.DeleteFrom(ctx, m, goalID)
	})
	return err
}

func (s *MatchService) AddCard(ctx context.Context, id uuid.UUID, card match.Card) (match.Card, error) {
	target := fmt.Sprintf("%s:%d:%s:%s", card.TeamID, card.Minute, card.PlayerID, card.Color)
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationAddCard, Target: target}
	return coordinator.Run(ctx, s.coord, key, cardViews, func(ctx context.Context, m *match.Match) (match.Card, error) {
		return s.cards.AddTo(ctx, m, card)
	})
}

func (s *MatchService) DeleteCard(ctx context.Context, id, cardID uuid.UUID) error {
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationDeleteCard, Target: cardID.String()}
	_, err := coordinator.Run(ctx, s.coord, key, cardViews, func(ctx context.Context, m *match.Match) (struct{}, error) {
		return struct{}{}, s.cards.DeleteFrom(ctx, m, cardID)
	})
	return err
}

func (s *MatchService) AddSubstitution(ctx context.Context, id uuid.UUID, sub match.Substitution) (match.Substitution, error) {
	target := fmt.Sprintf("%s:%d:%s:%s", sub.TeamID, sub.Minute, sub.PlayerInID, sub.PlayerOutID)
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationAddSub, Target: target}
	return coordinator.Run(ctx, s.coord, key, substitutionViews, func(ctx context.Context, m *match.Match) (match.Substitution, error) {
		return s.subs.AddTo(ctx, m, sub)
	})
}

func (s *MatchService) DeleteSubstitution(ctx context.Context, id, subID uuid.UUID) error {
	key := coordinator.Key{MatchID: id, Mutation: coordinator.MutationDeleteSub, Target: subID.String()}
	_, err := coordinator.Run(ctx, s.coord, key, substitutionViews, func(ctx context.Context, m *match.Match) (struct{}, error) {
		return struct{}{}, s.subs.DeleteFrom(ctx, m, subID)
	})
	return err
}

// CommitLineup persists both lineups and formations held by editor.
func (s *MatchService) CommitLineup(ctx context.Context, editor *lineup.Editor) ([]match.Lineup, error) {
	key := coordinator.Key{MatchID: editor.MatchID(), Mutation: coordinator.MutationLineups}
	return coordinator.Run(ctx, s.coord, key, lineupViews, func(ctx context.Context, m *match.Match) ([]match.Lineup, error) {
		return editor.Commit(ctx, s.repos.Lineups, m)
	})
}

// Revalidate drops the cached views of every live match and publishes their clocks.
// It is meant to run as a clock.Job.
func (s *MatchService) Revalidate(ctx context.Context, now time.Time) error {
	live := match.StatusLive
	matches, err := s.repos.Matches.List(ctx, match.Filter{Status: &live})
	if err != nil {
		return fmt.Errorf("failed to list live matches: %w", match.Transport(err))
	}
	for i := range matches {
		m := &matches[i]
		s.cache().Invalidate(m.ID, coordinator.AllViews...)
		label, ok := clock.Display(m, now)
		if !ok {
			continue
		}
		for _, l := range s.clocks {
			l.ClockTicked(m.ID, label)
		}
	}
	return nil
}
