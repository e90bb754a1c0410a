package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/okian/playoffdraft/internal/domain/draft"
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/status"
)

type ruleKey struct {
	pos      model.Position
	category string
}

// MemoryStore keeps the draft in process memory. A single mutex serializes every write,
// which gives picks their compare-and-set semantics.
type MemoryStore struct {
	settings
	mu          sync.RWMutex
	players     map[int]model.Player
	teams       map[string]model.Team
	picks       map[draft.Cell]model.DraftPick
	finished    bool
	rules       map[ruleKey]model.ScoringRule
	scores      map[status.Key]model.PlayerScore
	permissions map[string]model.Permission
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		settings:    newSettings(opts),
		players:     make(map[int]model.Player),
		teams:       make(map[string]model.Team),
		picks:       make(map[draft.Cell]model.DraftPick),
		rules:       make(map[ruleKey]model.ScoringRule),
		scores:      make(map[status.Key]model.PlayerScore),
		permissions: make(map[string]model.Permission),
	}
}

func (s *MemoryStore) UpsertPlayers(_ context.Context, players []model.Player) error {
	for _, p := range players {
		if p.ID <= 0 || p.Name == "" || !p.Position.Valid() {
			return errs.Newf("repository.upsert_players", errs.ErrValidation, "invalid player %+v", p)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range players {
		s.players[p.ID] = p
	}
	return nil
}

func (s *MemoryStore) ListPlayers(_ context.Context) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.players))
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetPlayer(_ context.Context, id int) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return model.Player{}, playerNotFound("repository.get_player", id)
	}
	return p, nil
}

func (s *MemoryStore) ListTeams(_ context.Context) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.teams))
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetTeam(_ context.Context, name string) (model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.teams[name]
	if !ok {
		return model.Team{}, teamNotFound("repository.get_team", name)
	}
	return t, nil
}

func (s *MemoryStore) CreateTeam(_ context.Context, t model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[t.Name]; ok {
		return teamExists("repository.create_team", t.Name)
	}
	s.teams[t.Name] = t
	return nil
}

func (s *MemoryStore) UpdateTeam(_ context.Context, name string, upd model.Team) (model.Team, error) {
	const op = "repository.update_team"
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[name]; !ok {
		return model.Team{}, teamNotFound(op, name)
	}
	if upd.Name != name {
		if _, taken := s.teams[upd.Name]; taken {
			return model.Team{}, teamExists(op, upd.Name)
		}
	}
	spent := s.spentLocked(name)
	if spent > upd.OriginalBudget {
		return model.Team{}, overspent(op, name, spent, upd.OriginalBudget)
	}
	if upd.Name != name {
		for c, pk := range s.picks {
			if c.Team == name {
				delete(s.picks, c)
				pk.Team = upd.Name
				s.picks[draft.Cell{Team: upd.Name, Slot: c.Slot}] = pk
			}
		}
		delete(s.teams, name)
	}
	t := model.Team{Name: upd.Name, OriginalBudget: upd.OriginalBudget, Budget: upd.OriginalBudget - spent}
	s.teams[t.Name] = t
	return t, nil
}

func (s *MemoryStore) DeleteTeam(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[name]; !ok {
		return teamNotFound("repository.delete_team", name)
	}
	for c := range s.picks {
		if c.Team == name {
			delete(s.picks, c)
		}
	}
	delete(s.teams, name)
	return nil
}

func (s *MemoryStore) SetAllBudgets(_ context.Context, budget int) ([]model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.boardLocked()
	if err := b.SetGlobalBudget(budget); err != nil {
		return nil, err
	}
	for _, t := range b.Teams() {
		s.teams[t.Name] = t
	}
	return b.Teams(), nil
}

func (s *MemoryStore) ListPicks(_ context.Context) ([]model.DraftPick, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.picksLocked(), nil
}

func (s *MemoryStore) CommitPick(_ context.Context, pk model.DraftPick) (model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.boardLocked()
	if err := b.Pick(pk.Team, pk.Slot, pk.PlayerID, pk.Cost); err != nil {
		return model.Team{}, err
	}
	s.picks[draft.Cell{Team: pk.Team, Slot: pk.Slot}] = pk
	return s.recomputeLocked(pk.Team), nil
}

func (s *MemoryStore) RemovePick(_ context.Context, team string, slot int) (model.DraftPick, model.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.teams[team]; !ok {
		return model.DraftPick{}, model.Team{}, teamNotFound("repository.remove_pick", team)
	}
	b := s.boardLocked()
	pk, err := b.Unpick(team, slot)
	if err != nil {
		return model.DraftPick{}, model.Team{}, err
	}
	delete(s.picks, draft.Cell{Team: team, Slot: slot})
	return pk, s.recomputeLocked(team), nil
}

func (s *MemoryStore) DraftFinished(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished, nil
}

func (s *MemoryStore) SetDraftFinished(_ context.Context, finished bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if finished {
		if err := s.boardLocked().Finish(); err != nil {
			return err
		}
	}
	s.finished = finished
	return nil
}

func (s *MemoryStore) ResetDraft(_ context.Context, budget int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.picks = make(map[draft.Cell]model.DraftPick)
	s.scores = make(map[status.Key]model.PlayerScore)
	for name, t := range s.teams {
		t.Budget, t.OriginalBudget = budget, budget
		s.teams[name] = t
	}
	s.finished = false
	return nil
}

func (s *MemoryStore) ListRules(_ context.Context, pos model.Position) ([]model.ScoringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.ScoringRule, 0, 8)
	for k, r := range s.rules {
		if k.pos == pos {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *MemoryStore) ReplaceRules(_ context.Context, pos model.Position, rows []model.ScoringRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.rules {
		if k.pos == pos {
			delete(s.rules, k)
		}
	}
	for _, r := range rows {
		r.Position = pos
		s.rules[ruleKey{pos: pos, category: r.Category}] = r
	}
	return nil
}

func (s *MemoryStore) ListScores(_ context.Context) ([]model.PlayerScore, error) {
	return s.filterScores(func(model.PlayerScore) bool { return true }), nil
}

func (s *MemoryStore) ListScoresByRound(_ context.Context, round model.Round) ([]model.PlayerScore, error) {
	return s.filterScores(func(r model.PlayerScore) bool { return r.Round == round }), nil
}

func (s *MemoryStore) ListPlayerScores(_ context.Context, playerID int) ([]model.PlayerScore, error) {
	return s.filterScores(func(r model.PlayerScore) bool { return r.PlayerID == playerID }), nil
}

func (s *MemoryStore) GetScore(_ context.Context, playerID int, round model.Round) (model.PlayerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.scores[status.Key{PlayerID: playerID, Round: round}]
	if !ok {
		return model.PlayerScore{}, scoreNotFound("repository.get_score", playerID, round)
	}
	return cloneScore(r), nil
}

func (s *MemoryStore) ApplyScorePatch(_ context.Context, p status.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range p {
		if _, ok := s.players[op.Record.PlayerID]; !ok && op.Kind == status.Upsert {
			return playerNotFound("repository.apply_score_patch", op.Record.PlayerID)
		}
	}
	for _, op := range p {
		switch op.Kind {
		case status.Upsert:
			s.scores[op.Key()] = cloneScore(op.Record)
		case status.Delete:
			delete(s.scores, op.Key())
		}
	}
	return nil
}

func (s *MemoryStore) UpdateScoreValues(_ context.Context, recs []model.PlayerScore) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, rec := range recs {
		k := status.KeyOf(rec)
		cur, ok := s.scores[k]
		if !ok || cur.Disabled || cur.Data == nil || !cur.Data.Equal(rec.Data) || cur.Score == rec.Score {
			continue
		}
		cur.Score = rec.Score
		s.scores[k] = cur
		changed++
	}
	return changed, nil
}

func (s *MemoryStore) ListScoredByPosition(_ context.Context, pos model.Position) ([]model.PlayerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PlayerScore, 0)
	for _, r := range s.scores {
		if r.Disabled || r.Data == nil || s.players[r.PlayerID].Position != pos {
			continue
		}
		out = append(out, cloneScore(r))
	}
	sortScores(out)
	return out, nil
}

func (s *MemoryStore) GetPermission(_ context.Context, userID string) (model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[userID]
	if !ok {
		return model.Permission{UserID: userID}, nil
	}
	return p, nil
}

func (s *MemoryStore) ListPermissions(_ context.Context) ([]model.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Collect(maps.Values(s.permissions))
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryStore) SetPermission(_ context.Context, p model.Permission) error {
	if p.UserID == "" {
		return errs.New("repository.set_permission", errs.ErrValidation, "user id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[p.UserID] = p
	return nil
}

func (s *MemoryStore) CountAdmins(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.permissions {
		if p.IsAdmin {
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

func (s *MemoryStore) boardLocked() *draft.Board {
	return draft.NewBoard(
		s.totalSlots,
		slices.Collect(maps.Values(s.players)),
		slices.Collect(maps.Values(s.teams)),
		s.picksLocked(),
		s.finished,
	)
}

func (s *MemoryStore) picksLocked() []model.DraftPick {
	out := slices.Collect(maps.Values(s.picks))
	sort.Slice(out, func(i, j int) bool {
		if out[i].Team != out[j].Team {
			return out[i].Team < out[j].Team
		}
		return out[i].Slot < out[j].Slot
	})
	return out
}

func (s *MemoryStore) spentLocked(team string) int {
	spent := 0
	for c, pk := range s.picks {
		if c.Team == team {
			spent += pk.Cost
		}
	}
	return spent
}

func (s *MemoryStore) recomputeLocked(team string) model.Team {
	t := s.teams[team]
	var own []model.DraftPick
	for c, pk := range s.picks {
		if c.Team == team {
			own = append(own, pk)
		}
	}
	t.Budget = draft.RecomputeBudget(t.OriginalBudget, own)
	s.teams[team] = t
	return t
}

func (s *MemoryStore) filterScores(keep func(model.PlayerScore) bool) []model.PlayerScore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.PlayerScore, 0)
	for _, r := range s.scores {
		if keep(r) {
			out = append(out, cloneScore(r))
		}
	}
	sortScores(out)
	return out
}

func cloneScore(r model.PlayerScore) model.PlayerScore {
	r.Data = r.Data.Clone()
	return r
}

func sortScores(recs []model.PlayerScore) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Round != recs[j].Round {
			return recs[i].Round < recs[j].Round
		}
		return recs[i].PlayerID < recs[j].PlayerID
	})
}
