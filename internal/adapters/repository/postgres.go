package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/playoffdraft/internal/domain/draft"
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/status"
	"github.com/okian/playoffdraft/pkg/logger"
)

//go:embed schema.sql
var schema string

const (
	sqlUniqueViolation     = "23505"
	sqlForeignKeyViolation = "23503"
	sqlCheckViolation      = "23514"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists the draft in PostgreSQL. Pick commits lock the team row and rely
// on the unique constraints of draft_picks for cross-team races.
type PostgresStore struct {
	settings
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects, pings and applies the schema.
func NewPostgresStore(ctx context.Context, connString string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	s := &PostgresStore{settings: newSettings(opts), pool: pool}
	s.logger.Info(ctx, "postgres store ready", logger.Int("total_slots", s.totalSlots))
	return s, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) UpsertPlayers(ctx context.Context, players []model.Player) error {
	const op = "repository.upsert_players"
	const query = `INSERT INTO players (id, name, position, team_name)
					VALUES (@id, @name, @position, @team)
					ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name,
						position = EXCLUDED.position, team_name = EXCLUDED.team_name`

	if len(players) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range players {
		if p.ID <= 0 || p.Name == "" || !p.Position.Valid() {
			return errs.Newf(op, errs.ErrValidation, "invalid player %+v", p)
		}
		batch.Queue(query, pgx.NamedArgs{
			"id":       p.ID,
			"name":     p.Name,
			"position": string(p.Position),
			"team":     nullText(p.NFLTeam),
		})
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("error upserting players: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context) ([]model.Player, error) {
	const query = `SELECT id, name, position, team_name FROM players ORDER BY id`
	return listPlayers(ctx, s.pool, query)
}

func (s *PostgresStore) GetPlayer(ctx context.Context, id int) (model.Player, error) {
	const query = `SELECT id, name, position, team_name FROM players WHERE id=@id`
	p, err := scanPlayer(s.pool.QueryRow(ctx, query, pgx.NamedArgs{"id": id}))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Player{}, playerNotFound("repository.get_player", id)
	}
	if err != nil {
		return model.Player{}, fmt.Errorf("error scanning player %d: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) ListTeams(ctx context.Context) ([]model.Team, error) {
	return listTeams(ctx, s.pool)
}

func (s *PostgresStore) GetTeam(ctx context.Context, name string) (model.Team, error) {
	const query = `SELECT name, budget, original_budget FROM teams WHERE name=@name`
	t, err := scanTeam(s.pool.QueryRow(ctx, query, pgx.NamedArgs{"name": name}))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Team{}, teamNotFound("repository.get_team", name)
	}
	if err != nil {
		return model.Team{}, fmt.Errorf("error scanning team %q: %w", name, err)
	}
	return t, nil
}

func (s *PostgresStore) CreateTeam(ctx context.Context, t model.Team) error {
	const query = `INSERT INTO teams (name, budget, original_budget, updated)
					VALUES (@name, @budget, @original, @updated)`
	_, err := s.pool.Exec(ctx, query, pgx.NamedArgs{
		"name":     t.Name,
		"budget":   t.Budget,
		"original": t.OriginalBudget,
		"updated":  s.clock.Now().UTC(),
	})
	if isCode(err, sqlUniqueViolation) {
		return teamExists("repository.create_team", t.Name)
	}
	if isCode(err, sqlCheckViolation) {
		return errs.Wrap("repository.create_team", errs.ErrValidation, err)
	}
	return err
}

func (s *PostgresStore) UpdateTeam(ctx context.Context, name string, upd model.Team) (model.Team, error) {
	const op = "repository.update_team"
	var out model.Team
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		teamID, err := lockTeam(ctx, tx, op, name)
		if err != nil {
			return err
		}
		spent, err := teamSpent(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if spent > upd.OriginalBudget {
			return overspent(op, name, spent, upd.OriginalBudget)
		}
		const query = `UPDATE teams SET name=@name, original_budget=@original, budget=@budget, updated=@updated
						WHERE id=@id RETURNING name, budget, original_budget`
		out, err = scanTeam(tx.QueryRow(ctx, query, pgx.NamedArgs{
			"id":       teamID,
			"name":     upd.Name,
			"original": upd.OriginalBudget,
			"budget":   upd.OriginalBudget - spent,
			"updated":  s.clock.Now().UTC(),
		}))
		if isCode(err, sqlUniqueViolation) {
			return teamExists(op, upd.Name)
		}
		return err
	})
	return out, err
}

func (s *PostgresStore) DeleteTeam(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM teams WHERE name=@name`, pgx.NamedArgs{"name": name})
	if err != nil {
		return fmt.Errorf("error deleting team %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return teamNotFound("repository.delete_team", name)
	}
	return nil
}

func (s *PostgresStore) SetAllBudgets(ctx context.Context, budget int) ([]model.Team, error) {
	const op = "repository.set_all_budgets"
	var out []model.Team
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		finished, err := draftFinished(ctx, tx, "FOR UPDATE")
		if err != nil {
			return err
		}
		if finished {
			return errs.New(op, errs.ErrState, "budgets cannot change after the draft is finished")
		}
		if budget < 0 {
			return errs.New(op, errs.ErrValidation, "budget must not be negative")
		}
		const overQuery = `SELECT t.name, COALESCE(SUM(p.cost), 0)::INTEGER AS spent
							FROM teams t LEFT JOIN draft_picks p ON p.team_id = t.id
							GROUP BY t.name HAVING COALESCE(SUM(p.cost), 0) > @budget
							ORDER BY t.name LIMIT 1`
		var (
			name  string
			spent int
		)
		err = tx.QueryRow(ctx, overQuery, pgx.NamedArgs{"budget": budget}).Scan(&name, &spent)
		if err == nil {
			return overspent(op, name, spent, budget)
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		const update = `UPDATE teams t SET original_budget=@budget,
							budget=@budget - COALESCE((SELECT SUM(cost) FROM draft_picks p WHERE p.team_id = t.id), 0),
							updated=@updated`
		if _, err := tx.Exec(ctx, update, pgx.NamedArgs{"budget": budget, "updated": s.clock.Now().UTC()}); err != nil {
			return err
		}
		out, err = listTeams(ctx, tx)
		return err
	})
	return out, err
}

func (s *PostgresStore) ListPicks(ctx context.Context) ([]model.DraftPick, error) {
	return listPicks(ctx, s.pool)
}

func (s *PostgresStore) CommitPick(ctx context.Context, pk model.DraftPick) (model.Team, error) {
	const op = "repository.commit_pick"
	var out model.Team
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		finished, err := draftFinished(ctx, tx, "FOR SHARE")
		if err != nil {
			return err
		}
		teamID, err := lockTeam(ctx, tx, op, pk.Team)
		if err != nil {
			return err
		}
		b, err := s.loadBoard(ctx, tx, finished)
		if err != nil {
			return err
		}
		if err := b.CheckPick(pk.Team, pk.Slot, pk.PlayerID, pk.Cost); err != nil {
			return err
		}
		const insert = `INSERT INTO draft_picks (team_id, player_id, slot, cost, created)
						VALUES (@team, @player, @slot, @cost, @created)`
		_, err = tx.Exec(ctx, insert, pgx.NamedArgs{
			"team":    teamID,
			"player":  pk.PlayerID,
			"slot":    pk.Slot,
			"cost":    pk.Cost,
			"created": s.clock.Now().UTC(),
		})
		if isCode(err, sqlUniqueViolation) {
			return &draft.SlotError{Team: pk.Team, Slot: pk.Slot, Reason: "player is no longer available"}
		}
		if err != nil {
			return err
		}
		out, err = s.recompute(ctx, tx, teamID)
		if isCode(err, sqlCheckViolation) {
			return &draft.BudgetError{Team: pk.Team, Cost: pk.Cost, Remaining: b.Ledger(pk.Team).Remaining}
		}
		return err
	})
	return out, err
}

func (s *PostgresStore) RemovePick(ctx context.Context, team string, slot int) (model.DraftPick, model.Team, error) {
	const op = "repository.remove_pick"
	var (
		removed model.DraftPick
		out     model.Team
	)
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		finished, err := draftFinished(ctx, tx, "FOR SHARE")
		if err != nil {
			return err
		}
		if finished {
			return errs.New(op, errs.ErrState, "the draft is finished")
		}
		teamID, err := lockTeam(ctx, tx, op, team)
		if err != nil {
			return err
		}
		const del = `DELETE FROM draft_picks WHERE team_id=@team AND slot=@slot RETURNING player_id, cost`
		var playerID pgtype.Int4
		err = tx.QueryRow(ctx, del, pgx.NamedArgs{"team": teamID, "slot": slot}).Scan(&playerID, &removed.Cost)
		if errors.Is(err, pgx.ErrNoRows) {
			return errs.Newf(op, errs.ErrNotFound, "no pick in slot %d for %q", slot, team)
		}
		if err != nil {
			return err
		}
		removed.Team, removed.Slot, removed.PlayerID = team, slot, int(playerID.Int32)
		out, err = s.recompute(ctx, tx, teamID)
		return err
	})
	return removed, out, err
}

func (s *PostgresStore) DraftFinished(ctx context.Context) (bool, error) {
	return draftFinished(ctx, s.pool, "")
}

func (s *PostgresStore) SetDraftFinished(ctx context.Context, finished bool) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := draftFinished(ctx, tx, "FOR UPDATE")
		if err != nil {
			return err
		}
		if finished {
			b, err := s.loadBoard(ctx, tx, current)
			if err != nil {
				return err
			}
			if err := b.Finish(); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `UPDATE draft_status SET is_draft_finished=@finished`, pgx.NamedArgs{"finished": finished})
		return err
	})
}

func (s *PostgresStore) ResetDraft(ctx context.Context, budget int) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := draftFinished(ctx, tx, "FOR UPDATE"); err != nil {
			return err
		}
		stmts := []struct {
			sql  string
			args pgx.NamedArgs
		}{
			{`DELETE FROM draft_picks`, nil},
			{`DELETE FROM player_scores`, nil},
			{`UPDATE teams SET budget=@budget, original_budget=@budget, updated=@updated`,
				pgx.NamedArgs{"budget": budget, "updated": s.clock.Now().UTC()}},
			{`UPDATE draft_status SET is_draft_finished=FALSE`, nil},
		}
		for _, st := range stmts {
			var err error
			if st.args == nil {
				_, err = tx.Exec(ctx, st.sql)
			} else {
				_, err = tx.Exec(ctx, st.sql, st.args)
			}
			if err != nil {
				return fmt.Errorf("error resetting draft: %w", err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) ListRules(ctx context.Context, pos model.Position) ([]model.ScoringRule, error) {
	const query = `SELECT position, category, value, description FROM scoring_rules
					WHERE position=@position ORDER BY category`
	rows, err := s.pool.Query(ctx, query, pgx.NamedArgs{"position": string(pos)})
	if err != nil {
		return nil, fmt.Errorf("error listing rules: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.ScoringRule, error) {
		var (
			r   model.ScoringRule
			raw string
		)
		err := row.Scan(&raw, &r.Category, &r.Value, &r.Description)
		r.Position = model.Position(raw)
		return r, err
	})
}

func (s *PostgresStore) ReplaceRules(ctx context.Context, pos model.Position, rows []model.ScoringRule) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scoring_rules WHERE position=@position`, pgx.NamedArgs{"position": string(pos)}); err != nil {
			return err
		}
		const insert = `INSERT INTO scoring_rules (position, category, value, description)
						VALUES (@position, @category, @value, @description)`
		for _, r := range rows {
			_, err := tx.Exec(ctx, insert, pgx.NamedArgs{
				"position":    string(pos),
				"category":    r.Category,
				"value":       r.Value,
				"description": r.Description,
			})
			if isCode(err, sqlUniqueViolation) {
				return errs.Newf("repository.replace_rules", errs.ErrValidation, "duplicate category %q", r.Category)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

const scoreColumns = `s.player_id, s.round, s.is_disabled, s.status_reason, s.score, s.score_data`

func (s *PostgresStore) ListScores(ctx context.Context) ([]model.PlayerScore, error) {
	return listScores(ctx, s.pool, `SELECT `+scoreColumns+` FROM player_scores s ORDER BY s.round, s.player_id`, nil)
}

func (s *PostgresStore) ListScoresByRound(ctx context.Context, round model.Round) ([]model.PlayerScore, error) {
	return listScores(ctx, s.pool, `SELECT `+scoreColumns+` FROM player_scores s
		WHERE s.round=@round ORDER BY s.player_id`, pgx.NamedArgs{"round": int(round)})
}

func (s *PostgresStore) ListPlayerScores(ctx context.Context, playerID int) ([]model.PlayerScore, error) {
	return listScores(ctx, s.pool, `SELECT `+scoreColumns+` FROM player_scores s
		WHERE s.player_id=@player ORDER BY s.round`, pgx.NamedArgs{"player": playerID})
}

func (s *PostgresStore) GetScore(ctx context.Context, playerID int, round model.Round) (model.PlayerScore, error) {
	query := `SELECT ` + scoreColumns + ` FROM player_scores s WHERE s.player_id=@player AND s.round=@round`
	rec, err := scanScore(s.pool.QueryRow(ctx, query, pgx.NamedArgs{"player": playerID, "round": int(round)}))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PlayerScore{}, scoreNotFound("repository.get_score", playerID, round)
	}
	return rec, err
}

func (s *PostgresStore) ApplyScorePatch(ctx context.Context, p status.Patch) error {
	const op = "repository.apply_score_patch"
	const upsert = `INSERT INTO player_scores (player_id, round, is_disabled, status_reason, score, score_data, updated)
					VALUES (@player, @round, @disabled, @reason, @score, @data, @updated)
					ON CONFLICT (player_id, round) DO UPDATE SET is_disabled = EXCLUDED.is_disabled,
						status_reason = EXCLUDED.status_reason, score = EXCLUDED.score,
						score_data = EXCLUDED.score_data, updated = EXCLUDED.updated`
	const del = `DELETE FROM player_scores WHERE player_id=@player AND round=@round`

	if p.Empty() {
		return nil
	}
	now := s.clock.Now().UTC()
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, o := range p {
			args := pgx.NamedArgs{"player": o.Record.PlayerID, "round": int(o.Record.Round)}
			if o.Kind == status.Delete {
				if _, err := tx.Exec(ctx, del, args); err != nil {
					return err
				}
				continue
			}
			data, err := encodeScoreData(o.Record.Data)
			if err != nil {
				return errs.Wrap(op, errs.ErrValidation, err)
			}
			args["disabled"] = o.Record.Disabled
			args["reason"] = nullText(string(o.Record.Reason))
			args["score"] = o.Record.Score
			args["data"] = data
			args["updated"] = now
			_, err = tx.Exec(ctx, upsert, args)
			if isCode(err, sqlForeignKeyViolation) {
				return playerNotFound(op, o.Record.PlayerID)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *PostgresStore) UpdateScoreValues(ctx context.Context, recs []model.PlayerScore) (int, error) {
	const update = `UPDATE player_scores SET score=@score, updated=@updated
					WHERE player_id=@player AND round=@round AND score <> @score
						AND NOT is_disabled AND score_data = @data::jsonb`
	changed := 0
	now := s.clock.Now().UTC()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		changed = 0
		for _, r := range recs {
			data, err := encodeScoreData(r.Data)
			if err != nil {
				return err
			}
			if data == nil {
				continue
			}
			tag, err := tx.Exec(ctx, update, pgx.NamedArgs{
				"player":  r.PlayerID,
				"round":   int(r.Round),
				"score":   r.Score,
				"data":    data,
				"updated": now,
			})
			if err != nil {
				return err
			}
			changed += int(tag.RowsAffected())
		}
		return nil
	})
	return changed, err
}

func (s *PostgresStore) ListScoredByPosition(ctx context.Context, pos model.Position) ([]model.PlayerScore, error) {
	return listScores(ctx, s.pool, `SELECT `+scoreColumns+` FROM player_scores s
		JOIN players p ON p.id = s.player_id
		WHERE p.position=@position AND NOT s.is_disabled AND s.score_data IS NOT NULL
		ORDER BY s.round, s.player_id`, pgx.NamedArgs{"position": string(pos)})
}

func (s *PostgresStore) GetPermission(ctx context.Context, userID string) (model.Permission, error) {
	const query = `SELECT user_id, edit_scores, is_admin FROM permissions WHERE user_id=@user`
	p := model.Permission{UserID: userID}
	err := s.pool.QueryRow(ctx, query, pgx.NamedArgs{"user": userID}).Scan(&p.UserID, &p.EditScores, &p.IsAdmin)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Permission{UserID: userID}, nil
	}
	return p, err
}

func (s *PostgresStore) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	rows, err := s.pool.Query(ctx, `SELECT user_id, edit_scores, is_admin FROM permissions ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("error listing permissions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Permission, error) {
		var p model.Permission
		err := row.Scan(&p.UserID, &p.EditScores, &p.IsAdmin)
		return p, err
	})
}

func (s *PostgresStore) SetPermission(ctx context.Context, p model.Permission) error {
	if p.UserID == "" {
		return errs.New("repository.set_permission", errs.ErrValidation, "user id is required")
	}
	const query = `INSERT INTO permissions (user_id, edit_scores, is_admin) VALUES (@user, @edit, @admin)
					ON CONFLICT (user_id) DO UPDATE SET edit_scores = EXCLUDED.edit_scores, is_admin = EXCLUDED.is_admin`
	_, err := s.pool.Exec(ctx, query, pgx.NamedArgs{"user": p.UserID, "edit": p.EditScores, "admin": p.IsAdmin})
	return err
}

func (s *PostgresStore) CountAdmins(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE is_admin`).Scan(&n)
	return n, err
}

func (s *PostgresStore) loadBoard(ctx context.Context, q querier, finished bool) (*draft.Board, error) {
	players, err := listPlayers(ctx, q, `SELECT id, name, position, team_name FROM players`)
	if err != nil {
		return nil, err
	}
	teams, err := listTeams(ctx, q)
	if err != nil {
		return nil, err
	}
	picks, err := listPicks(ctx, q)
	if err != nil {
		return nil, err
	}
	return draft.NewBoard(s.totalSlots, players, teams, picks, finished), nil
}

func (s *PostgresStore) recompute(ctx context.Context, tx pgx.Tx, teamID int) (model.Team, error) {
	const query = `UPDATE teams SET budget = original_budget -
						COALESCE((SELECT SUM(cost) FROM draft_picks WHERE team_id=@id), 0),
						updated=@updated
					WHERE id=@id RETURNING name, budget, original_budget`
	return scanTeam(tx.QueryRow(ctx, query, pgx.NamedArgs{"id": teamID, "updated": s.clock.Now().UTC()}))
}

func lockTeam(ctx context.Context, tx pgx.Tx, op, name string) (int, error) {
	var id int
	err := tx.QueryRow(ctx, `SELECT id FROM teams WHERE name=@name FOR UPDATE`, pgx.NamedArgs{"name": name}).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, teamNotFound(op, name)
	}
	return id, err
}

func teamSpent(ctx context.Context, q querier, teamID int) (int, error) {
	var spent int
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(cost), 0)::INTEGER FROM draft_picks WHERE team_id=@id`,
		pgx.NamedArgs{"id": teamID}).Scan(&spent)
	return spent, err
}

func draftFinished(ctx context.Context, q querier, lock string) (bool, error) {
	var finished bool
	err := q.QueryRow(ctx, `SELECT is_draft_finished FROM draft_status `+lock).Scan(&finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return finished, err
}

func listPlayers(ctx context.Context, q querier, query string) ([]model.Player, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing players: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Player, error) {
		return scanPlayer(row)
	})
}

func listTeams(ctx context.Context, q querier) ([]model.Team, error) {
	rows, err := q.Query(ctx, `SELECT name, budget, original_budget FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error listing teams: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Team, error) {
		return scanTeam(row)
	})
}

func listPicks(ctx context.Context, q querier) ([]model.DraftPick, error) {
	const query = `SELECT t.name, p.slot, p.player_id, p.cost FROM draft_picks p
					JOIN teams t ON t.id = p.team_id
					WHERE p.player_id IS NOT NULL ORDER BY t.name, p.slot`
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing picks: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.DraftPick, error) {
		var pk model.DraftPick
		err := row.Scan(&pk.Team, &pk.Slot, &pk.PlayerID, &pk.Cost)
		return pk, err
	})
}

func listScores(ctx context.Context, q querier, query string, args pgx.NamedArgs) ([]model.PlayerScore, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if args == nil {
		rows, err = q.Query(ctx, query)
	} else {
		rows, err = q.Query(ctx, query, args)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing scores: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PlayerScore, error) {
		return scanScore(row)
	})
}

func scanPlayer(row pgx.Row) (model.Player, error) {
	var (
		p    model.Player
		pos  string
		team pgtype.Text
	)
	if err := row.Scan(&p.ID, &p.Name, &pos, &team); err != nil {
		return model.Player{}, err
	}
	p.Position = model.Position(pos)
	p.NFLTeam = team.String
	return p, nil
}

func scanTeam(row pgx.Row) (model.Team, error) {
	var t model.Team
	err := row.Scan(&t.Name, &t.Budget, &t.OriginalBudget)
	return t, err
}

func scanScore(row pgx.Row) (model.PlayerScore, error) {
	var (
		rec    model.PlayerScore
		round  int16
		reason pgtype.Text
		data   []byte
	)
	if err := row.Scan(&rec.PlayerID, &round, &rec.Disabled, &reason, &rec.Score, &data); err != nil {
		return model.PlayerScore{}, err
	}
	rec.Round = model.Round(round)
	rec.Reason = model.StatusReason(reason.String)
	if data != nil {
		rec.Data = &model.ScoreData{}
		if err := json.Unmarshal(data, rec.Data); err != nil {
			return model.PlayerScore{}, fmt.Errorf("error decoding score data for player %d: %w", rec.PlayerID, err)
		}
	}
	return rec, nil
}

func encodeScoreData(d *model.ScoreData) (any, error) {
	if d == nil {
		return nil, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func nullText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
