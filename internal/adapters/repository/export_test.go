package repository

import "context"

// Truncate empties every table of a PostgresStore.
func Truncate(ctx context.Context, s Store) error {
	pg, ok := s.(*PostgresStore)
	if !ok {
		return nil
	}
	_, err := pg.pool.Exec(ctx, `TRUNCATE draft_picks, player_scores, scoring_rules, permissions, teams, players RESTART IDENTITY CASCADE;
		UPDATE draft_status SET is_draft_finished = FALSE`)
	return err
}
