package service

import (
	"context"

	"github.com/okian/playoffdraft/internal/domain/status"
	"github.com/okian/playoffdraft/pkg/metrics"
)

// Stats is the service summary served on /stats.
type Stats struct {
	Players       int  `json:"players"`
	Teams         int  `json:"teams"`
	Picks         int  `json:"picks"`
	OpenSlots     int  `json:"openSlots"`
	Scored        int  `json:"scored"`
	Disabled      int  `json:"disabled"`
	Subscribers   int  `json:"subscribers"`
	Finished      bool `json:"isDraftFinished"`
	TotalSlots    int  `json:"totalSlots"`
	RecalcWorkers int  `json:"recalcWorkers"`
}

// Stats gathers counts across storage and the event bus.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	st, err := s.State(ctx)
	if err != nil {
		return Stats{}, err
	}
	players, err := s.store.ListPlayers(ctx)
	if err != nil {
		return Stats{}, err
	}
	out := Stats{
		Players:       len(players),
		Teams:         len(st.Teams),
		Picks:         len(st.Picks),
		OpenSlots:     len(st.Teams)*s.totalSlots - len(st.Picks),
		Finished:      st.Finished,
		TotalSlots:    s.totalSlots,
		RecalcWorkers: s.pool.Size(),
	}
	for i := range st.Scores {
		switch status.StateOf(&st.Scores[i]) {
		case status.Scored:
			out.Scored++
		case status.Disabled:
			out.Disabled++
		}
	}
	if c, ok := s.pub.(interface{ Subscribers() int }); ok {
		out.Subscribers = c.Subscribers()
	}
	metrics.UpdateDraftCounts(out.Teams, out.Picks)
	return out, nil
}
