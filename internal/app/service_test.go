package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/itbasis/go-clock"

	"github.com/okian/playoffdraft/internal/adapters/mq/broker"
	"github.com/okian/playoffdraft/internal/adapters/repository"
	service "github.com/okian/playoffdraft/internal/app"
	"github.com/okian/playoffdraft/internal/domain/draft"
	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/internal/domain/rules"
	"github.com/okian/playoffdraft/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var players = []model.Player{
	{ID: 1, Name: "Patrick Mahomes", Position: model.QB, NFLTeam: "KC"},
	{ID: 2, Name: "Josh Allen", Position: model.QB, NFLTeam: "BUF"},
	{ID: 3, Name: "Derrick Henry", Position: model.RB, NFLTeam: "BAL"},
	{ID: 4, Name: "Justin Jefferson", Position: model.WR, NFLTeam: "MIN"},
	{ID: 5, Name: "Harrison Butker", Position: model.K, NFLTeam: "KC"},
	{ID: 6, Name: "Travis Kelce", Position: model.TE, NFLTeam: "KC"},
	{ID: 7, Name: "Ravens D/ST", Position: model.DST, NFLTeam: "BAL"},
}

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

type fixture struct {
	svc      *service.Service
	store    *repository.MemoryStore
	bus      *broker.Broker
	observer *broker.Subscription
	admin    context.Context
	scorer   context.Context
	user     context.Context
	anon     context.Context
}

func newFixture(slots int, opts ...service.Option) *fixture {
	bg := context.Background()
	store := repository.NewMemoryStore(repository.WithTotalSlots(slots))
	So(store.UpsertPlayers(bg, players), ShouldBeNil)
	So(store.SetPermission(bg, model.Permission{UserID: "scorer", EditScores: true}), ShouldBeNil)

	bus := broker.New()
	observer, err := bus.Subscribe("observer")
	So(err, ShouldBeNil)

	opts = append([]service.Option{
		service.WithPublisher(bus),
		service.WithClock(clock.New()),
		service.WithBootstrapAdmin("admin"),
		service.WithRecalcWorkers(2),
		service.WithRecalcBatchSize(1),
		service.WithTotalSlots(slots),
	}, opts...)
	svc := service.New(store, opts...)
	So(svc.Start(bg), ShouldBeNil)

	return &fixture{
		svc:      svc,
		store:    store,
		bus:      bus,
		observer: observer,
		admin:    service.WithActor(bg, service.Actor{UserID: "admin", ClientID: "c-admin"}),
		scorer:   service.WithActor(bg, service.Actor{UserID: "scorer", ClientID: "c-scorer"}),
		user:     service.WithActor(bg, service.Actor{UserID: "drafter", ClientID: "c-drafter"}),
		anon:     bg,
	}
}

func (f *fixture) close() {
	_ = f.svc.Stop(context.Background())
	_ = f.bus.Close()
}

// drain returns the events buffered for the observer.
func (f *fixture) drain() []realtime.Event {
	var out []realtime.Event
	for {
		select {
		case ev := <-f.observer.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (f *fixture) team(name string) {
	_, err := f.svc.CreateTeam(f.admin, service.TeamInput{Name: name})
	So(err, ShouldBeNil)
}

func intp(v int) *int { return &v }

func TestAuthorization(t *testing.T) {
	Convey("Given a running service", t, func() {
		f := newFixture(6)
		defer f.close()

		Convey("Then anonymous callers are unauthenticated", func() {
			_, err := f.svc.CreateTeam(f.anon, service.TeamInput{Name: "Alpha"})
			So(errors.Is(err, errs.ErrUnauthenticated), ShouldBeTrue)
			So(errors.Is(err, errs.ErrAuthorization), ShouldBeTrue)
		})

		Convey("Then non-admins get a generic refusal", func() {
			_, err := f.svc.CreateTeam(f.scorer, service.TeamInput{Name: "Alpha"})
			So(errors.Is(err, errs.ErrAuthorization), ShouldBeTrue)
			So(errors.Is(err, errs.ErrUnauthenticated), ShouldBeFalse)
			So(errs.Message(err), ShouldEqual, "not authorized")
		})

		Convey("Then plain users cannot enter scores", func() {
			_, err := f.svc.SaveScore(f.user, 1, model.WildCard, model.NewScoreData("touchdowns", "1"))
			So(errors.Is(err, errs.ErrAuthorization), ShouldBeTrue)
		})

		Convey("Then the bootstrap admin was provisioned", func() {
			me, err := f.svc.Me(f.admin)
			So(err, ShouldBeNil)
			So(me.IsAdmin, ShouldBeTrue)
		})
	})
}

func TestDraftFlow(t *testing.T) {
	Convey("Given two teams with the default budget", t, func() {
		f := newFixture(6)
		defer f.close()
		f.team("Alpha")
		f.team("Bravo")

		Convey("When a team is created without a name", func() {
			_, err := f.svc.CreateTeam(f.admin, service.TeamInput{Name: "  "})
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When Alpha picks a $50 QB then a $30 RB", func() {
			st, err := f.svc.State(f.admin)
			So(err, ShouldBeNil)
			replica := realtime.NewReplica("observer", st)
			f.drain()

			_, err = f.svc.Pick(f.user, model.DraftPick{Team: "Alpha", Slot: 1, PlayerID: 1, Cost: 50})
			So(err, ShouldBeNil)
			team, err := f.svc.Pick(f.user, model.DraftPick{Team: "Alpha", Slot: 2, PlayerID: 3, Cost: 30})
			So(err, ShouldBeNil)
			So(team.Budget, ShouldEqual, 120)

			Convey("Then unpicking the RB restores 150 from storage", func() {
				team, err := f.svc.Unpick(f.user, "Alpha", 2)
				So(err, ShouldBeNil)
				So(team.Budget, ShouldEqual, 150)

				for _, ev := range f.drain() {
					So(replica.Apply(context.Background(), ev), ShouldBeNil)
				}
				mirrored, _ := replica.Team("Alpha")
				So(mirrored.Budget, ShouldEqual, 150)
				So(replica.Picks(), ShouldHaveLength, 1)
			})

			Convey("Then Bravo cannot take the same QB", func() {
				_, err := f.svc.Pick(f.user, model.DraftPick{Team: "Bravo", Slot: 1, PlayerID: 1, Cost: 10})
				So(errors.Is(err, draft.ErrSlotOccupiedOrIneligible), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "no longer available")
			})

			Convey("Then an overspend names the remaining figure", func() {
				_, err := f.svc.Pick(f.user, model.DraftPick{Team: "Alpha", Slot: 3, PlayerID: 4, Cost: 121})
				So(errors.Is(err, draft.ErrInsufficientBudget), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "$120")
			})

			Convey("Then the eligible pool reflects the roster", func() {
				pool, err := f.svc.EligiblePlayers(f.user, "Alpha", "")
				So(err, ShouldBeNil)
				for _, p := range pool {
					So(p.Position, ShouldNotEqual, model.QB)
				}
				_, err = f.svc.EligiblePlayers(f.user, "Nobody", "")
				So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
			})

			Convey("Then a new global budget keeps spending", func() {
				teams, err := f.svc.SetBudget(f.admin, 300)
				So(err, ShouldBeNil)
				So(teams[0], ShouldResemble, model.Team{Name: "Alpha", Budget: 220, OriginalBudget: 300})
				So(teams[1], ShouldResemble, model.Team{Name: "Bravo", Budget: 300, OriginalBudget: 300})

				for _, ev := range f.drain() {
					So(replica.Apply(context.Background(), ev), ShouldBeNil)
				}
				alpha, _ := replica.Team("Alpha")
				So(alpha.Budget, ShouldEqual, 220)
			})

			Convey("Then renaming carries the picks", func() {
				team, err := f.svc.UpdateTeam(f.admin, "Alpha", service.TeamInput{Name: "Aces"})
				So(err, ShouldBeNil)
				So(team, ShouldResemble, model.Team{Name: "Aces", Budget: 120, OriginalBudget: 200})
				for _, ev := range f.drain() {
					So(replica.Apply(context.Background(), ev), ShouldBeNil)
				}
				_, ok := replica.PickAt("Aces", 1)
				So(ok, ShouldBeTrue)
			})

			Convey("Then teams can no longer be deleted", func() {
				So(errors.Is(f.svc.DeleteTeam(f.admin, "Bravo"), errs.ErrState), ShouldBeTrue)
			})

			Convey("Then the draft cannot finish with open slots", func() {
				So(errors.Is(f.svc.FinishDraft(f.admin), errs.ErrState), ShouldBeTrue)
			})

			Convey("Then a reset needs confirmation and clears everything", func() {
				So(errors.Is(f.svc.ResetDraft(f.admin, false), errs.ErrValidation), ShouldBeTrue)
				So(f.svc.ResetDraft(f.admin, true), ShouldBeNil)

				st, err := f.svc.State(f.admin)
				So(err, ShouldBeNil)
				So(st.Picks, ShouldBeEmpty)
				So(st.Teams[0].Budget, ShouldEqual, 200)

				for _, ev := range f.drain() {
					So(replica.Apply(context.Background(), ev), ShouldBeNil)
				}
				So(replica.Picks(), ShouldBeEmpty)
			})
		})

		Convey("When every slot of a small draft is filled", func() {
			g := newFixture(1, service.WithRecalcWorkers(1))
			defer g.close()
			g.team("Solo")
			_, err := g.svc.Pick(g.user, model.DraftPick{Team: "Solo", Slot: 1, PlayerID: 5, Cost: 1})
			So(err, ShouldBeNil)
			g.drain()
			So(g.svc.FinishDraft(g.admin), ShouldBeNil)

			Convey("Then the finish is broadcast and picks are frozen", func() {
				events := g.drain()
				So(events, ShouldHaveLength, 1)
				So(events[0].Type, ShouldEqual, realtime.TypeDraftStatus)
				_, err := g.svc.Unpick(g.user, "Solo", 1)
				So(errors.Is(err, errs.ErrState), ShouldBeTrue)
				_, err = g.svc.SetBudget(g.admin, 10)
				So(errors.Is(err, errs.ErrState), ShouldBeTrue)
			})
		})

		Convey("When the empty team is deleted", func() {
			So(f.svc.DeleteTeam(f.admin, "Bravo"), ShouldBeNil)
			teams, _ := f.svc.Teams(f.admin)
			So(teams, ShouldHaveLength, 1)
		})
	})
}

func TestConcurrentPicks(t *testing.T) {
	Convey("Given six teams racing for one player", t, func() {
		f := newFixture(6)
		defer f.close()
		names := []string{"A", "B", "C", "D", "E", "F"}
		for _, n := range names {
			f.team(n)
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			wins      int
			conflicts int
		)
		for _, n := range names {
			wg.Add(1)
			go func(team string) {
				defer wg.Done()
				_, err := f.svc.Pick(f.user, model.DraftPick{Team: team, Slot: 1, PlayerID: 2, Cost: 25})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, errs.ErrConflict):
					conflicts++
				}
			}(n)
		}
		wg.Wait()

		Convey("Then exactly one wins and the rest conflict", func() {
			So(wins, ShouldEqual, 1)
			So(conflicts, ShouldEqual, len(names)-1)
		})
	})
}

func TestScoring(t *testing.T) {
	qbLine := model.NewScoreData("touchdowns", "3", "yards", "275", "twoPtConversions", "0", "interceptions", "1", "completions", "22")

	Convey("Given a running service", t, func() {
		f := newFixture(6)
		defer f.close()

		Convey("When a QB line is saved with default rules", func() {
			rec, err := f.svc.SaveScore(f.scorer, 1, model.WildCard, qbLine)
			So(err, ShouldBeNil)

			Convey("Then it scores 23 and is broadcast", func() {
				So(rec.Score, ShouldEqual, 23)
				events := f.drain()
				So(events, ShouldHaveLength, 1)
				upd, err := realtime.Decode[realtime.PlayerScoreUpdate](events[0])
				So(err, ShouldBeNil)
				So(upd.PlayerName, ShouldEqual, "Patrick Mahomes")
				So(upd.Score, ShouldEqual, 23)
			})

			Convey("Then it cannot be disabled until cleared", func() {
				err := f.svc.DisableScore(f.scorer, 1, model.WildCard, model.ReasonNone)
				So(errors.Is(err, errs.ErrState), ShouldBeTrue)
				So(f.svc.ClearScore(f.scorer, 1, model.WildCard), ShouldBeNil)
				So(f.svc.DisableScore(f.scorer, 1, model.WildCard, model.ReasonNone), ShouldBeNil)
			})
		})

		Convey("When a field is not a whole number", func() {
			_, err := f.svc.SaveScore(f.scorer, 1, model.WildCard, model.NewScoreData("touchdowns", "2.5"))
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When the player is unknown", func() {
			_, err := f.svc.SaveScore(f.scorer, 99, model.WildCard, qbLine)
			So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a player is eliminated in the divisional round", func() {
			So(f.svc.DisableScore(f.scorer, 3, model.Divisional, model.ReasonEliminated), ShouldBeNil)

			Convey("Then every later round is disabled too", func() {
				for _, r := range []model.Round{model.Conference, model.Superbowl} {
					rec, err := f.store.GetScore(context.Background(), 3, r)
					So(err, ShouldBeNil)
					So(rec.Disabled, ShouldBeTrue)
					So(rec.Reason, ShouldEqual, model.ReasonEliminated)
					So(rec.Score, ShouldEqual, 0)
				}
				So(f.drain(), ShouldHaveLength, 3)
			})

			Convey("Then reactivating deletes only that round", func() {
				So(f.svc.ReactivateScore(f.scorer, 3, model.Divisional), ShouldBeNil)
				_, err := f.store.GetScore(context.Background(), 3, model.Divisional)
				So(errors.Is(err, errs.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a later round is disabled without a reason", func() {
			err := f.svc.DisableScore(f.scorer, 3, model.Conference, model.ReasonNone)
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When an unscored player is reactivated", func() {
			So(f.svc.ReactivateScore(f.scorer, 4, model.WildCard), ShouldBeNil)

			Convey("Then nothing is written or broadcast", func() {
				scores, _ := f.svc.Scores(f.scorer, 0)
				So(scores, ShouldBeEmpty)
				So(f.drain(), ShouldBeEmpty)
			})
		})

		Convey("When the passing touchdown rule goes from 4 to 5", func() {
			_, err := f.svc.SaveScore(f.scorer, 1, model.WildCard, qbLine)
			So(err, ShouldBeNil)
			_, err = f.svc.SaveScore(f.scorer, 2, model.WildCard, model.NewScoreData("touchdowns", "1"))
			So(err, ShouldBeNil)
			_, err = f.svc.SaveScore(f.scorer, 3, model.WildCard, model.NewScoreData("touchdowns", "1"))
			So(err, ShouldBeNil)
			f.drain()

			res, err := f.svc.SetScoringRules(f.admin, model.QB, []rules.Input{{Category: "passingTouchdown", Value: "5"}})
			So(err, ShouldBeNil)

			Convey("Then each QB gains one point per touchdown", func() {
				So(res.Updated, ShouldEqual, 2)
				mahomes, _ := f.store.GetScore(context.Background(), 1, model.WildCard)
				So(mahomes.Score, ShouldEqual, 26)
				allen, _ := f.store.GetScore(context.Background(), 2, model.WildCard)
				So(allen.Score, ShouldEqual, 5)
				henry, _ := f.store.GetScore(context.Background(), 3, model.WildCard)
				So(henry.Score, ShouldEqual, 6)
			})

			Convey("Then clients are asked to reload QB scores", func() {
				events := f.drain()
				So(events, ShouldNotBeEmpty)
				upd, err := realtime.Decode[realtime.PlayerScoreUpdate](events[len(events)-1])
				So(err, ShouldBeNil)
				So(upd.Type, ShouldEqual, realtime.ScoringRulesUpdate)
				So(upd.Position, ShouldEqual, model.QB)
			})

			Convey("Then a second recalculation changes nothing", func() {
				n, err := f.svc.Recalculate(f.admin, model.QB)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
				all, err := f.svc.RecalculateAll(context.Background())
				So(err, ShouldBeNil)
				So(all, ShouldEqual, 0)
			})
		})

		Convey("When a rule batch has a bad value", func() {
			_, err := f.svc.SetScoringRules(f.admin, model.QB, []rules.Input{
				{Category: "passingTouchdown", Value: "6"},
				{Category: "interception", Value: "lots"},
			})

			Convey("Then nothing is stored", func() {
				So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
				current, err := f.svc.ScoringRules(f.admin, model.QB)
				So(err, ShouldBeNil)
				for _, r := range current {
					if r.Category == "passingTouchdown" {
						So(r.Value, ShouldEqual, 4.0)
					}
				}
			})
		})
	})
}

// editingStore runs onUpdate once, before the first value update that touches player.
type editingStore struct {
	*repository.MemoryStore
	player   int
	once     sync.Once
	onUpdate func()
}

func (s *editingStore) UpdateScoreValues(ctx context.Context, recs []model.PlayerScore) (int, error) {
	for _, r := range recs {
		if r.PlayerID == s.player && s.onUpdate != nil {
			s.once.Do(s.onUpdate)
		}
	}
	return s.MemoryStore.UpdateScoreValues(ctx, recs)
}

func TestRecalculationRacesScoreEdit(t *testing.T) {
	Convey("Given a QB score edited while the rules recalculation is in flight", t, func() {
		bg := context.Background()
		mem := repository.NewMemoryStore(repository.WithTotalSlots(6))
		So(mem.UpsertPlayers(bg, players), ShouldBeNil)
		So(mem.SetPermission(bg, model.Permission{UserID: "scorer", EditScores: true}), ShouldBeNil)
		store := &editingStore{MemoryStore: mem, player: 2}

		svc := service.New(store,
			service.WithBootstrapAdmin("admin"),
			service.WithRecalcWorkers(2),
			service.WithRecalcBatchSize(1),
			service.WithTotalSlots(6),
		)
		So(svc.Start(bg), ShouldBeNil)
		defer func() { _ = svc.Stop(bg) }()

		admin := service.WithActor(bg, service.Actor{UserID: "admin", ClientID: "c-admin"})
		scorer := service.WithActor(bg, service.Actor{UserID: "scorer", ClientID: "c-scorer"})
		_, err := svc.SaveScore(scorer, 2, model.WildCard, model.NewScoreData("touchdowns", "1"))
		So(err, ShouldBeNil)

		var editErr error
		store.onUpdate = func() {
			_, editErr = svc.SaveScore(scorer, 2, model.WildCard, model.NewScoreData("touchdowns", "3"))
		}
		_, err = svc.SetScoringRules(admin, model.QB, []rules.Input{{Category: "passingTouchdown", Value: "5"}})
		So(err, ShouldBeNil)
		So(editErr, ShouldBeNil)

		Convey("Then the stored score matches the stored data", func() {
			rec, err := mem.GetScore(bg, 2, model.WildCard)
			So(err, ShouldBeNil)
			So(rec.Data.Equal(model.NewScoreData("touchdowns", "3")), ShouldBeTrue)
			So(rec.Score, ShouldEqual, 15)
			So(rec.Score, ShouldEqual, svc.Calculator().Compute(bg, model.QB, rec.Data))
		})
	})
}

func TestRounds(t *testing.T) {
	Convey("Given two drafted players", t, func() {
		f := newFixture(6)
		defer f.close()
		f.team("Alpha")
		_, err := f.svc.Pick(f.user, model.DraftPick{Team: "Alpha", Slot: 1, PlayerID: 1, Cost: 10})
		So(err, ShouldBeNil)
		_, err = f.svc.Pick(f.user, model.DraftPick{Team: "Alpha", Slot: 2, PlayerID: 3, Cost: 10})
		So(err, ShouldBeNil)

		Convey("When only one has a Wild Card record", func() {
			_, err := f.svc.SaveScore(f.scorer, 1, model.WildCard, model.NewScoreData("touchdowns", "1"))
			So(err, ShouldBeNil)
			rounds, err := f.svc.Rounds(f.user)
			So(err, ShouldBeNil)

			Convey("Then only the Wild Card round is open", func() {
				So(rounds[model.WildCard], ShouldBeTrue)
				So(rounds[model.Divisional], ShouldBeFalse)
			})
		})

		Convey("When the other is disabled for the Wild Card round", func() {
			_, err := f.svc.SaveScore(f.scorer, 1, model.WildCard, model.NewScoreData("touchdowns", "1"))
			So(err, ShouldBeNil)
			So(f.svc.DisableScore(f.scorer, 3, model.WildCard, model.ReasonNotPlaying), ShouldBeNil)
			rounds, err := f.svc.Rounds(f.user)
			So(err, ShouldBeNil)

			Convey("Then the divisional round opens", func() {
				So(rounds[model.Divisional], ShouldBeTrue)
				So(rounds[model.Conference], ShouldBeFalse)
			})
		})
	})
}

func TestPermissions(t *testing.T) {
	Convey("Given the bootstrap admin is the only admin", t, func() {
		f := newFixture(6)
		defer f.close()

		Convey("Then they cannot drop their own admin flag", func() {
			err := f.svc.SetPermission(f.admin, model.Permission{UserID: "admin", EditScores: true})
			So(errors.Is(err, errs.ErrConflict), ShouldBeTrue)
		})

		Convey("When a second admin is granted", func() {
			So(f.svc.SetPermission(f.admin, model.Permission{UserID: "deputy", IsAdmin: true}), ShouldBeNil)

			Convey("Then the first may step down", func() {
				So(f.svc.SetPermission(f.admin, model.Permission{UserID: "admin", EditScores: true}), ShouldBeNil)
				all, err := f.svc.Permissions(service.WithActor(context.Background(), service.Actor{UserID: "deputy"}))
				So(err, ShouldBeNil)
				So(all, ShouldHaveLength, 3)
			})
		})

		Convey("When the user id is missing", func() {
			err := f.svc.SetPermission(f.admin, model.Permission{IsAdmin: true})
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestStats(t *testing.T) {
	Convey("Given a draft with one pick and one score", t, func() {
		f := newFixture(6)
		defer f.close()
		f.team("Alpha")
		_, err := f.svc.Pick(f.user, model.DraftPick{Team: "Alpha", Slot: 1, PlayerID: 1, Cost: 10})
		So(err, ShouldBeNil)
		So(f.svc.DisableScore(f.scorer, 2, model.WildCard, model.ReasonNone), ShouldBeNil)

		Convey("Then the summary counts them", func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			st, err := f.svc.Stats(ctx)
			So(err, ShouldBeNil)
			So(st.Players, ShouldEqual, len(players))
			So(st.Teams, ShouldEqual, 1)
			So(st.Picks, ShouldEqual, 1)
			So(st.OpenSlots, ShouldEqual, 5)
			So(st.Disabled, ShouldEqual, 1)
			So(st.Subscribers, ShouldEqual, 1)
			So(st.RecalcWorkers, ShouldEqual, 2)
		})
	})
}
