package realtime_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	. "github.com/smartystreets/goconvey/convey"
)

var at = time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)

func intp(v int) *int { return &v }

func mustEvent(ev realtime.Event, err error) realtime.Event {
	So(err, ShouldBeNil)
	return ev
}

func seed() realtime.State {
	return realtime.State{
		TotalSlots: 6,
		Teams: []model.Team{
			{Name: "Alpha", Budget: 200, OriginalBudget: 200},
			{Name: "Bravo", Budget: 200, OriginalBudget: 200},
		},
	}
}

func TestWireFormat(t *testing.T) {
	Convey("Given a pick event", t, func() {
		ev := mustEvent(realtime.NewDraftPickEvent("c1", at, realtime.DraftPickUpdate{
			Action: realtime.ActionAdd,
			Team:   "Alpha",
			Slot:   1,
			Player: &realtime.PlayerRef{ID: 3, Name: "Derrick Henry", Position: model.RB},
			Cost:   intp(45),
		}))

		Convey("Then the payload keys are exact", func() {
			var raw map[string]any
			So(json.Unmarshal(ev.Payload, &raw), ShouldBeNil)
			So(raw["action"], ShouldEqual, "add")
			So(raw["team"], ShouldEqual, "Alpha")
			So(raw["slot"], ShouldEqual, float64(1))
			So(raw["cost"], ShouldEqual, float64(45))
			So(raw["player"], ShouldResemble, map[string]any{"id": float64(3), "name": "Derrick Henry", "position": "RB"})
		})

		Convey("Then IDs are unique", func() {
			other := mustEvent(realtime.NewDraftStatusEvent("c1", at, true))
			So(ev.ID, ShouldNotBeEmpty)
			So(other.ID, ShouldNotEqual, ev.ID)
		})
	})

	Convey("Given a score event", t, func() {
		ev := mustEvent(realtime.NewPlayerScoreEvent("c1", at, realtime.ScoreUpdateFrom(model.PlayerScore{
			PlayerID: 9, Round: model.Divisional, Score: 12, Data: model.NewScoreData("pat", "3"),
		}, "Harrison Butker")))

		Convey("Then the round travels by name and the flags are present", func() {
			var raw map[string]any
			So(json.Unmarshal(ev.Payload, &raw), ShouldBeNil)
			So(raw["round"], ShouldEqual, "divisional")
			So(raw["playerName"], ShouldEqual, "Harrison Butker")
			So(raw["isDeleted"], ShouldEqual, false)
			So(raw["isDisabled"], ShouldEqual, false)
			So(raw["statusReason"], ShouldEqual, "")
			So(raw["scoreData"], ShouldResemble, map[string]any{"pat": "3"})
			_, hasType := raw["type"]
			So(hasType, ShouldBeFalse)
		})
	})

	Convey("Given a rules reload event", t, func() {
		ev := mustEvent(realtime.NewRulesReloadEvent("", at, model.QB))
		var raw map[string]any
		So(json.Unmarshal(ev.Payload, &raw), ShouldBeNil)
		So(raw["type"], ShouldEqual, realtime.ScoringRulesUpdate)
		So(raw["position"], ShouldEqual, "QB")
	})
}

func TestReplica(t *testing.T) {
	ctx := context.Background()

	Convey("Given a replica of client c2", t, func() {
		r := realtime.NewReplica("c2", seed())
		pick := mustEvent(realtime.NewDraftPickEvent("c1", at, realtime.DraftPickUpdate{
			Action: realtime.ActionAdd, Team: "Alpha", Slot: 1,
			Player: &realtime.PlayerRef{ID: 1, Name: "Patrick Mahomes", Position: model.QB},
			Cost:   intp(50),
		}))

		Convey("When the same pick event arrives twice", func() {
			So(r.Apply(ctx, pick), ShouldBeNil)
			So(r.Apply(ctx, pick), ShouldBeNil)

			Convey("Then it is applied once", func() {
				So(r.Applied(), ShouldEqual, 1)
				So(r.Picks(), ShouldHaveLength, 1)
			})
		})

		Convey("When two distinct events write the same cell", func() {
			So(r.Apply(ctx, pick), ShouldBeNil)
			later := mustEvent(realtime.NewDraftPickEvent("c3", at.Add(time.Second), realtime.DraftPickUpdate{
				Action: realtime.ActionUpdate, Team: "Alpha", Slot: 1,
				Player: &realtime.PlayerRef{ID: 2, Name: "Josh Allen", Position: model.QB},
				Cost:   intp(40),
			}))
			So(r.Apply(ctx, later), ShouldBeNil)

			Convey("Then the last write wins", func() {
				pk, ok := r.PickAt("Alpha", 1)
				So(ok, ShouldBeTrue)
				So(pk.PlayerID, ShouldEqual, 2)
				So(pk.Cost, ShouldEqual, 40)
			})
		})

		Convey("When a pick is removed and the budget reconciled", func() {
			So(r.Apply(ctx, pick), ShouldBeNil)
			remove := mustEvent(realtime.NewDraftPickEvent("c1", at, realtime.DraftPickUpdate{Action: realtime.ActionRemove, Team: "Alpha", Slot: 1}))
			budget := mustEvent(realtime.NewTeamEvent("c1", at, realtime.TeamUpdate{
				Action: realtime.ActionUpdate,
				Team:   &model.Team{Name: "Alpha", Budget: 200, OriginalBudget: 200},
			}))
			So(r.Apply(ctx, remove), ShouldBeNil)
			So(r.Apply(ctx, budget), ShouldBeNil)

			Convey("Then the cell is empty and the budget authoritative", func() {
				_, ok := r.PickAt("Alpha", 1)
				So(ok, ShouldBeFalse)
				team, _ := r.Team("Alpha")
				So(team.Budget, ShouldEqual, 200)
			})
		})

		Convey("When scores are upserted then deleted", func() {
			save := mustEvent(realtime.NewPlayerScoreEvent("c1", at, realtime.ScoreUpdateFrom(model.PlayerScore{PlayerID: 1, Round: model.WildCard, Score: 23}, "Patrick Mahomes")))
			del := mustEvent(realtime.NewPlayerScoreEvent("c1", at, realtime.ScoreDeletedFrom(1, model.WildCard, "Patrick Mahomes")))
			So(r.Apply(ctx, save), ShouldBeNil)
			got, ok := r.Score(1, model.WildCard)
			So(ok, ShouldBeTrue)
			So(got.Score, ShouldEqual, 23)

			So(r.Apply(ctx, del), ShouldBeNil)
			_, ok = r.Score(1, model.WildCard)
			So(ok, ShouldBeFalse)
		})

		Convey("When a rules reload arrives", func() {
			So(r.Apply(ctx, mustEvent(realtime.NewRulesReloadEvent("", at, model.K))), ShouldBeNil)
			So(r.Apply(ctx, mustEvent(realtime.NewRulesReloadEvent("", at, model.QB))), ShouldBeNil)

			Convey("Then the positions are pending until the next load", func() {
				So(r.PendingReloads(), ShouldResemble, []model.Position{model.K, model.QB})
				r.Load(seed())
				So(r.PendingReloads(), ShouldBeEmpty)
			})
		})

		Convey("When teams change", func() {
			So(r.Apply(ctx, mustEvent(realtime.NewTeamEvent("c1", at, realtime.TeamUpdate{Action: realtime.ActionUpdateAllBudgets, Budget: intp(300)}))), ShouldBeNil)
			So(r.Apply(ctx, mustEvent(realtime.NewTeamEvent("c1", at, realtime.TeamUpdate{Action: realtime.ActionDelete, TeamName: "Bravo"}))), ShouldBeNil)
			So(r.Apply(ctx, mustEvent(realtime.NewDraftStatusEvent("c1", at, true))), ShouldBeNil)

			Convey("Then the view follows", func() {
				teams := r.Teams()
				So(teams, ShouldHaveLength, 1)
				So(teams[0].Budget, ShouldEqual, 300)
				So(teams[0].OriginalBudget, ShouldEqual, 300)
				So(r.Finished(), ShouldBeTrue)
			})
		})

		Convey("When a drafting team is renamed", func() {
			So(r.Apply(ctx, pick), ShouldBeNil)
			rename := mustEvent(realtime.NewTeamEvent("c1", at, realtime.TeamUpdate{
				Action: realtime.ActionUpdate, TeamName: "Alpha",
				Team: &model.Team{Name: "Aces", Budget: 150, OriginalBudget: 200},
			}))
			So(r.Apply(ctx, rename), ShouldBeNil)

			Convey("Then its picks move with it", func() {
				_, old := r.Team("Alpha")
				So(old, ShouldBeFalse)
				pk, ok := r.PickAt("Aces", 1)
				So(ok, ShouldBeTrue)
				So(pk.PlayerID, ShouldEqual, 1)
			})
		})

		Convey("When an event is malformed", func() {
			bad := realtime.Event{ID: "bad-1", Type: realtime.TypeTeam, Payload: json.RawMessage(`{"action":"explode"}`)}
			err := r.Apply(ctx, bad)

			Convey("Then it is rejected and may be retried", func() {
				So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
				So(errors.Is(r.Apply(ctx, bad), errs.ErrValidation), ShouldBeTrue)
				So(r.Applied(), ShouldEqual, 0)
			})
		})

		Convey("When the payload is not JSON", func() {
			err := r.Apply(ctx, realtime.Event{ID: "x", Type: realtime.TypeDraftPick, Payload: json.RawMessage(`nope`)})
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})
	})
}

func TestLog(t *testing.T) {
	ctx := context.Background()

	Convey("Given a log of draft activity", t, func() {
		log := realtime.NewLog(0)
		for slot, id := range []int{1, 3, 5} {
			log.Append(mustEvent(realtime.NewDraftPickEvent("c1", at, realtime.DraftPickUpdate{
				Action: realtime.ActionAdd, Team: "Alpha", Slot: slot + 1,
				Player: &realtime.PlayerRef{ID: id, Name: "p", Position: model.RB},
				Cost:   intp(10),
			})))
		}
		log.Append(mustEvent(realtime.NewDraftPickEvent("c2", at, realtime.DraftPickUpdate{Action: realtime.ActionRemove, Team: "Alpha", Slot: 2})))

		Convey("Then replay is deterministic and idempotent", func() {
			a := realtime.NewReplica("viewer", seed())
			b := realtime.NewReplica("viewer", seed())
			So(log.Replay(ctx, a), ShouldBeNil)
			So(log.Replay(ctx, b), ShouldBeNil)
			So(log.Replay(ctx, b), ShouldBeNil)
			So(a.Picks(), ShouldResemble, b.Picks())
			So(a.Picks(), ShouldHaveLength, 2)
		})

		Convey("Then the origin does not receive its own events", func() {
			c2 := realtime.NewReplica("c2", seed())
			So(log.Replay(ctx, c2), ShouldBeNil)
			So(c2.Picks(), ShouldHaveLength, 3)
		})

		Convey("Then Since returns the tail", func() {
			tail, complete := log.Since(2)
			So(complete, ShouldBeTrue)
			So(tail, ShouldHaveLength, 2)
			So(tail[0].Seq, ShouldEqual, 3)
			So(log.Last(), ShouldEqual, 4)
			none, _ := log.Since(4)
			So(none, ShouldBeEmpty)
		})
	})

	Convey("Given a bounded log", t, func() {
		log := realtime.NewLog(2)
		for i := 0; i < 5; i++ {
			log.Append(mustEvent(realtime.NewDraftStatusEvent("", at, i%2 == 0)))
		}

		Convey("Then old entries are trimmed and reported as incomplete", func() {
			So(log.Len(), ShouldEqual, 2)
			So(log.Last(), ShouldEqual, 5)
			_, complete := log.Since(1)
			So(complete, ShouldBeFalse)
			tail, complete := log.Since(3)
			So(complete, ShouldBeTrue)
			So(tail, ShouldHaveLength, 2)
			So(tail[1].Seq, ShouldEqual, 5)
		})
	})
}
