package status_test

import (
	"errors"
	"testing"

	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/status"
	. "github.com/smartystreets/goconvey/convey"
)

func scored(id int, r model.Round, score int) model.PlayerScore {
	return model.PlayerScore{PlayerID: id, Round: r, Score: score, Data: model.NewScoreData("touchdowns", "1")}
}

func TestTransitions(t *testing.T) {
	Convey("Given an empty snapshot", t, func() {
		snap := status.NewSnapshot(nil)

		Convey("When a player is saved", func() {
			p, err := status.Save(snap, 7, model.WildCard, model.NewScoreData("touchdowns", "2"), 12)
			So(err, ShouldBeNil)
			next := snap.Apply(p)

			Convey("Then the record is Scored and the old snapshot is unchanged", func() {
				So(next.State(7, model.WildCard), ShouldEqual, status.Scored)
				So(snap.State(7, model.WildCard), ShouldEqual, status.Unscored)
				rec, _ := next.Get(7, model.WildCard)
				So(rec.Score, ShouldEqual, 12)
			})

			Convey("Then it cannot be disabled before clearing", func() {
				_, err := status.Disable(next, 7, model.WildCard, model.ReasonNone)
				So(errors.Is(err, errs.ErrState), ShouldBeTrue)
			})

			Convey("Then clearing removes the row", func() {
				p, err := status.Clear(next, 7, model.WildCard)
				So(err, ShouldBeNil)
				So(next.Apply(p).State(7, model.WildCard), ShouldEqual, status.Unscored)
			})

			Convey("Then reactivating a Scored player fails", func() {
				_, err := status.Reactivate(next, 7, model.WildCard)
				So(errors.Is(err, errs.ErrState), ShouldBeTrue)
			})
		})

		Convey("When a Wild Card player is disabled with a reason", func() {
			p, err := status.Disable(snap, 7, model.WildCard, model.ReasonEliminated)
			So(err, ShouldBeNil)

			Convey("Then only that round is touched and the reason is dropped", func() {
				So(len(p), ShouldEqual, 1)
				So(p[0].Record.Disabled, ShouldBeTrue)
				So(p[0].Record.Reason, ShouldEqual, model.ReasonNone)
			})
		})

		Convey("When a later round is disabled without a reason", func() {
			_, err := status.Disable(snap, 7, model.Conference, model.ReasonNone)
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})

		Convey("When a player is not playing in the Conference round", func() {
			p, err := status.Disable(snap, 7, model.Conference, model.ReasonNotPlaying)
			So(err, ShouldBeNil)
			next := snap.Apply(p)
			So(next.State(7, model.Conference), ShouldEqual, status.Disabled)
			So(next.State(7, model.Superbowl), ShouldEqual, status.Unscored)
		})

		Convey("When the round is unknown", func() {
			_, err := status.Save(snap, 7, model.Round(9), model.NewScoreData(), 0)
			So(errors.Is(err, errs.ErrValidation), ShouldBeTrue)
		})
	})

	Convey("Given a player eliminated in the Divisional round", t, func() {
		snap := status.NewSnapshot([]model.PlayerScore{
			scored(7, model.WildCard, 20),
			scored(7, model.Superbowl, 30),
		})
		p, err := status.Disable(snap, 7, model.Divisional, model.ReasonEliminated)
		So(err, ShouldBeNil)
		next := snap.Apply(p)

		Convey("Then Conference and Superbowl read disabled, eliminated, zero", func() {
			for _, r := range []model.Round{model.Divisional, model.Conference, model.Superbowl} {
				rec, ok := next.Get(7, r)
				So(ok, ShouldBeTrue)
				So(rec.Disabled, ShouldBeTrue)
				So(rec.Reason, ShouldEqual, model.ReasonEliminated)
				So(rec.Score, ShouldEqual, 0)
				So(rec.Data, ShouldBeNil)
			}
		})

		Convey("Then earlier rounds are untouched", func() {
			rec, _ := next.Get(7, model.WildCard)
			So(rec.Score, ShouldEqual, 20)
		})

		Convey("Then saving a disabled round fails", func() {
			_, err := status.Save(next, 7, model.Conference, model.NewScoreData(), 0)
			So(errors.Is(err, errs.ErrState), ShouldBeTrue)
		})

		Convey("Then reactivation deletes the row", func() {
			p, err := status.Reactivate(next, 7, model.Conference)
			So(err, ShouldBeNil)
			So(p[0].Kind, ShouldEqual, status.Delete)
			after := next.Apply(p)
			So(after.State(7, model.Conference), ShouldEqual, status.Unscored)

			Convey("And reactivating again is a no-op", func() {
				p, err := status.Reactivate(after, 7, model.Conference)
				So(err, ShouldBeNil)
				So(p.Empty(), ShouldBeTrue)
				So(after.Apply(p).Len(), ShouldEqual, after.Len())
			})
		})
	})
}

func TestAccessible(t *testing.T) {
	Convey("Given two drafted players", t, func() {
		drafted := []int{1, 2}

		Convey("Then with nothing stored only the Wild Card round opens", func() {
			got := status.Accessible(status.NewSnapshot(nil), drafted)
			So(got[model.WildCard], ShouldBeTrue)
			So(got[model.Divisional], ShouldBeFalse)
		})

		Convey("Then one Scored and one Disabled open the Divisional round", func() {
			snap := status.NewSnapshot([]model.PlayerScore{
				scored(1, model.WildCard, 10),
				{PlayerID: 2, Round: model.WildCard, Disabled: true},
			})
			got := status.Accessible(snap, drafted)
			So(got[model.Divisional], ShouldBeTrue)
			So(got[model.Conference], ShouldBeFalse)
		})

		Convey("Then a later round never opens past a closed one", func() {
			snap := status.NewSnapshot([]model.PlayerScore{
				scored(1, model.WildCard, 10),
				scored(1, model.Divisional, 10),
				scored(2, model.Divisional, 10),
			})
			got := status.Accessible(snap, drafted)
			So(got[model.Divisional], ShouldBeFalse)
			So(got[model.Conference], ShouldBeFalse)
		})
	})

	Convey("Given no drafted players", t, func() {
		got := status.Accessible(status.NewSnapshot(nil), nil)
		So(got[model.Superbowl], ShouldBeTrue)
	})
}
