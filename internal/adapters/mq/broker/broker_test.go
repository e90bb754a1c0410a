package broker_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/okian/playoffdraft/internal/adapters/mq/broker"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

func statusEvent(origin string, finished bool) realtime.Event {
	ev, err := realtime.NewDraftStatusEvent(origin, time.Unix(1700000000, 0), finished)
	if err != nil {
		panic(err)
	}
	return ev
}

func TestBroker(t *testing.T) {
	ctx := context.Background()

	Convey("Given a broker with two subscribers", t, func() {
		b := broker.New(broker.WithBufferSize(2))
		defer b.Close()
		alice, err := b.Subscribe("alice")
		So(err, ShouldBeNil)
		bob, err := b.Subscribe("bob")
		So(err, ShouldBeNil)
		So(b.Subscribers(), ShouldEqual, 2)

		Convey("When alice publishes", func() {
			ev := statusEvent("alice", true)
			So(b.Publish(ctx, ev), ShouldBeNil)

			Convey("Then bob receives it and alice does not", func() {
				got := <-bob.Events()
				So(got.ID, ShouldEqual, ev.ID)
				So(got.Seq, ShouldEqual, 1)
				So(len(alice.Events()), ShouldEqual, 0)
			})

			Convey("Then the log keeps it for catch-up", func() {
				events, complete := b.Log().Since(0)
				So(complete, ShouldBeTrue)
				So(events, ShouldHaveLength, 1)
				So(b.Log().Last(), ShouldEqual, 1)
			})
		})

		Convey("When an event has no origin", func() {
			So(b.Publish(ctx, statusEvent("", false)), ShouldBeNil)

			Convey("Then everyone receives it", func() {
				So(len(alice.Events()), ShouldEqual, 1)
				So(len(bob.Events()), ShouldEqual, 1)
			})
		})

		Convey("When bob stops reading", func() {
			for i := 0; i < 5; i++ {
				So(b.Publish(ctx, statusEvent("alice", i%2 == 0)), ShouldBeNil)
			}

			Convey("Then publishing does not block and the overflow is counted", func() {
				So(len(bob.Events()), ShouldEqual, 2)
				So(bob.Dropped(), ShouldEqual, 3)
				So(bob.Stale(), ShouldBeTrue)
				So(bob.Stale(), ShouldBeFalse)
			})
		})

		Convey("When bob unsubscribes", func() {
			b.Unsubscribe(bob)
			b.Unsubscribe(bob)

			Convey("Then his channel closes", func() {
				_, open := <-bob.Events()
				So(open, ShouldBeFalse)
				So(b.Subscribers(), ShouldEqual, 1)
			})
		})

		Convey("When the broker closes", func() {
			So(b.Close(), ShouldBeNil)
			So(b.IsClosed(), ShouldBeTrue)

			Convey("Then publish and subscribe fail", func() {
				So(errors.Is(b.Publish(ctx, statusEvent("", true)), broker.ErrClosed), ShouldBeTrue)
				_, err := b.Subscribe("carol")
				So(errors.Is(err, broker.ErrClosed), ShouldBeTrue)
				_, open := <-alice.Events()
				So(open, ShouldBeFalse)
			})
		})

		Convey("When the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(errors.Is(b.Publish(cctx, statusEvent("", true)), context.Canceled), ShouldBeTrue)
		})
	})

	Convey("Given a shared log", t, func() {
		log := realtime.NewLog(1)
		b := broker.New(broker.WithLog(log))
		defer b.Close()
		So(b.Publish(ctx, statusEvent("", true)), ShouldBeNil)
		So(b.Publish(ctx, statusEvent("", false)), ShouldBeNil)

		Convey("Then the broker appends to it", func() {
			So(b.Log(), ShouldEqual, log)
			_, complete := log.Since(0)
			So(complete, ShouldBeFalse)
		})
	})
}
