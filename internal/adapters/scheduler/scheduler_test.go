package scheduler_test

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/playoffdraft/internal/adapters/scheduler"
	"github.com/okian/playoffdraft/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type countingSweeper struct {
	runs atomic.Int32
	err  error
}

func (c *countingSweeper) RecalculateAll(ctx context.Context) (int, error) {
	c.runs.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep without deadline")
	}
	return 3, c.err
}

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

func TestScheduler(t *testing.T) {
	Convey("Given a sweeper", t, func() {
		sw := &countingSweeper{}

		Convey("When the schedule does not parse", func() {
			_, err := scheduler.New("every tuesday", sw)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, scheduler.ErrInvalidSchedule), ShouldBeTrue)
			})
		})

		Convey("When a sweep is run directly", func() {
			s, err := scheduler.New("@every 1h", sw, scheduler.WithTimeout(time.Second))
			So(err, ShouldBeNil)
			s.RunOnce(context.Background())

			Convey("Then the sweeper runs once under a deadline", func() {
				So(sw.runs.Load(), ShouldEqual, 1)
			})
		})

		Convey("When a failing sweeper runs", func() {
			sw.err = errors.New("db down")
			s, err := scheduler.New("*/5 * * * *", sw)
			So(err, ShouldBeNil)

			Convey("Then the failure is absorbed", func() {
				So(func() { s.RunOnce(context.Background()) }, ShouldNotPanic)
			})
		})

		Convey("When the schedule fires every second", func() {
			s, err := scheduler.New("@every 1s", sw)
			So(err, ShouldBeNil)
			s.Start(context.Background())
			So(s.Next().IsZero(), ShouldBeFalse)
			time.Sleep(1500 * time.Millisecond)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			So(s.Stop(ctx), ShouldBeNil)

			Convey("Then the sweep has run", func() {
				So(sw.runs.Load(), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}
