package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given a logger writing into a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWithWriter(&buf), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()
		ctx := context.Background()

		Convey("When logging an info record with fields", func() {
			Get().Info(ctx, "pick committed", String("team", "Bears"), Int("slot", 2), Bool("ok", true))

			Convey("Then the message, fields and source are written", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "pick committed")
				So(out, ShouldContainSubstring, "team=Bears")
				So(out, ShouldContainSubstring, "slot=2")
				So(out, ShouldContainSubstring, "source=")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging through a named child", func() {
			Named("draft").With(String("round", "wildcard")).Warn(ctx, "late score", Error(errors.New("boom")))

			Convey("Then the component and inherited fields appear", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "component=draft")
				So(out, ShouldContainSubstring, "round=wildcard")
				So(out, ShouldContainSubstring, "error=boom")
			})
		})

		Convey("When the level is raised to error", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Debug(ctx, "hidden too")

			Convey("Then lower records are dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
			})
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When setting an unknown level", func() {
			err := SetLevelString("verbose")

			Convey("Then an error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a nil writer", t, func() {
		So(InitWithWriter(nil), ShouldNotBeNil)
	})
}
