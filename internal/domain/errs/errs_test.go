package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/okian/playoffdraft/internal/domain/errs"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifiedErrors(t *testing.T) {
	Convey("Given a classified conflict error", t, func() {
		err := errs.New("draft.pick", errs.ErrConflict, "player is no longer available")

		Convey("Then errors.Is matches its kind only", func() {
			So(errors.Is(err, errs.ErrConflict), ShouldBeTrue)
			So(errors.Is(err, errs.ErrState), ShouldBeFalse)
			So(errs.KindOf(err), ShouldEqual, errs.ErrConflict)
		})

		Convey("Then the message survives wrapping", func() {
			wrapped := fmt.Errorf("service: %w", err)
			So(errs.Message(wrapped), ShouldEqual, "player is no longer available")
			So(errs.KindOf(wrapped), ShouldEqual, errs.ErrConflict)
		})
	})

	Convey("Given an unauthenticated error", t, func() {
		err := errs.New("auth", errs.ErrUnauthenticated, "missing user")

		Convey("Then it is also an authorization error but reports the narrower kind", func() {
			So(errors.Is(err, errs.ErrAuthorization), ShouldBeTrue)
			So(errs.KindOf(err), ShouldEqual, errs.ErrUnauthenticated)
		})
	})

	Convey("Given a wrapped cause", t, func() {
		cause := errors.New("connection reset")
		err := errs.Wrap("store.commit", errs.ErrConflict, cause)

		Convey("Then both the cause and the kind are reachable", func() {
			So(errors.Is(err, cause), ShouldBeTrue)
			So(errors.Is(err, errs.ErrConflict), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "store.commit: connection reset")
		})

		Convey("And wrapping nil yields nil", func() {
			So(errs.Wrap("x", errs.ErrConflict, nil), ShouldBeNil)
		})
	})

	Convey("Given an unclassified error", t, func() {
		So(errs.KindOf(errors.New("plain")), ShouldBeNil)
		So(errs.KindOf(nil), ShouldBeNil)
	})
}
