package ws_test

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/playoffdraft/internal/adapters/http/ws"
	"github.com/okian/playoffdraft/internal/adapters/mq/broker"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.InitWithWriter(io.Discard)
}

type fixedState struct {
	st realtime.State
}

func (f fixedState) State(context.Context) (realtime.State, error) { return f.st, nil }

func statusEvent(origin string, finished bool) realtime.Event {
	ev, err := realtime.NewDraftStatusEvent(origin, time.Unix(1700000000, 0), finished)
	if err != nil {
		panic(err)
	}
	return ev
}

func dial(srv *httptest.Server, query string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	So(err, ShouldBeNil)
	return conn
}

func read(conn *websocket.Conn) ws.Frame {
	var f ws.Frame
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	So(conn.ReadJSON(&f), ShouldBeNil)
	return f
}

// waitSubscribers blocks until the broker sees n subscriptions.
func waitSubscribers(b *broker.Broker, n int) {
	deadline := time.Now().Add(2 * time.Second)
	for b.Subscribers() != n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	So(b.Subscribers(), ShouldEqual, n)
}

func TestStream(t *testing.T) {
	ctx := context.Background()

	Convey("Given a stream over a broker", t, func() {
		b := broker.New()
		src := fixedState{st: realtime.State{TotalSlots: 6, Teams: []model.Team{{Name: "Alpha", Budget: 200, OriginalBudget: 200}}}}
		srv := httptest.NewServer(ws.NewHandler(b, src))
		defer srv.Close()
		defer b.Close()

		Convey("When a client connects without a position", func() {
			conn := dial(srv, "client=viewer")
			defer conn.Close()

			Convey("Then it first receives a snapshot", func() {
				f := read(conn)
				So(f.Kind, ShouldEqual, ws.KindSnapshot)
				So(f.State, ShouldNotBeNil)
				So(f.State.Teams, ShouldHaveLength, 1)
				So(f.Seq, ShouldEqual, 0)
			})

			Convey("Then live events follow, but not its own", func() {
				read(conn)
				waitSubscribers(b, 1)
				So(b.Publish(ctx, statusEvent("viewer", true)), ShouldBeNil)
				So(b.Publish(ctx, statusEvent("admin", true)), ShouldBeNil)

				f := read(conn)
				So(f.Kind, ShouldEqual, ws.KindEvent)
				So(f.Event.Origin, ShouldEqual, "admin")
				So(f.Seq, ShouldEqual, 2)
			})
		})

		Convey("When a client resumes from a known position", func() {
			So(b.Publish(ctx, statusEvent("admin", true)), ShouldBeNil)
			So(b.Publish(ctx, statusEvent("viewer", false)), ShouldBeNil)
			So(b.Publish(ctx, statusEvent("admin", false)), ShouldBeNil)

			conn := dial(srv, "client=viewer&since=1")
			defer conn.Close()

			Convey("Then only the missed events of others are replayed", func() {
				f := read(conn)
				So(f.Kind, ShouldEqual, ws.KindEvent)
				So(f.Seq, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a log that has trimmed old events", t, func() {
		log := realtime.NewLog(1)
		b := broker.New(broker.WithLog(log))
		srv := httptest.NewServer(ws.NewHandler(b, fixedState{}))
		defer srv.Close()
		defer b.Close()
		So(b.Publish(ctx, statusEvent("admin", true)), ShouldBeNil)
		So(b.Publish(ctx, statusEvent("admin", false)), ShouldBeNil)

		Convey("Then resuming from before the window falls back to a snapshot", func() {
			conn := dial(srv, "client=late&since=0")
			defer conn.Close()
			f := read(conn)
			So(f.Kind, ShouldEqual, ws.KindSnapshot)
			So(f.Seq, ShouldEqual, 2)
		})
	})

	Convey("Given a closed broker", t, func() {
		b := broker.New()
		So(b.Close(), ShouldBeNil)
		srv := httptest.NewServer(ws.NewHandler(b, fixedState{}))
		defer srv.Close()

		Convey("Then the connection is closed with try-again-later", func() {
			conn := dial(srv, "client=x")
			defer conn.Close()
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err := conn.ReadMessage()
			So(websocket.IsCloseError(err, websocket.CloseTryAgainLater), ShouldBeTrue)
		})
	})
}
