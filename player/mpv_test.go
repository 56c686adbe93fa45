package player

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/reelin-cli/reelin/where"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

// eventRecorder collects emitted events for assertions.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) byType(t EventType) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Event
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// propertyHandler answers get_property requests from a fixture map and
// reports "property unavailable" for everything absent.
func propertyHandler(properties map[string]interface{}) func(command []interface{}) string {
	return func(command []interface{}) string {
		if len(command) < 2 || command[0] != "get_property" {
			return `{"error":"success"}`
		}

		name, _ := command[1].(string)
		value, ok := properties[name]
		if !ok {
			return `{"error":"property unavailable"}`
		}

		payload, _ := json.Marshal(value)
		return fmt.Sprintf(`{"data":%s,"error":"success"}`, payload)
	}
}

func TestPollTick(t *testing.T) {
	Convey("pollTick", t, func() {
		recorder := &eventRecorder{}

		Convey("Normalizes every polled property into events", func() {
			socketPath := fakeIPCServer(t, propertyHandler(map[string]interface{}{
				"time-pos":    12.5,
				"duration":    100.0,
				"pause":       false,
				"volume":      50.0,
				"mute":        false,
				"speed":       1.5,
				"eof-reached": false,
			}))

			m := &MPV{emit: recorder.emit, socketPath: socketPath}
			m.pollTick()

			So(recorder.byType(EventTime)[0].Float, ShouldEqual, 12.5)
			So(recorder.byType(EventDuration)[0].Float, ShouldEqual, 100.0)
			So(recorder.byType(EventPlayState)[0].Bool, ShouldBeTrue)
			// mpv's 0-100 volume is normalized to 0-1
			So(recorder.byType(EventVolume)[0].Float, ShouldEqual, 0.5)
			So(recorder.byType(EventSpeed)[0].Float, ShouldEqual, 1.5)
			So(recorder.byType(EventEnd), ShouldBeEmpty)
		})

		Convey("A missing property yields no event and no panic", func() {
			socketPath := fakeIPCServer(t, propertyHandler(map[string]interface{}{
				"duration": 100.0,
			}))

			m := &MPV{emit: recorder.emit, socketPath: socketPath}
			m.pollTick()

			So(recorder.byType(EventTime), ShouldBeEmpty)
			So(recorder.byType(EventDuration), ShouldHaveLength, 1)
		})

		Convey("A dead channel yields no events at all", func() {
			m := &MPV{emit: recorder.emit, socketPath: "/nonexistent/ipc.sock"}
			m.pollTick()

			So(recorder.byType(EventTime), ShouldBeEmpty)
			So(recorder.byType(EventDuration), ShouldBeEmpty)
		})

		Convey("End of media fires once on the rising edge only", func() {
			socketPath := fakeIPCServer(t, propertyHandler(map[string]interface{}{
				"eof-reached": true,
			}))

			m := &MPV{emit: recorder.emit, socketPath: socketPath}
			m.pollTick()
			m.pollTick()

			So(recorder.byType(EventEnd), ShouldHaveLength, 1)
		})
	})
}

func TestSessionSocketPath(t *testing.T) {
	Convey("sessionSocketPath", t, func() {
		Convey("Places the socket inside the application temp directory", func() {
			socketPath := sessionSocketPath()

			So(strings.HasPrefix(socketPath, where.Temp()), ShouldBeTrue)
			So(strings.HasSuffix(socketPath, ".sock"), ShouldBeTrue)
		})
	})
}

func TestLaunchArgs(t *testing.T) {
	Convey("launchArgs", t, func() {
		m := NewMPV(func(Event) {})
		m.socketPath = "/tmp/session.sock"

		Convey("Point mpv's IPC server at the session socket", func() {
			args := m.launchArgs("/videos/clip.mp4")

			So(lo.Contains(args, "--input-ipc-server=/tmp/session.sock"), ShouldBeTrue)
			So(args[len(args)-1], ShouldEqual, "/videos/clip.mp4")
			So(lo.Contains(args, "--wid=0"), ShouldBeFalse)
		})

		Convey("Bind the video output to a host window when one is set", func() {
			m.BindWindow(42)

			So(lo.Contains(m.launchArgs("/videos/clip.mp4"), "--wid=42"), ShouldBeTrue)

			Convey("And detach again when it is cleared", func() {
				m.BindWindow(0)

				So(lo.Contains(m.launchArgs("/videos/clip.mp4"), "--wid=42"), ShouldBeFalse)
			})
		})
	})
}

func TestMPVStop(t *testing.T) {
	Convey("Stop", t, func() {
		recorder := &eventRecorder{}

		Convey("Is safe and idempotent when nothing was ever loaded", func() {
			m := NewMPV(recorder.emit)
			So(m.Stop(), ShouldBeNil)
			So(m.Stop(), ShouldBeNil)
		})

		Convey("Removes the socket artifact and clears the session address", func() {
			socketPath := fakeIPCServer(t, func(command []interface{}) string {
				return `{"error":"success"}`
			})

			m := NewMPV(recorder.emit)
			m.socketPath = socketPath
			m.phase = phaseActive
			// The reaper has nothing to wait for in this setup.
			close(m.exited)

			So(m.Stop(), ShouldBeNil)
			So(m.Socket(), ShouldBeEmpty)

			_, err := os.Stat(socketPath)
			So(os.IsNotExist(err), ShouldBeTrue)

			So(recorder.byType(EventPlayState)[0].Bool, ShouldBeFalse)
			So(recorder.byType(EventLoadState)[0].Bool, ShouldBeFalse)
		})
	})
}
