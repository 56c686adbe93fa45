package player

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// fakeIPCServer accepts connections on a unix socket and answers each
// request line with the reply produced by the handler.
func fakeIPCServer(t *testing.T, handler func(command []interface{}) string) string {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "ipc.sock")
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			go func(conn net.Conn) {
				defer conn.Close()

				scanner := bufio.NewScanner(conn)
				for scanner.Scan() {
					var req ipcRequest
					if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
						return
					}
					if _, err := conn.Write([]byte(handler(req.Command) + "\n")); err != nil {
						return
					}
				}
			}(conn)
		}
	}()

	return socketPath
}

func TestRoundTrip(t *testing.T) {
	Convey("roundTrip", t, func() {
		Convey("Returns the data field of a well-formed response", func() {
			socketPath := fakeIPCServer(t, func(command []interface{}) string {
				return `{"data":42.5,"error":"success"}`
			})

			data, err := roundTrip(socketPath, []interface{}{"get_property", "duration"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, 42.5)
		})

		Convey("Surfaces an mpv-level error", func() {
			socketPath := fakeIPCServer(t, func(command []interface{}) string {
				return `{"error":"property unavailable"}`
			})

			_, err := roundTrip(socketPath, []interface{}{"get_property", "time-pos"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "property unavailable")
		})

		Convey("Fails cleanly on a malformed response", func() {
			socketPath := fakeIPCServer(t, func(command []interface{}) string {
				return `this is not json`
			})

			_, err := roundTrip(socketPath, []interface{}{"get_property", "pause"})
			So(err, ShouldNotBeNil)
		})

		Convey("Skips broadcast event lines preceding the response", func() {
			socketPath := fakeIPCServer(t, func(command []interface{}) string {
				return `{"event":"playback-restart"}` + "\n" + `{"data":true,"error":"success"}`
			})

			data, err := roundTrip(socketPath, []interface{}{"get_property", "pause"})
			So(err, ShouldBeNil)
			So(data, ShouldEqual, true)
		})

		Convey("Fails when no server listens", func() {
			_, err := roundTrip(filepath.Join(t.TempDir(), "absent.sock"), []interface{}{"quit"})
			So(err, ShouldNotBeNil)
		})
	})
}
