package thumbs

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/reelin-cli/reelin/filesystem"
	"github.com/reelin-cli/reelin/where"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPath(t *testing.T) {
	Convey("Path", t, func() {
		Convey("Reports absent for an unknown id", func() {
			So(Path("nope").IsAbsent(), ShouldBeTrue)
		})

		Convey("Finds a cached image", func() {
			target := filepath.Join(where.Thumbnails(), "abc.jpg")
			So(filesystem.API().WriteFile(target, []byte{0xff}, 0o644), ShouldBeNil)

			path, ok := Path("abc").Get()
			So(ok, ShouldBeTrue)
			So(path, ShouldEqual, target)

			Convey("Clear removes it", func() {
				So(Clear(), ShouldBeNil)
				So(Path("abc").IsAbsent(), ShouldBeTrue)
			})
		})
	})
}

func TestLastLine(t *testing.T) {
	Convey("lastLine", t, func() {
		So(lastLine(nil), ShouldEqual, "")
		So(lastLine([]byte("one\n")), ShouldEqual, "one")
		So(lastLine([]byte("one\ntwo\n\n")), ShouldEqual, "two")
	})
}
