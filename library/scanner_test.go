package library

import (
	"os"
	"testing"

	"github.com/reelin-cli/reelin/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func names(entries []Entry) []string {
	return lo.Map(entries, func(e Entry, _ int) string { return e.Name })
}

func touch(path string) {
	lo.Must(filesystem.API().Create(path)).Close()
}

func TestScan(t *testing.T) {
	Convey("Scan", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		fs := filesystem.API()
		lo.Must0(fs.MkdirAll("/lib/x/y", os.ModePerm))
		touch("/lib/a.mp4")
		touch("/lib/x/b.mkv")
		touch("/lib/x/y/c.mp4")
		touch("/lib/notes.txt")

		Convey("maxDepth=0 returns only files directly inside the root", func() {
			So(names(Scan("/lib", 0)), ShouldResemble, []string{"a"})
		})

		Convey("maxDepth=1 includes one directory level", func() {
			found := names(Scan("/lib", 1))
			So(found, ShouldHaveLength, 2)
			So(found, ShouldContain, "a")
			So(found, ShouldContain, "b")
		})

		Convey("maxDepth=2 includes all three", func() {
			So(names(Scan("/lib", 2)), ShouldHaveLength, 3)
		})

		Convey("Non-media files are ignored", func() {
			So(names(Scan("/lib", 2)), ShouldNotContain, "notes")
		})

		Convey("Nonexistent root yields an empty result", func() {
			So(Scan("/absent", 3), ShouldBeEmpty)
		})

		Convey("A root that is a regular file yields an empty result", func() {
			So(Scan("/lib/a.mp4", 3), ShouldBeEmpty)
		})

		Convey("Deny-listed directories never contribute entries", func() {
			lo.Must0(fs.MkdirAll("/lib/node_modules/deep", os.ModePerm))
			touch("/lib/node_modules/hidden.mp4")
			touch("/lib/node_modules/deep/hidden2.mkv")
			lo.Must0(fs.MkdirAll("/lib/.Trash", os.ModePerm))
			touch("/lib/.Trash/deleted.mp4")

			found := names(Scan("/lib", 5))
			So(found, ShouldNotContain, "hidden")
			So(found, ShouldNotContain, "hidden2")
			So(found, ShouldNotContain, "deleted")
		})

		Convey("Entries carry identity and location metadata", func() {
			entries := Scan("/lib", 0)
			So(entries, ShouldHaveLength, 1)
			So(entries[0].ID, ShouldNotBeEmpty)
			So(entries[0].Path, ShouldEqual, "/lib/a.mp4")
			So(entries[0].Folder, ShouldEqual, "/lib")
		})

		Convey("Sidecar thumbnails", func() {
			Convey("First matching extension wins, in probe order", func() {
				touch("/lib/a.png")
				touch("/lib/a.jpg")

				entries := Scan("/lib", 0)
				So(entries[0].ThumbPath.MustGet(), ShouldEqual, "/lib/a.jpg")
			})

			Convey("Absent sidecar leaves the thumbnail unset", func() {
				entries := Scan("/lib", 0)
				So(entries[0].ThumbPath.IsAbsent(), ShouldBeTrue)
			})
		})

		Convey("Depth is clamped to the application bound", func() {
			So(func() { Scan("/lib", 10_000) }, ShouldNotPanic)
			So(func() { Scan("/lib", -4) }, ShouldNotPanic)
			So(names(Scan("/lib", -4)), ShouldResemble, []string{"a"})
		})
	})
}
