package player

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRoute(t *testing.T) {
	Convey("Route", t, func() {
		Convey("Every external-only extension routes external", func() {
			for _, ext := range externalOnly {
				So(Route("/library/movie"+ext), ShouldEqual, KindExternal)
			}
		})

		Convey("Extension casing does not matter", func() {
			So(Route("/library/MOVIE.MKV"), ShouldEqual, KindExternal)
			So(Route("/library/Track.Mp3"), ShouldEqual, KindNative)
		})

		Convey("Everything else routes native", func() {
			for _, path := range []string{
				"/library/track.mp3",
				"/library/track.flac",
				"/library/track.ogg",
				"/library/track.wav",
				"/library/unknown.xyz",
				"/library/noextension",
			} {
				So(Route(path), ShouldEqual, KindNative)
			}
		})

		Convey("Is deterministic", func() {
			first := Route("/a/b.webm")
			for i := 0; i < 10; i++ {
				So(Route("/a/b.webm"), ShouldEqual, first)
			}
		})
	})
}

func TestKindString(t *testing.T) {
	Convey("Kind.String", t, func() {
		So(KindNative.String(), ShouldEqual, "native")
		So(KindExternal.String(), ShouldEqual, "external")
		So(KindNone.String(), ShouldEqual, "none")
	})
}
