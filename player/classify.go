package player

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// externalOnly is the fixed set of container extensions the in-process
// pipeline cannot decode. Membership routes a file to the external
// backend; everything else is handled natively.
var externalOnly = []string{
	".mkv", ".avi", ".wmv", ".flv", ".webm",
	".mp4", ".m4v", ".mov", ".mpg", ".mpeg", ".ts", ".3gp", ".ogv",
}

// Route classifies a file path by its lowercased extension and returns
// the backend kind that should own it. The decision is deterministic,
// performs no IO, and is consulted exactly once per load; backends only
// ever switch across loads, never mid-playback.
func Route(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))
	if lo.Contains(externalOnly, ext) {
		return KindExternal
	}
	return KindNative
}
