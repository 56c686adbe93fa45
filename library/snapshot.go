package library

import (
	"github.com/metafates/gache"

	"github.com/reelin-cli/reelin/filesystem"
	"github.com/reelin-cli/reelin/where"
)

// snapshotCacher persists the result of the last completed scan, so a
// listing can render instantly before the store is consulted.
var snapshotCacher = gache.New[[]Entry](
	&gache.Options{
		Path:       where.ScanSnapshot(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Snapshot returns the entries recorded by the last completed scan.
func Snapshot() ([]Entry, error) {
	cached, expired, err := snapshotCacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return nil, nil
	}
	return cached, nil
}

// saveSnapshot replaces the recorded scan result.
func saveSnapshot(entries []Entry) error {
	return snapshotCacher.Set(entries)
}
