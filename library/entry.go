// Package library implements media discovery and playback orchestration:
// the bounded folder scan engine, the shuffle/history playback order, and
// the state tying scan results, the metadata store, and the playback
// controller together.
package library

import (
	"time"

	"github.com/samber/mo"
)

// Entry is a discovered media file. Everything except the thumbnail
// path is immutable after discovery.
type Entry struct {
	// ID is an opaque identifier, stable across rescans of the same path.
	ID string `json:"id"`

	// Path is the absolute file path.
	Path string `json:"path"`

	// Name is the display name, derived from the file stem.
	Name string `json:"name"`

	// Folder is the absolute path of the containing directory.
	Folder string `json:"folder"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// CreatedAt is the discovery timestamp.
	CreatedAt time.Time `json:"created_at"`

	// ThumbPath points at a sidecar or extracted thumbnail, when one exists.
	ThumbPath mo.Option[string] `json:"thumb_path"`
}

// Root is a user-mounted folder tracked for scanning.
type Root struct {
	// ID is an opaque identifier.
	ID string `json:"id"`

	// Path is the absolute folder path.
	Path string `json:"path"`

	// Name is the display name.
	Name string `json:"name"`

	// ScanDepth bounds the recursive scan: 0 scans only files directly
	// inside the folder. Mutable after creation.
	ScanDepth int `json:"scan_depth"`

	// AddedAt is the mount timestamp.
	AddedAt time.Time `json:"added_at"`
}
