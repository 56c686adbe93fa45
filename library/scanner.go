package library

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/reelin-cli/reelin/constant"
	"github.com/reelin-cli/reelin/filesystem"
	"github.com/reelin-cli/reelin/log"
	"github.com/reelin-cli/reelin/util"
	"github.com/samber/mo"
)

// mediaExtensions is the fixed allow-list of container formats treated
// as media during a scan.
var mediaExtensions = map[string]struct{}{
	".mp4": {}, ".m4v": {}, ".mov": {}, ".mkv": {}, ".avi": {},
	".wmv": {}, ".flv": {}, ".webm": {}, ".mpg": {}, ".mpeg": {},
	".ts": {}, ".3gp": {}, ".ogv": {},
	".mp3": {}, ".flac": {}, ".ogg": {}, ".wav": {},
}

// skipDirs is the fixed deny-list of non-content directory names that
// are never descended into.
var skipDirs = map[string]struct{}{
	".git": {}, ".svn": {}, "node_modules": {}, "__pycache__": {},
	".Trash": {}, ".Trashes": {}, ".Spotlight-V100": {}, ".fseventsd": {},
	"$RECYCLE.BIN": {}, "System Volume Information": {}, ".cache": {},
}

// sidecarExtensions is the fixed probe order for same-stem thumbnail
// images; the first match wins.
var sidecarExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Scan walks a mounted folder to the given depth and returns the flat
// list of discovered media entries. The root sits at depth 0 and a
// directory is descended into only while the current depth does not
// exceed maxDepth. A path that does not exist, is not a directory, or
// cannot be read yields an empty result; an unreadable subdirectory
// encountered mid-scan is skipped and the walk continues elsewhere.
func Scan(root string, maxDepth int) []Entry {
	maxDepth = util.Clamp(maxDepth, 0, constant.MaxScanDepth)

	info, err := filesystem.API().Stat(root)
	if err != nil || !info.IsDir() {
		return nil
	}

	var entries []Entry
	walk(root, 0, maxDepth, &entries)
	return entries
}

// walk processes one directory level.
func walk(dir string, depth, maxDepth int, entries *[]Entry) {
	listing, err := filesystem.API().ReadDir(dir)
	if err != nil {
		// Permission denied mid-scan skips this subtree only.
		log.Warnf("scan: skipping unreadable directory %s: %v", dir, err)
		return
	}

	for _, item := range listing {
		name := item.Name()
		path := filepath.Join(dir, name)

		if item.IsDir() {
			if _, denied := skipDirs[name]; denied {
				continue
			}
			if depth+1 <= maxDepth {
				walk(path, depth+1, maxDepth, entries)
			}
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if _, isMedia := mediaExtensions[ext]; !isMedia {
			continue
		}

		*entries = append(*entries, Entry{
			ID:        uuid.NewString(),
			Path:      path,
			Name:      util.FileStem(path),
			Folder:    dir,
			Size:      item.Size(),
			CreatedAt: time.Now(),
			ThumbPath: probeSidecar(path),
		})
	}
}

// probeSidecar looks for a same-folder, same-stem image across the
// fixed extension list, in order, and returns the first match.
func probeSidecar(mediaPath string) mo.Option[string] {
	stem := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))

	for _, ext := range sidecarExtensions {
		candidate := stem + ext
		if exists, err := filesystem.API().Exists(candidate); err == nil && exists {
			return mo.Some(candidate)
		}
	}
	return mo.None[string]()
}
