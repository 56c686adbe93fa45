// Package thumbs generates and caches one preview image per library
// entry by asking ffmpeg for a single frame a few seconds in.
package thumbs

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/mo"
	"github.com/spf13/viper"

	"github.com/reelin-cli/reelin/filesystem"
	"github.com/reelin-cli/reelin/key"
	"github.com/reelin-cli/reelin/library"
	"github.com/reelin-cli/reelin/log"
	"github.com/reelin-cli/reelin/where"
)

const ffmpegBin = "ffmpeg"

// frame offset into the video, in seconds
const frameOffset = "3"

// Available reports whether ffmpeg can be found, so callers may skip
// generation entirely instead of logging a miss per entry.
func Available() bool {
	_, err := exec.LookPath(ffmpegBin)
	return err == nil
}

// Path returns the cached thumbnail for the entry id, if one exists.
func Path(id string) mo.Option[string] {
	path := filepath.Join(where.Thumbnails(), id+".jpg")

	exists, err := filesystem.API().Exists(path)
	if err != nil || !exists {
		return mo.None[string]()
	}

	return mo.Some(path)
}

// Generate extracts a frame from the entry's video into the cache.
// An existing image is kept as is.
func Generate(entry library.Entry) error {
	if Path(entry.ID).IsPresent() {
		return nil
	}

	if !Available() {
		return fmt.Errorf("%s not found in PATH", ffmpegBin)
	}

	target := filepath.Join(where.Thumbnails(), entry.ID+".jpg")
	width := strconv.Itoa(viper.GetInt(key.ThumbsWidth))

	cmd := exec.Command(ffmpegBin,
		"-ss", frameOffset,
		"-i", entry.Path,
		"-frames:v", "1",
		"-vf", "scale="+width+":-1",
		"-q:v", "4",
		"-y",
		target,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		// a failed run may leave a zero-byte file behind
		_ = filesystem.API().Remove(target)
		return fmt.Errorf("%s: %w: %s", entry.Name, err, lastLine(output))
	}

	return nil
}

// Batch generates thumbnails for every entry, strictly one at a time.
// Failures are logged and skipped.
func Batch(entries []library.Entry) {
	if !Available() {
		log.Warnf("%s not found in PATH, skipping thumbnail generation", ffmpegBin)
		return
	}

	for _, entry := range entries {
		if err := Generate(entry); err != nil {
			log.Warnf("thumbnail for %s: %v", entry.Name, err)
		}
	}
}

// Clear removes every cached thumbnail.
func Clear() error {
	return filesystem.API().RemoveAll(where.Thumbnails())
}

func lastLine(output []byte) string {
	trimmed := strings.TrimSpace(string(output))
	if i := strings.LastIndexByte(trimmed, '\n'); i >= 0 {
		return strings.TrimSpace(trimmed[i+1:])
	}
	return trimmed
}
