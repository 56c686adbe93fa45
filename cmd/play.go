// Package cmd implements the command-line interface for reelin.
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reelin-cli/reelin/filesystem"
	"github.com/reelin-cli/reelin/key"
	"github.com/reelin-cli/reelin/library"
	"github.com/reelin-cli/reelin/log"
	"github.com/reelin-cli/reelin/player"
	"github.com/reelin-cli/reelin/store"
	"github.com/reelin-cli/reelin/thumbs"
	"github.com/reelin-cli/reelin/util"
	"github.com/reelin-cli/reelin/where"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("query", "q", "", "Fuzzy-filter the library by title before playing")
	playCmd.Flags().BoolP("shuffle", "s", false, "Play the selection in shuffle order")
	playCmd.Flags().BoolP("loop", "l", false, "Wrap around at both ends of the selection")

	playCmd.Flags().BoolP("watch", "w", false, "Rescan mounted folders while playing when they change")
	lo.Must0(viper.BindPFlag(key.LibraryWatchFolders, playCmd.Flags().Lookup("watch")))
}

// playCmd starts an interactive playback session over a single file or
// over the (optionally filtered) library.
var playCmd = &cobra.Command{
	Use:   "play [path]",
	Short: "Play a file or the mounted library",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		st, err := store.Open(where.Database())
		handleErr(err)
		defer func() {
			_ = st.Close()
		}()

		ctl := player.NewController()
		defer ctl.Close()

		lib := library.New(st, ctl, thumbs.Batch)
		defer lib.Close()

		lib.SetLoop(lo.Must(cmd.Flags().GetBool("loop")))

		if len(args) == 1 {
			playFile(lib, args[0])
		} else {
			playLibrary(cmd, lib)
		}

		if viper.GetBool(key.LibraryWatchFolders) {
			stop, err := lib.Watch()
			if err != nil {
				log.Warnf("watching folders: %v", err)
			} else {
				defer stop()
			}
		}

		sess := &session{lib: lib, ctl: ctl}
		handleErr(sess.run())
	},
}

// playFile plays one file directly, without requiring it to be mounted.
func playFile(lib *library.Library, path string) {
	path, err := filepath.Abs(path)
	handleErr(err)

	info, err := filesystem.API().Stat(path)
	handleErr(err)

	entry := library.Entry{
		ID:     uuid.NewString(),
		Path:   path,
		Name:   util.FileStem(path),
		Folder: filepath.Dir(path),
		Size:   info.Size(),
	}

	lib.SetView([]library.Entry{entry})
	lib.Play(entry)
}

func playLibrary(cmd *cobra.Command, lib *library.Library) {
	query := lo.Must(cmd.Flags().GetString("query"))

	// The last scan snapshot answers instantly; fall back to the store
	// and finally to a fresh scan.
	entries, err := library.Snapshot()
	if err != nil || len(entries) == 0 {
		entries, err = lib.Entries()
		handleErr(err)
	}
	if len(entries) == 0 {
		entries, err = lib.ScanAll()
		handleErr(err)
	}
	if len(entries) == 0 {
		handleErr(errors.New("the library is empty, mount a folder with 'reelin roots add'"))
	}

	view := library.Filter(entries, query)
	if len(view) == 0 {
		handleErr(fmt.Errorf("nothing in the library matches %q", query))
	}

	lib.SetView(view)
	lib.SetShuffle(lo.Must(cmd.Flags().GetBool("shuffle")))

	lo.Must1(lib.Next())
}
