// Package cmd implements the command-line interface for reelin.
package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/reelin-cli/reelin/icon"
	"github.com/reelin-cli/reelin/library"
	"github.com/reelin-cli/reelin/player"
	"github.com/reelin-cli/reelin/store"
	"github.com/reelin-cli/reelin/thumbs"
	"github.com/reelin-cli/reelin/util"
	"github.com/reelin-cli/reelin/where"
)

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolP("thumbs", "t", false, "Extract missing thumbnails before returning")
}

// scanCmd walks every mounted folder and refreshes the library.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Rescan the mounted folders and refresh the library",
	Run: func(cmd *cobra.Command, args []string) {
		st, err := store.Open(where.Database())
		handleErr(err)
		defer func() {
			_ = st.Close()
		}()

		ctl := player.NewController()
		defer ctl.Close()

		lib := library.New(st, ctl, nil)
		defer lib.Close()

		fmt.Printf("%s Scanning...\r", icon.Get(icon.Progress))

		entries, err := lib.ScanAll()
		handleErr(err)

		fmt.Printf(
			"%s Found %s\n",
			icon.Get(icon.Success),
			util.Quantify(len(entries), "entry", "entries"),
		)

		if lo.Must(cmd.Flags().GetBool("thumbs")) {
			missing := lo.Filter(entries, func(e library.Entry, _ int) bool {
				return e.ThumbPath.IsAbsent()
			})
			fmt.Printf(
				"%s Extracting %s...\n",
				icon.Get(icon.Progress),
				util.Quantify(len(missing), "thumbnail", "thumbnails"),
			)
			thumbs.Batch(missing)
		}
	},
}
