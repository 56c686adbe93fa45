// Package cmd implements the command-line interface for reelin.
package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/AlecAivazis/survey/v2"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/reelin-cli/reelin/color"
	"github.com/reelin-cli/reelin/icon"
	"github.com/reelin-cli/reelin/key"
	"github.com/reelin-cli/reelin/library"
	"github.com/reelin-cli/reelin/player"
	"github.com/reelin-cli/reelin/store"
	"github.com/reelin-cli/reelin/style"
	"github.com/reelin-cli/reelin/util"
	"github.com/reelin-cli/reelin/where"
)

func init() {
	rootCmd.AddCommand(rootsCmd)
	rootsCmd.AddCommand(rootsAddCmd)
	rootsCmd.AddCommand(rootsListCmd)
	rootsCmd.AddCommand(rootsRemoveCmd)
	rootsCmd.AddCommand(rootsDepthCmd)

	rootsAddCmd.Flags().IntP("depth", "d", 0, "How many directory levels below the folder to scan (default from config)")
	rootsRemoveCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	rootsListCmd.SetOut(os.Stdout)
}

// withLibrary opens the store and hands a ready library to the command body.
func withLibrary(fn func(lib *library.Library)) {
	st, err := store.Open(where.Database())
	handleErr(err)
	defer func() {
		_ = st.Close()
	}()

	ctl := player.NewController()
	defer ctl.Close()

	lib := library.New(st, ctl, nil)
	defer lib.Close()

	fn(lib)
}

// rootsCmd is the parent command for managing mounted folders.
var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Manage the mounted library folders",
}

var rootsAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Mount a folder and scan it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		depth := lo.Must(cmd.Flags().GetInt("depth"))
		if !cmd.Flags().Changed("depth") {
			depth = viper.GetInt(key.LibraryScanDepth)
		}

		withLibrary(func(lib *library.Library) {
			root, err := lib.AddRoot(args[0], depth)
			handleErr(err)

			entries, err := lib.ScanAll()
			handleErr(err)

			fmt.Printf(
				"%s Mounted %s, library now holds %s\n",
				icon.Get(icon.Success),
				style.Fg(color.Purple)(root.Path),
				util.Quantify(len(entries), "entry", "entries"),
			)
		})
	},
}

var rootsListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List the mounted folders",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		withLibrary(func(lib *library.Library) {
			roots, err := lib.Roots()
			handleErr(err)

			if len(roots) == 0 {
				cmd.Println("no folders mounted")
				return
			}

			for _, root := range roots {
				cmd.Printf(
					"%s %s %s\n",
					icon.Get(icon.Folder),
					style.Bold(root.Path),
					style.Faint(fmt.Sprintf("depth %d", root.ScanDepth)),
				)
			}
		})
	},
}

var rootsRemoveCmd = &cobra.Command{
	Use:     "remove <path>",
	Short:   "Unmount a folder, forgetting every entry underneath it",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !lo.Must(cmd.Flags().GetBool("force")) {
			var confirmed bool
			handleErr(survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("Unmount %s and forget its entries?", args[0]),
				Default: false,
			}, &confirmed))

			if !confirmed {
				return
			}
		}

		withLibrary(func(lib *library.Library) {
			handleErr(lib.RemoveRoot(args[0]))
			fmt.Printf("%s Unmounted %s\n", icon.Get(icon.Success), args[0])
		})
	},
}

var rootsDepthCmd = &cobra.Command{
	Use:   "depth <path> <depth>",
	Short: "Change how deep a mounted folder is scanned",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		depth, err := strconv.Atoi(args[1])
		if err != nil {
			handleErr(fmt.Errorf("invalid depth: %s", args[1]))
		}

		withLibrary(func(lib *library.Library) {
			handleErr(lib.SetRootDepth(args[0], depth))

			entries, err := lib.ScanAll()
			handleErr(err)

			fmt.Printf(
				"%s Depth updated, library now holds %s\n",
				icon.Get(icon.Success),
				util.Quantify(len(entries), "entry", "entries"),
			)
		})
	},
}
