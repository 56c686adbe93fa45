// Package cmd implements the command-line interface for reelin.
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/reelin-cli/reelin/color"
	"github.com/reelin-cli/reelin/icon"
	"github.com/reelin-cli/reelin/store"
	"github.com/reelin-cli/reelin/style"
	"github.com/reelin-cli/reelin/where"
)

func init() {
	for _, kind := range store.Kinds() {
		rootCmd.AddCommand(newAttributeCmd(kind))
	}
}

// withStore opens the store and hands it to the command body.
func withStore(fn func(st store.Store)) {
	st, err := store.Open(where.Database())
	handleErr(err)
	defer func() {
		_ = st.Close()
	}()

	fn(st)
}

// videoByPath resolves a library entry from its absolute file path.
func videoByPath(st store.Store, path string) store.Video {
	path, err := filepath.Abs(path)
	handleErr(err)

	videos, err := st.Videos()
	handleErr(err)

	video, found := lo.Find(videos, func(v store.Video) bool {
		return v.Path == path
	})
	if !found {
		handleErr(fmt.Errorf("%s is not in the library, scan first", path))
	}
	return video
}

// newAttributeCmd builds the identical add/rm/ls/assign/unassign
// command set for one attribute kind.
func newAttributeCmd(kind store.AttributeKind) *cobra.Command {
	parent := &cobra.Command{
		Use:   kind.String(),
		Short: fmt.Sprintf("Manage %s and their assignments", kind),
	}

	parent.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: fmt.Sprintf("Create a %s", kind.Singular()),
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withStore(func(st store.Store) {
				handleErr(st.AddAttribute(kind, args[0]))
				fmt.Printf("%s added %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(args[0]))
			})
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:     "rm <name>",
		Short:   fmt.Sprintf("Delete a %s and all its assignments", kind.Singular()),
		Aliases: []string{"remove"},
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withStore(func(st store.Store) {
				handleErr(st.RemoveAttribute(kind, args[0]))
				fmt.Printf("%s removed %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(args[0]))
			})
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:     "ls [video path]",
		Short:   fmt.Sprintf("List %s, or those assigned to a video", kind),
		Aliases: []string{"list"},
		Args:    cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			withStore(func(st store.Store) {
				var (
					attrs []store.Attribute
					err   error
				)

				if len(args) == 1 {
					attrs, err = st.VideoAttributes(kind, videoByPath(st, args[0]).ID)
				} else {
					attrs, err = st.Attributes(kind)
				}
				handleErr(err)

				for _, attr := range attrs {
					fmt.Println(attr.Name)
				}
			})
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "assign <name> <video path>",
		Short: fmt.Sprintf("Assign a %s to a video", kind.Singular()),
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			withStore(func(st store.Store) {
				video := videoByPath(st, args[1])
				handleErr(st.Assign(kind, video.ID, args[0]))
				fmt.Printf(
					"%s %s %s %s\n",
					icon.Get(icon.Success),
					style.Fg(color.Purple)(args[0]),
					style.Faint("->"),
					video.Name,
				)
			})
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "unassign <name> <video path>",
		Short: fmt.Sprintf("Detach a %s from a video", kind.Singular()),
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			withStore(func(st store.Store) {
				video := videoByPath(st, args[1])
				handleErr(st.Unassign(kind, video.ID, args[0]))
				fmt.Printf("%s detached %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(args[0]))
			})
		},
	})

	return parent
}
