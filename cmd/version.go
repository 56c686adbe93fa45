// Package cmd implements the command-line interface for reelin.
package cmd

import (
	"os"
	"runtime"
	"strings"
	"text/template"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/reelin-cli/reelin/color"
	"github.com/reelin-cli/reelin/constant"
	"github.com/reelin-cli/reelin/style"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.SetOut(os.Stdout)
	versionCmd.Flags().BoolP("short", "s", false, "Display only the version string without metadata")
}

// versionCmd displays application version and build metadata.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display exhaustive version and build metadata",
	Long:  "Display the current application version, build revision, platform architecture, and related metadata.",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		versionInfo := struct {
			Version  string
			OS       string
			Arch     string
			BuiltAt  string
			BuiltBy  string
			Revision string
			App      string
		}{
			Version:  constant.Version,
			App:      constant.Reelin,
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			BuiltAt:  strings.TrimSpace(constant.BuiltAt),
			BuiltBy:  constant.BuiltBy,
			Revision: constant.Revision,
		}

		t := lo.Must(template.New("version").Funcs(template.FuncMap{
			"faint":  style.Faint,
			"bold":   style.Bold,
			"purple": style.Fg(color.Purple),
			"green":  style.Fg(color.Green),
			"yellow": style.Fg(color.Yellow),
		}).Parse(`{{ bold (purple .App) }} {{ green (printf "v%s" .Version) }}
{{ faint "Platform:" }} {{ yellow (printf "%s/%s" .OS .Arch) }}
{{ faint "Revision:" }} {{ .Revision }}
{{ faint "Built at" }} {{ .BuiltAt }} {{ faint "by" }} {{ .BuiltBy }}
`))

		handleErr(t.Execute(cmd.OutOrStdout(), versionInfo))
	},
}
