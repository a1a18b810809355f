// =============================================================================
// DIMOB Converter - Version Command
// =============================================================================
//
// COMMAND USAGE:
//   dimob version [--short]
//
// Release builds stamp Version, Commit and BuildDate with ldflags:
//   -ldflags "-X github.com/ginjaninja78/CSV-to-DIMOB-conversion/cmd.Version=1.2.0"
//
// An unstamped binary reports what the toolchain recorded instead: the
// module version for `go install`, and the VCS revision and time for a
// build from a checkout. Unknown fields are left out of the output.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time using ldflags.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// buildInfo is the version data shown by the 'version' command.
type buildInfo struct {
	version  string
	commit   string
	date     string
	modified bool
	module   string
	goVer    string
	platform string
}

// currentBuild merges the ldflags values with the embedded build info.
func currentBuild() buildInfo {
	info := buildInfo{
		version:  Version,
		commit:   Commit,
		date:     BuildDate,
		goVer:    runtime.Version(),
		platform: runtime.GOOS + "/" + runtime.GOARCH,
	}

	embedded, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.module = embedded.Main.Path
	if info.version == "dev" && embedded.Main.Version != "" && embedded.Main.Version != "(devel)" {
		info.version = embedded.Main.Version
	}

	for _, setting := range embedded.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.commit == "" {
				info.commit = shortRevision(setting.Value)
			}
		case "vcs.time":
			if info.date == "" {
				info.date = setting.Value
			}
		case "vcs.modified":
			info.modified = setting.Value == "true"
		}
	}

	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// write prints the full report, one "key: value" line per known field.
func (b buildInfo) write(out io.Writer) {
	fmt.Fprintf(out, "dimob %s\n", b.version)

	if b.commit != "" {
		if b.modified {
			fmt.Fprintf(out, "  commit:  %s (modified)\n", b.commit)
		} else {
			fmt.Fprintf(out, "  commit:  %s\n", b.commit)
		}
	}
	if b.date != "" {
		fmt.Fprintf(out, "  built:   %s\n", b.date)
	}
	if b.module != "" {
		fmt.Fprintf(out, "  module:  %s\n", b.module)
	}
	fmt.Fprintf(out, "  go:      %s %s\n", b.goVer, b.platform)
}

// newVersionCmd builds the 'version' command.
func newVersionCmd() *cobra.Command {
	var short bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Display the application version",
		Args:  cobra.NoArgs,
		// The version must print even when the config file is broken.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			build := currentBuild()
			if short {
				fmt.Fprintln(cmd.OutOrStdout(), build.version)
				return
			}
			build.write(cmd.OutOrStdout())
		},
	}

	versionCmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return versionCmd
}
