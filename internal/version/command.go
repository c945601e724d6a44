package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand attaches a `version` subcommand to the provided root command.
// With --short only the semantic version is printed.
func AttachCobraVersionCommand(root *cobra.Command) {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print the tool version, the commit it was built from, the build timestamp, the Go toolchain and the target platform.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line := Get(root.Name()).String()
			if short {
				line = Short()
			}

			_, err := fmt.Fprintln(cmd.OutOrStdout(), line)

			return err
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")
	root.AddCommand(cmd)
}
