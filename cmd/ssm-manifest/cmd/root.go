package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ssm-package/internal/config"
	"github.com/oshokin/ssm-package/internal/logger"
	"github.com/oshokin/ssm-package/internal/service/builder"
	"github.com/oshokin/ssm-package/internal/version"
)

// Execute runs the ssm-manifest CLI and exits with non-zero status on error.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the command that creates the SSM Distributor archives and manifest.
func newRootCommand() *cobra.Command {
	var (
		// layoutPath to an optional layout YAML file.
		layoutPath string
		// logLevel is the minimum level written to stderr.
		logLevel string
	)

	root := &cobra.Command{
		Use:   "ssm-manifest <version> [base_dir] [build_dir] [output_dir]",
		Short: "Build the SSM Distributor package manifest for a release.",
		Long: `Zips every built installer together with its install scripts and writes manifest.json.

For each platform key the installer is copied from build_dir into base_dir/<key>,
the directory is zipped flat into output_dir/<key>.zip and the archive is hashed
with SHA-256. Existing archives are reused and only re-hashed.
The manifest is printed on stdout and written to output_dir/manifest.json.

Defaults: base_dir=` + config.DefaultBaseDir + `, build_dir=` + config.DefaultBuildDir +
			`, output_dir=` + config.DefaultOutputDir + `.`,
		Args:         cobra.MaximumNArgs(4),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelName(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// No version: print usage and leave with a zero status.
			if len(args) == 0 {
				_, err := fmt.Fprint(cmd.OutOrStdout(), cmd.UsageString())
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			layout, err := config.Load(layoutPath)
			if err != nil {
				return err
			}

			_, err = builder.Run(ctx, buildOptions(args, layout, cmd.OutOrStdout()))

			return err
		},
	}

	root.PersistentFlags().StringVarP(&layoutPath, "config", "c", "", "path to a layout YAML file (built-in layout when empty)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newLayoutCommand(&layoutPath))
	version.AttachCobraVersionCommand(root)

	return root
}

// newLayoutCommand prints or saves the effective package layout.
func newLayoutCommand(layoutPath *string) *cobra.Command {
	var writePath string

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the package layout as YAML.",
		Long:  "Print the effective package layout (built-in or from --config) as YAML, or save it with --write to use as a starting point for a custom layout.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			layout, err := config.Load(*layoutPath)
			if err != nil {
				return err
			}

			if writePath != "" {
				return config.Save(writePath, layout)
			}

			data, err := config.Marshal(layout)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(data)

			return err
		},
	}

	cmd.Flags().StringVarP(&writePath, "write", "w", "", "save the layout to this file instead of printing it")

	return cmd
}

// buildOptions maps positional arguments onto builder options, falling back to the default directories.
func buildOptions(args []string, layout config.Layout, stdout io.Writer) *builder.Options {
	return &builder.Options{
		Version:   args[0],
		BaseDir:   argOrDefault(args, 1, config.DefaultBaseDir),
		BuildDir:  argOrDefault(args, 2, config.DefaultBuildDir),
		OutputDir: argOrDefault(args, 3, config.DefaultOutputDir),
		Layout:    layout,
		Stdout:    stdout,
	}
}

func argOrDefault(args []string, i int, fallback string) string {
	if len(args) > i && args[i] != "" {
		return args[i]
	}

	return fallback
}
