package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/ssm-package/internal/cloud"
	"github.com/oshokin/ssm-package/internal/logger"
	"github.com/oshokin/ssm-package/internal/service/publisher"
	"github.com/oshokin/ssm-package/internal/version"
)

// publishFunc performs the publication described by the options.
type publishFunc func(ctx context.Context, options *publisher.Options) error

// Execute runs the ssm-publish CLI and exits with non-zero status on error.
func Execute() {
	root := newRootCommand(func(ctx context.Context, options *publisher.Options) error {
		_, err := publisher.Run(ctx, options)

		return err
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the command that creates or updates the SSM package document.
func newRootCommand(publish publishFunc) *cobra.Command {
	var (
		// noDefault keeps the current default version after an update.
		noDefault bool
		// manifestPath points at the manifest produced by ssm-manifest.
		manifestPath string
		// uploadDir holds the archives to upload before publishing.
		uploadDir string
		// profile is an optional AWS shared config profile.
		profile string
		// endpoint overrides the AWS service endpoints.
		endpoint string
		// logLevel is the minimum level written to stderr.
		logLevel string
	)

	root := &cobra.Command{
		Use:   "ssm-publish <package_name> <version> <s3_bucket> <region>",
		Short: "Publish a package manifest to SSM Distributor.",
		Long: `Creates the SSM Package document when it does not exist yet, or adds the release
version to it and promotes that version to default (unless --no-default).
A version that is already published is left untouched.

Credentials come from the default AWS chain: environment, shared config or instance role.`,
		Args:         cobra.ExactArgs(4),
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelName(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return publish(ctx, &publisher.Options{
				PackageName: args[0],
				Version:     args[1],
				Bucket:      args[2],
				Cloud: cloud.Settings{
					Region:   args[3],
					Profile:  profile,
					Endpoint: endpoint,
				},
				NoDefault:    noDefault,
				ManifestPath: manifestPath,
				UploadDir:    uploadDir,
				Stdout:       cmd.OutOrStdout(),
			})
		},
	}

	root.Flags().BoolVar(&noDefault, "no-default", false, "do not set default version")
	root.Flags().StringVarP(&manifestPath, "manifest", "m", publisher.DefaultManifestPath, "path to manifest.json")
	root.Flags().StringVar(&uploadDir, "upload-dir", "", "upload the archives listed in the manifest from this directory before publishing")
	root.Flags().StringVar(&profile, "profile", "", "AWS shared config profile")
	root.Flags().StringVar(&endpoint, "endpoint", "", "override the AWS endpoint URL (e.g. a local emulator)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")

	version.AttachCobraVersionCommand(root)

	return root
}
