package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/objsync"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Exit codes. cmp follows cmp(1): 1 means the inputs differ, 2 means trouble.
const (
	exitOK      = 0
	exitFailure = 1
	exitDiffer  = 1
	exitTrouble = 2
)

// clientFactory builds the client for one command invocation.
type clientFactory func(ctx context.Context, opts ...objtypes.Option) (*objsync.Client, error)

func defaultClientFactory(ctx context.Context, opts ...objtypes.Option) (*objsync.Client, error) {
	return objsync.New(ctx, opts...)
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	debug       bool
	endpointURL string
	region      string
	profile     string
	noVerifySSL bool
	digestCache string
}

type app struct {
	stdout    io.Writer
	stderr    io.Writer
	global    globalOptions
	newClient clientFactory
	logger    *slog.Logger
}

// exitError carries a specific exit code. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory clientFactory) int {
	a := &app{
		stdout:    stdout,
		stderr:    stderr,
		newClient: factory,
		logger:    slog.New(slog.DiscardHandler),
	}

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		if exitErr.err != nil {
			fmt.Fprintf(stderr, "objsync: %v\n", exitErr.err)
		}
		return exitErr.code
	}

	fmt.Fprintf(stderr, "objsync: %v\n", err)
	return exitFailure
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "objsync",
		Short: "Move and compare data between local files and S3",
		Long: `objsync copies, syncs, diffs and inspects data across the local filesystem
and S3 compatible object stores. Locations are local paths or s3://bucket/key URIs.

Multipart settings are read from the [s3] section or the active profile section of
the AWS config file (AWS_CONFIG_FILE or ~/.aws/config):

  [s3]
  multipart_threshold = 64MB
  multipart_chunksize = 16MB`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			level := slog.LevelWarn
			if a.global.debug {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVar(&a.global.debug, "debug", false, "enable debug logging")
	flags.StringVar(&a.global.endpointURL, "endpoint-url", "", "override the S3 endpoint URL")
	flags.StringVar(&a.global.region, "region", "", "AWS region to use")
	flags.StringVar(&a.global.profile, "profile", "", "AWS profile from the shared config files")
	flags.BoolVar(&a.global.noVerifySSL, "no-verify-ssl", false, "disable TLS certificate verification")
	flags.StringVar(&a.global.digestCache, "digest-cache", "", "persist local file digests in this database")

	root.AddCommand(
		a.newCpCmd(),
		a.newMvCmd(),
		a.newSyncCmd(),
		a.newRmCmd(),
		a.newLsCmd(),
		a.newStatCmd(),
		a.newDiffCmd(),
		a.newCatCmd(),
		a.newCmpCmd(),
	)
	return root
}

// client builds a client from the global flags and the AWS config file.
func (a *app) client(ctx context.Context) (*objsync.Client, error) {
	profile := a.global.profile
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}

	settings := loadMultipartSettings(configFilePath(), profile, a.logger)
	a.logger.Debug("multipart settings",
		"threshold", settings.Threshold,
		"chunksize", settings.ChunkSize)

	opts := []objtypes.Option{
		objsync.WithLogger(a.logger),
		objsync.WithMultipartThreshold(settings.Threshold),
		objsync.WithMultipartChunkSize(settings.ChunkSize),
	}
	if a.global.region != "" {
		opts = append(opts, objsync.WithRegion(a.global.region))
	}
	if profile != "" {
		opts = append(opts, objsync.WithProfile(profile))
	}
	endpoint := a.global.endpointURL
	if endpoint == "" {
		endpoint = os.Getenv("AWS_ENDPOINT_URL")
	}
	if endpoint != "" {
		opts = append(opts, objsync.WithEndpoint(endpoint))
	}
	if a.global.noVerifySSL {
		opts = append(opts, objsync.WithInsecureSkipVerify(true))
	}
	if a.global.digestCache != "" {
		opts = append(opts, objsync.WithDigestCache(a.global.digestCache))
	}

	return a.newClient(ctx, opts...)
}

// withClient runs fn with a client and closes it afterwards.
func (a *app) withClient(cmd *cobra.Command, fn func(ctx context.Context, c *objsync.Client) error) error {
	ctx := cmd.Context()
	c, err := a.client(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close client", "error", err)
		}
	}()
	return fn(ctx, c)
}
