package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/objsync"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

type patternFlags struct {
	include []string
	exclude []string
}

func (p *patternFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&p.include, "include", nil, "only act on keys matching this glob (repeatable)")
	cmd.Flags().StringArrayVar(&p.exclude, "exclude", nil, "skip keys matching this glob (repeatable)")
}

type copyFlags struct {
	patternFlags
	recursive         bool
	checksumMode      string
	checksumAlgorithm string
}

func (f *copyFlags) options() []objtypes.CopyOption {
	opts := []objtypes.CopyOption{
		objsync.WithRecursive(f.recursive),
		objsync.WithCopyInclude(f.include...),
		objsync.WithCopyExclude(f.exclude...),
	}
	if f.checksumMode != "" || f.checksumAlgorithm != "" {
		opts = append(opts, objsync.WithChecksum(
			strings.ToUpper(f.checksumMode),
			strings.ToUpper(f.checksumAlgorithm)))
	}
	return opts
}

func (a *app) newCpCmd() *cobra.Command {
	var flags copyFlags

	cmd := &cobra.Command{
		Use:   "cp <source> <destination>",
		Short: "Copy files or objects between local paths and S3",
		Example: `  objsync cp ./report.csv s3://bucket/reports/
  objsync cp --recursive --exclude '*.tmp' ./build s3://bucket/build
  objsync cp --checksum-mode ENABLED --checksum-algorithm SHA256 ./a.bin s3://bucket/a.bin`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				res, err := c.Copy(ctx, args[0], args[1], flags.options()...)
				if res != nil {
					printTransfers(a.stdout, "copy", res.Transfers)
				}
				if err != nil {
					return err
				}
				if flags.recursive {
					printCopySummary(a.stdout, "Copied", res)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "copy every object under the source prefix or directory")
	cmd.Flags().StringVar(&flags.checksumMode, "checksum-mode", "", "set to ENABLED to verify uploads with a checksum")
	cmd.Flags().StringVar(&flags.checksumAlgorithm, "checksum-algorithm", "", "checksum algorithm: CRC32, CRC32C, SHA1 or SHA256")
	flags.register(cmd)
	return cmd
}

func (a *app) newMvCmd() *cobra.Command {
	var flags copyFlags

	cmd := &cobra.Command{
		Use:   "mv <source> <destination>",
		Short: "Copy then remove the S3 source",
		Long: `mv copies the source to the destination and then deletes the source objects.
Local sources are never deleted. Nothing is deleted when the copy fails.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				res, err := c.Move(ctx, args[0], args[1], flags.options()...)
				if res != nil {
					printTransfers(a.stdout, "move", res.Transfers)
				}
				if err != nil {
					return err
				}
				printCopySummary(a.stdout, "Moved", res)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "r", false, "move every object under the source prefix")
	flags.register(cmd)
	return cmd
}

func (a *app) newSyncCmd() *cobra.Command {
	var (
		patterns patternFlags
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "sync <source> <destination>",
		Short: "Copy objects that are missing or differ in size at the destination",
		Long: `sync walks the source and copies every entry whose destination is missing or
has a different size. Nothing is deleted from the destination.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				res, err := c.Sync(ctx, args[0], args[1],
					objsync.WithSyncDryRun(dryRun),
					objsync.WithSyncInclude(patterns.include...),
					objsync.WithSyncExclude(patterns.exclude...),
				)
				if err != nil {
					return err
				}
				printSyncResult(a.stdout, res)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dryrun", false, "show what would be transferred without copying")
	patterns.register(cmd)
	return cmd
}

func (a *app) newRmCmd() *cobra.Command {
	var (
		patterns  patternFlags
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "rm <s3-uri>",
		Short: "Delete an object, or every object under a prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				res, err := c.Remove(ctx, args[0],
					objsync.WithRemoveRecursive(recursive),
					objsync.WithRemoveInclude(patterns.include...),
					objsync.WithRemoveExclude(patterns.exclude...),
				)
				if res != nil {
					bucket := bucketOf(args[0])
					for _, key := range res.Keys {
						fmt.Fprintf(a.stdout, "delete: s3://%s/%s\n", bucket, key)
					}
				}
				if err != nil {
					return err
				}
				if recursive {
					fmt.Fprintf(a.stdout, "Deleted %d %s\n", res.Deleted, plural(res.Deleted, "object", "objects"))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete every object under the prefix")
	patterns.register(cmd)
	return cmd
}

// bucketOf extracts the bucket from an s3:// URI for display.
func bucketOf(uri string) string {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, _, _ := strings.Cut(rest, "/")
	return bucket
}
