package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/objsync"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

func (a *app) newLsCmd() *cobra.Command {
	var recursive bool

	cmd := &cobra.Command{
		Use:   "ls [s3-uri]",
		Short: "List buckets, or the objects under a prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			buckets := path == ""

			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				sum, err := c.List(ctx, path, recursive, func(obj objtypes.Object) error {
					printListEntry(a.stdout, obj, buckets)
					return nil
				})
				if err != nil {
					return err
				}
				printListSummary(a.stdout, sum, buckets)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "list every object instead of grouping by prefix")
	return cmd
}

func (a *app) newStatCmd() *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "stat <path>",
		Short: "Show metadata for a local path, an object or a bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				var opts []objtypes.StatOption
				if algorithm != "" {
					opts = append(opts, objsync.WithStatChecksum(strings.ToUpper(algorithm)))
				}
				info, err := c.Stat(ctx, args[0], opts...)
				if err != nil {
					return err
				}
				printObjectInfo(a.stdout, info)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&algorithm, "checksum-algorithm", "", "also report a CRC32, CRC32C, SHA1 or SHA256 checksum")
	return cmd
}

func (a *app) newDiffCmd() *cobra.Command {
	var (
		patterns       patternFlags
		compareContent bool
	)

	cmd := &cobra.Command{
		Use:   "diff <source> <destination>",
		Short: "Report keys that differ between two trees",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				res, err := c.Diff(ctx, args[0], args[1],
					objsync.WithCompareContent(compareContent),
					objsync.WithDiffInclude(patterns.include...),
					objsync.WithDiffExclude(patterns.exclude...),
				)
				if err != nil {
					return err
				}
				printDiffReport(a.stdout, args[0], args[1], res)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&compareContent, "compare-content", false, "compare digests when sizes match")
	patterns.register(cmd)
	return cmd
}

type rangeFlags struct {
	rng    string
	offset int64
	size   int64
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rng, "range", "", "byte range such as 0-1023 or bytes=100-")
	cmd.Flags().Int64Var(&f.offset, "offset", 0, "start reading at this byte offset")
	cmd.Flags().Int64Var(&f.size, "size", 0, "read at most this many bytes")
}

// options only forwards flags the user set, so --offset 0 and an absent
// --offset stay distinguishable.
func (f *rangeFlags) options(cmd *cobra.Command) []objtypes.RangeOption {
	var opts []objtypes.RangeOption
	if cmd.Flags().Changed("range") {
		opts = append(opts, objsync.WithRange(f.rng))
	}
	if cmd.Flags().Changed("offset") {
		opts = append(opts, objsync.WithOffset(f.offset))
	}
	if cmd.Flags().Changed("size") {
		opts = append(opts, objsync.WithLength(f.size))
	}
	return opts
}

func (a *app) newCatCmd() *cobra.Command {
	var flags rangeFlags

	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "Write a file or object, or a byte range of it, to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				n, err := c.Cat(ctx, args[0], a.stdout, flags.options(cmd)...)
				a.logger.Debug("cat finished", "path", args[0], "bytes", n)
				return err
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func (a *app) newCmpCmd() *cobra.Command {
	var flags rangeFlags

	cmd := &cobra.Command{
		Use:   "cmp <a> <b>",
		Short: "Compare two files or objects byte by byte",
		Long: `cmp exits 0 when the inputs are identical, 1 when they differ and 2 when
either side cannot be read.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := a.withClient(cmd, func(ctx context.Context, c *objsync.Client) error {
				res, err := c.Cmp(ctx, args[0], args[1], flags.options(cmd)...)
				if err != nil {
					return err
				}
				if res.Differ {
					printCmpResult(a.stderr, args[0], args[1], res)
					return &exitError{code: exitDiffer}
				}
				return nil
			})
			if err == nil {
				return nil
			}
			var exitErr *exitError
			if errors.As(err, &exitErr) {
				return err
			}
			return &exitError{code: exitTrouble, err: err}
		},
	}

	flags.register(cmd)
	return cmd
}
