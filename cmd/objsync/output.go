package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

const listTimeLayout = "2006-01-02 15:04:05"

func printTransfers(w io.Writer, verb string, transfers []objtypes.TransferResult) {
	for _, t := range transfers {
		fmt.Fprintf(w, "%s: %s -> %s (%s)\n", verb, t.Source, t.Destination, humanize.IBytes(uint64(t.Bytes)))
	}
}

func printCopySummary(w io.Writer, verb string, res *objtypes.CopyResult) {
	fmt.Fprintf(w, "%s %d %s, %s in %s\n",
		verb,
		len(res.Transfers),
		plural(len(res.Transfers), "object", "objects"),
		humanize.IBytes(uint64(res.Bytes)),
		res.Duration.Round(time.Millisecond))
	if res.Removed > 0 {
		fmt.Fprintf(w, "Removed %d source %s\n", res.Removed, plural(res.Removed, "object", "objects"))
	}
}

func printSyncResult(w io.Writer, res *objtypes.SyncResult) {
	for _, op := range res.Operations {
		if op.Type != objtypes.SyncTransfer {
			continue
		}
		if res.DryRun {
			fmt.Fprintf(w, "(dryrun) transfer: %s -> %s\n", op.Source, op.Destination)
			continue
		}
		fmt.Fprintf(w, "transfer: %s -> %s\n", op.Source, op.Destination)
	}

	if res.DryRun {
		pending := 0
		for _, op := range res.Operations {
			if op.Type == objtypes.SyncTransfer {
				pending++
			}
		}
		fmt.Fprintf(w, "Dry run: %d to transfer, %d skipped (unchanged)\n", pending, res.FilesSkipped)
		return
	}
	fmt.Fprintf(w, "Sync complete: %d transferred, %d skipped (unchanged), %s\n",
		res.FilesTransferred, res.FilesSkipped, humanize.IBytes(uint64(res.BytesTransferred)))
}

func printListEntry(w io.Writer, obj objtypes.Object, buckets bool) {
	switch {
	case buckets:
		fmt.Fprintf(w, "%s %s\n", obj.LastModified.Local().Format(listTimeLayout), obj.Key)
	case obj.IsPrefix:
		fmt.Fprintf(w, "%19s %12s %s\n", "", "PRE", obj.Key)
	default:
		fmt.Fprintf(w, "%s %12d %s\n", obj.LastModified.Local().Format(listTimeLayout), obj.Size, obj.Key)
	}
}

func printListSummary(w io.Writer, sum *objtypes.ListSummary, buckets bool) {
	if buckets {
		fmt.Fprintf(w, "\nTotal buckets: %d\n", sum.Buckets)
		return
	}
	fmt.Fprintf(w, "\nTotal objects: %d\n   Total size: %s (%d bytes)\n",
		sum.Objects, humanize.IBytes(uint64(sum.Bytes)), sum.Bytes)
}

func printObjectInfo(w io.Writer, info *objtypes.ObjectInfo) {
	fmt.Fprintf(w, "%-10s: %s\n", "Location", info.Location)
	fmt.Fprintf(w, "%-10s: %s\n", "Type", info.FileType())

	if info.IsBucket {
		fmt.Fprintf(w, "%-10s: %s\n", "Region", info.Region)
		return
	}

	fmt.Fprintf(w, "%-10s: %d (%s)\n", "Size", info.Size, humanize.IBytes(uint64(info.Size)))
	if !info.LastModified.IsZero() {
		fmt.Fprintf(w, "%-10s: %s (%s)\n", "Modified",
			info.LastModified.Format(time.RFC3339), humanize.Time(info.LastModified))
	}
	if info.Mode != 0 {
		fmt.Fprintf(w, "%-10s: %s\n", "Mode", info.Mode)
	}
	if info.ETag != "" {
		fmt.Fprintf(w, "%-10s: %s\n", "ETag", info.ETag)
	}
	if info.ContentType != "" {
		fmt.Fprintf(w, "%-10s: %s\n", "Content", info.ContentType)
	}
	if info.StorageClass != "" {
		fmt.Fprintf(w, "%-10s: %s\n", "Storage", info.StorageClass)
	}
	for _, alg := range sortedKeys(info.Checksums) {
		fmt.Fprintf(w, "%-10s: %s\n", alg, info.Checksums[alg])
	}
	if len(info.Metadata) > 0 {
		fmt.Fprintf(w, "%-10s:\n", "Metadata")
		for _, k := range sortedKeys(info.Metadata) {
			fmt.Fprintf(w, "  %s: %s\n", k, info.Metadata[k])
		}
	}
}

var diffSections = []struct {
	kind   objtypes.DifferenceKind
	title  string
	marker string
}{
	{objtypes.OnlyInSource, "Only in source", "+"},
	{objtypes.OnlyInDest, "Only in destination", "-"},
	{objtypes.SizeDiffers, "Size differs", "≠"},
	{objtypes.ContentDiffers, "Content differs", "≠"},
}

func printDiffReport(w io.Writer, src, dst string, res *objtypes.DiffResult) {
	if len(res.Differences) == 0 {
		fmt.Fprintf(w, "No differences found between:\n  Source: %s\n  Dest:   %s\n", src, dst)
		return
	}

	fmt.Fprintf(w, "Differences between:\n  Source: %s\n  Dest:   %s\n", src, dst)

	for _, section := range diffSections {
		var lines []string
		for _, d := range res.Differences {
			if d.Kind != section.kind {
				continue
			}
			line := fmt.Sprintf("  %s %s", section.marker, d.Key)
			if d.Kind == objtypes.SizeDiffers {
				line += fmt.Sprintf(" (%d vs %d bytes)", d.SourceSize, d.DestSize)
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s (%d %s):\n%s\n",
			section.title, len(lines), plural(len(lines), "file", "files"), strings.Join(lines, "\n"))
	}

	s := res.Summary
	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "  %-17s %d\n", "Only in source:", s.OnlyInSource)
	fmt.Fprintf(w, "  %-17s %d\n", "Only in dest:", s.OnlyInDest)
	fmt.Fprintf(w, "  %-17s %d\n", "Size differs:", s.SizeDiffers)
	fmt.Fprintf(w, "  %-17s %d\n", "Content differs:", s.ContentDiffers)
	fmt.Fprintf(w, "  %-17s %d\n", "Total:", s.Total)
}

// printCmpResult writes the cmp(1) style message. It writes nothing for
// identical inputs.
func printCmpResult(w io.Writer, a, b string, res *objtypes.CmpResult) {
	if !res.Differ {
		return
	}
	if res.EOF != "" {
		fmt.Fprintf(w, "cmp: EOF on %s\n", res.EOF)
		return
	}
	fmt.Fprintf(w, "%s %s differ: byte %d, line %d\n", a, b, res.Byte, res.Line)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
