// Package objsync moves data between the local filesystem and an S3
// compatible object store.
//
// A Client offers batch commands over locations written either as local
// paths or as s3://bucket/key URIs: single-object and recursive copy,
// one-way sync, tree diff, byte-range cat, byte-level cmp, and the
// remove, list, move and stat helpers that complete a command line tool.
//
// Every command runs sequentially: one page, one part, one object at a
// time. Large uploads switch to multipart above a configurable threshold.
//
// Example usage:
//
//	client, err := objsync.New(ctx, objsync.WithRegion("eu-west-1"))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	res, err := client.Sync(ctx, "./site", "s3://my-bucket/site/",
//	    objsync.WithSyncExclude("*.tmp"),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("transferred %d, skipped %d\n", res.FilesTransferred, res.FilesSkipped)
package objsync
