// Command objsync copies, syncs, compares and inspects data across the local
// filesystem and S3 compatible object stores.
package main

import (
	"context"
	"os"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, defaultClientFactory))
}
