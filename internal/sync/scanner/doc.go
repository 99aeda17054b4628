// Package scanner discovers the entries of a local directory tree or a remote
// key prefix and filters them with include/exclude glob patterns.
//
// Both roots yield the same Item shape so callers never branch on the
// location kind while walking.
package scanner
