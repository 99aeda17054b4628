// Package comparator computes the metadata difference between two trees.
//
// Each side is collected into a map keyed by relative path. Keys are
// classified as present on one side only, differing in size, or differing in
// content when both sides carry a digest. Sizes are compared first; digests
// are only consulted for entries of equal size.
package comparator
