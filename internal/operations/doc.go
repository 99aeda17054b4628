// Package operations contains the command implementations that sit on top of
// the storage backends: cat, cmp, remove, list and stat.
//
// Each operation is isolated into its own subpackage.
package operations
