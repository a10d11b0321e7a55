// Package runtime drives graph evaluation: one tick runs every node in order
// and contains per-node failures.
package runtime
