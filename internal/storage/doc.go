// Package storage defines the persistence contracts for Dark Forge hosts.
//
// Records are plain values built from the rules core types. The core never
// calls into storage; hosts load a snapshot, resolve against it, and write
// the result back through a Commit.
//
// # Revisions
//
// Characters and clocks carry a revision that starts at 1 and increases on
// every write. Writes name the revision they were computed from and fail
// with ErrConflict when the stored record has moved on.
package storage
