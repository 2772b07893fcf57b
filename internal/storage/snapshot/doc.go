// Package snapshot implements the on-disk snapshot directory format.
//
// A snapshot root contains zero or more directories named
// backup_MMDDYYYY_HHMMSS (local time, zero-padded). Each directory holds
// one file per collection: <collection>.json with a canonical 2-space
// indented JSON array of documents, or <collection>.json.enc when
// at-rest encryption is configured.
//
// Snapshots are immutable once written: files are created via a temp
// file and an atomic rename, and nothing in this package ever rewrites
// an existing snapshot directory.
package snapshot
