// Package store provides read-only access to the directory trees that hold lake partitions.
//
// Two backends are provided: a local (or in-memory) filesystem through go-billy, and an S3
// bucket where directories are modelled as "/"-delimited key prefixes.
package store

import (
	"context"
	"errors"
)

// ErrNotExist is returned when a directory or file is not present in the store.
var ErrNotExist = errors.New("does not exist")

// Entry is one item of a directory listing.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Store lists directories and reads files. Paths are "/"-separated and relative to the store root.
type Store interface {
	ReadDir(ctx context.Context, dir string) ([]Entry, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
}
