// Package selector picks the most recent data file of a table from a partition walk.
package selector

import (
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/malbeclabs/jvlake/inspector/pkg/partition"
)

var (
	// ErrNoFiles means the walk produced no files at all.
	ErrNoFiles = errors.New("no files found")
	// ErrNoMatchingFiles means files exist but none carries the table token.
	ErrNoMatchingFiles = errors.New("no matching files found")
)

// Result describes a selection. Discovered and Matched are populated even when an error is
// returned.
type Result struct {
	Latest     partition.DataFileRef
	Discovered int
	Matched    int
}

// SelectLatest filters files whose name contains token and returns the one whose name sorts
// greatest byte-wise. File names are assumed to carry a sortable recency prefix. Equal names
// (the same file name in different partitions) are ordered by full path so the choice does not
// depend on discovery order.
func SelectLatest(files iter.Seq2[partition.DataFileRef, error], token string) (Result, error) {
	var res Result
	for ref, err := range files {
		if err != nil {
			return res, fmt.Errorf("failed to enumerate files: %w", err)
		}
		res.Discovered++
		if !strings.Contains(ref.Name, token) {
			continue
		}
		res.Matched++
		if res.Matched == 1 || newer(ref, res.Latest) {
			res.Latest = ref
		}
	}

	switch {
	case res.Discovered == 0:
		return res, ErrNoFiles
	case res.Matched == 0:
		return res, fmt.Errorf("%w for token %q among %d files", ErrNoMatchingFiles, token, res.Discovered)
	}
	return res, nil
}

func newer(a, b partition.DataFileRef) bool {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c > 0
	}
	return a.Path > b.Path
}
