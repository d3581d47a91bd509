package partition

import (
	"context"
	"errors"
	"iter"
	"path"
	"strings"

	"github.com/malbeclabs/jvlake/inspector/pkg/store"
)

type WalkConfig struct {
	// Root is the directory holding the year=YYYY partitions.
	Root string
	Year int
	// Ext filters files by extension (e.g. ".parquet"), compared case-insensitively. Empty
	// accepts every file.
	Ext string
}

// Walk lazily yields every file at year/month/day depth under cfg.Root for cfg.Year, in
// discovery order. A missing year partition yields nothing. Directories that disappear while
// walking are skipped; any other listing error is yielded once and ends the walk.
func Walk(ctx context.Context, s store.Store, cfg WalkConfig) iter.Seq2[DataFileRef, error] {
	return func(yield func(DataFileRef, error) bool) {
		yearDir := path.Join(cfg.Root, YearDir(cfg.Year))
		months, err := s.ReadDir(ctx, yearDir)
		if err != nil {
			if !errors.Is(err, store.ErrNotExist) {
				yield(DataFileRef{}, err)
			}
			return
		}

		for _, month := range months {
			if !month.IsDir {
				continue
			}
			monthDir := path.Join(yearDir, month.Name)
			days, err := s.ReadDir(ctx, monthDir)
			if err != nil {
				if errors.Is(err, store.ErrNotExist) {
					continue
				}
				yield(DataFileRef{}, err)
				return
			}

			_, monthValue := ParseSegment(month.Name)
			for _, day := range days {
				if !day.IsDir {
					continue
				}
				dayDir := path.Join(monthDir, day.Name)
				files, err := s.ReadDir(ctx, dayDir)
				if err != nil {
					if errors.Is(err, store.ErrNotExist) {
						continue
					}
					yield(DataFileRef{}, err)
					return
				}

				_, dayValue := ParseSegment(day.Name)
				p := Path{Year: cfg.Year, Month: monthValue, Day: dayValue}
				for _, f := range files {
					if f.IsDir || !matchExt(f.Name, cfg.Ext) {
						continue
					}
					if !yield(newDataFileRef(dayDir, f.Name, p), nil) {
						return
					}
				}
			}
		}
	}
}

func matchExt(name, ext string) bool {
	if ext == "" {
		return true
	}
	return strings.EqualFold(path.Ext(name), ext)
}
