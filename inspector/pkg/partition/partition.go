// Package partition enumerates data files in a year/month/day partitioned lake directory.
package partition

import (
	"fmt"
	"path"
	"strings"
)

const (
	KeyYear  = "year"
	KeyMonth = "month"
	KeyDay   = "day"
)

// Path identifies one day partition. Month and Day hold the partition value when the directory
// is named key=value, otherwise the raw directory name.
type Path struct {
	Year  int
	Month string
	Day   string
}

func (p Path) String() string {
	return fmt.Sprintf("%s=%d/%s=%s/%s=%s", KeyYear, p.Year, KeyMonth, p.Month, KeyDay, p.Day)
}

// YearDir returns the directory name of a year partition.
func YearDir(year int) string {
	return fmt.Sprintf("%s=%d", KeyYear, year)
}

// ParseSegment splits a partition directory name of the form key=value. Names without "=" are
// returned as a bare value with an empty key.
func ParseSegment(name string) (key, value string) {
	k, v, ok := strings.Cut(name, "=")
	if !ok {
		return "", name
	}
	return k, v
}

// DataFileRef is a data file discovered during a walk.
type DataFileRef struct {
	// Path is the location of the file within the store.
	Path string
	// Name is the base name of the file.
	Name string
	// Token is the table-name token, the file name without its extension.
	Token     string
	Partition Path
}

func newDataFileRef(dir, name string, p Path) DataFileRef {
	return DataFileRef{
		Path:      path.Join(dir, name),
		Name:      name,
		Token:     strings.TrimSuffix(name, path.Ext(name)),
		Partition: p,
	}
}
