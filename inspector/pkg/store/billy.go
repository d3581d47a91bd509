package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// Billy is a Store backed by a go-billy filesystem.
type Billy struct {
	fs billy.Filesystem
}

func NewBilly(fs billy.Filesystem) *Billy {
	return &Billy{fs: fs}
}

// NewLocal returns a Store rooted at the given directory on the local disk.
func NewLocal(root string) *Billy {
	return NewBilly(osfs.New(root))
}

func (b *Billy) ReadDir(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := b.fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("billy: readdir %q: %w", dir, ErrNotExist)
		}
		return nil, fmt.Errorf("billy: readdir %q: %w", dir, err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:  info.Name(),
			IsDir: info.IsDir(),
			Size:  info.Size(),
		})
	}
	return entries, nil
}

func (b *Billy) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := util.ReadFile(b.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("billy: readfile %q: %w", path, ErrNotExist)
		}
		return nil, fmt.Errorf("billy: readfile %q: %w", path, err)
	}
	return data, nil
}
