package media

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// imageExtensions are the file extensions accepted as disc images.
var imageExtensions = map[string]bool{
	"iso":   true,
	"img":   true,
	"image": true,
}

// IsImageFile reports whether path names a disc image by its extension.
func IsImageFile(path string) bool {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	return imageExtensions[strings.ToLower(ext)]
}

// FolderSize returns the total size of the regular files below dir.
// Symlinks are not followed.
func FolderSize(ctx context.Context, dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("size of %s: %w", dir, err)
	}
	return total, nil
}
