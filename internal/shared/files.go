package shared

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListFiles returns root itself when it is a file, otherwise every file
// below it whose name ends in one of exts (case-insensitive), sorted.
func ListFiles(root string, exts []string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var out []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		for _, ext := range exts {
			if strings.HasSuffix(name, strings.ToLower(ext)) {
				out = append(out, p)
				break
			}
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

// RelName is p relative to root in slash form, or its base name when p is
// root itself.
func RelName(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil && rel != "." {
		return filepath.ToSlash(rel)
	}
	return filepath.Base(p)
}
