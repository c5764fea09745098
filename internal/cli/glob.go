package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// extensions that a directory argument expands to
var extensions = []string{".vue", ".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"}

func isMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// Glob finds the files under dir that match the pattern. Paths are relative
// to dir and use forward slashes. A plain path to a directory matches the
// scripts and components inside it.
func Glob(dir, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(path.Clean(filepath.ToSlash(pattern)))
	if !isMeta(pattern) {
		info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(pattern)))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("cli: %s does not exist", pattern)
			}
			return nil, err
		}
		if !info.IsDir() {
			return []string{pattern}, nil
		}
		prefix := pattern + "/"
		if pattern == "." {
			prefix = ""
		}
		pattern = prefix + "**/*{" + strings.Join(extensions, ",") + "}"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("cli: invalid pattern %q", pattern)
	}
	// Only walk the directory the pattern can match in
	base, _ := doublestar.SplitPattern(pattern)
	var files []string
	err := filepath.WalkDir(filepath.Join(dir, filepath.FromSlash(base)), func(fpath string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, fpath)
		if err != nil {
			return err
		}
		if de.IsDir() {
			if rel != "." && skipDir(de.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel = filepath.ToSlash(rel)
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			return err
		}
		if ok {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("cli: unable to glob %s: %w", pattern, err)
	}
	sort.Strings(files)
	return files, nil
}
