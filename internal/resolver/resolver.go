// Package resolver reads and writes the fixture files under a directory.
// Paths are slash-separated and may not leave the directory.
package resolver

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Resolve struct {
	// From resolves Path relative to another fixture
	From string
	Path string
}

type File struct {
	Path string
	Code []byte
}

type Interface interface {
	Resolve(r *Resolve) (*File, error)
}

func New(dir string) *Resolver {
	return &Resolver{dir, os.DirFS(dir)}
}

type Resolver struct {
	dir  string
	fsys fs.FS
}

var _ Interface = (*Resolver)(nil)

// clean joins the paths and checks that the result stays inside
func clean(res *Resolve) (string, error) {
	dir := "."
	if res.From != "" {
		dir = path.Dir(strings.TrimPrefix(res.From, "/"))
	}
	relPath := path.Join(dir, strings.TrimPrefix(res.Path, "/"))
	if !fs.ValidPath(relPath) || relPath == "." {
		return "", fmt.Errorf("resolver: invalid path %q", res.Path)
	}
	return relPath, nil
}

func (r *Resolver) Resolve(res *Resolve) (*File, error) {
	relPath, err := clean(res)
	if err != nil {
		return nil, err
	}
	code, err := fs.ReadFile(r.fsys, relPath)
	if err != nil {
		return nil, fmt.Errorf("resolver: %s: %w", relPath, err)
	}
	return &File{
		Path: relPath,
		Code: code,
	}, nil
}

// Write a file, creating its directory when needed
func (r *Resolver) Write(res *Resolve, code []byte) (*File, error) {
	relPath, err := clean(res)
	if err != nil {
		return nil, err
	}
	fullPath := filepath.Join(r.dir, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("resolver: unable to create directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(fullPath, code, 0644); err != nil {
		return nil, fmt.Errorf("resolver: unable to write %s: %w", relPath, err)
	}
	return &File{
		Path: relPath,
		Code: code,
	}, nil
}

// Embedded fixtures, for tests
type Embedded map[string][]byte

var _ Interface = (*Embedded)(nil)

func (e Embedded) Resolve(res *Resolve) (*File, error) {
	relPath, err := clean(res)
	if err != nil {
		return nil, err
	}
	code, ok := e[relPath]
	if !ok {
		return nil, fmt.Errorf("resolver: %s: %w", relPath, fs.ErrNotExist)
	}
	return &File{
		Path: relPath,
		Code: code,
	}, nil
}
