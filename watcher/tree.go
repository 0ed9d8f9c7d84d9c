package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"AutoBuild/log"
)

// Tree is the set of watched directories, built once at startup.
//
// Roots are resolved through symlinks. Below a root, symlinked directories are
// never followed, so every directory is reached by exactly one real path.
// Directories created after BuildTree returns are not added.
type Tree struct {
	source Source
	roots  []string
	dirs   map[string]Handle
	paths  map[Handle]string
	logger *log.Logger
}

// BuildTree registers every directory reachable from roots with source.
// A root that cannot be resolved or registered is an error. Anything below a
// root that vanishes or cannot be read is skipped with a warning.
func BuildTree(source Source, roots []string, logger *log.Logger) (*Tree, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("no watch root given")
	}
	if logger == nil {
		logger = log.NewLogger(nil, nil)
	}
	t := &Tree{
		source: source,
		dirs:   make(map[string]Handle),
		paths:  make(map[Handle]string),
		logger: logger,
	}
	isRoot := make(map[string]bool, len(roots))
	queue := make([]string, 0, len(roots))
	for _, root := range roots {
		resolved, err := ResolveRoot(root)
		if err != nil {
			return nil, err
		}
		if isRoot[resolved] {
			continue
		}
		isRoot[resolved] = true
		t.roots = append(t.roots, resolved)
		queue = append(queue, resolved)
	}
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]
		if _, ok := t.dirs[dir]; ok {
			continue
		}
		h, err := source.Add(dir)
		if err != nil {
			if isRoot[dir] {
				return nil, fmt.Errorf("watch root `%s` fail: %w", dir, err)
			}
			t.logger.Warn("watcher", fmt.Sprintf("skip directory `%s`: %s", dir, err))
			continue
		}
		if other, ok := t.paths[h]; ok {
			t.logger.Debug("watcher", fmt.Sprintf("directory `%s` is already watched as `%s`", dir, other))
			continue
		}
		t.dirs[dir] = h
		t.paths[h] = dir
		t.logger.Debug("watcher", fmt.Sprintf("watch directory `%s`", dir))
		entries, err := os.ReadDir(dir)
		if err != nil {
			if isRoot[dir] {
				return nil, fmt.Errorf("read root `%s` fail: %w", dir, err)
			}
			t.logger.Warn("watcher", fmt.Sprintf("read directory `%s` fail, subdirectories skipped: %s", dir, err))
		}
		// ReadDir returns what it managed to read even on error.
		for _, e := range entries {
			if e.IsDir() {
				queue = append(queue, filepath.Join(dir, e.Name()))
			}
		}
	}
	return t, nil
}

// ResolveRoot makes root absolute, follows symlinks and checks it is a directory.
func ResolveRoot(root string) (string, error) {
	if root == "" {
		return "", fmt.Errorf("path is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve path `%s` fail: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("open path fail: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("open path fail: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path `%s` must be a directory", root)
	}
	return resolved, nil
}

func (t *Tree) Path(h Handle) (string, bool) {
	p, ok := t.paths[h]
	return p, ok
}

func (t *Tree) Roots() []string {
	out := make([]string, len(t.roots))
	copy(out, t.roots)
	return out
}

// Dirs returns the watched directories, sorted.
func (t *Tree) Dirs() []string {
	out := make([]string, 0, len(t.dirs))
	for d := range t.dirs {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (t *Tree) Len() int {
	return len(t.dirs)
}

// forget drops a handle the kernel has already removed.
func (t *Tree) forget(h Handle) {
	if p, ok := t.paths[h]; ok {
		delete(t.paths, h)
		delete(t.dirs, p)
	}
}

// Close releases every registration.
func (t *Tree) Close() error {
	return t.source.Close()
}
