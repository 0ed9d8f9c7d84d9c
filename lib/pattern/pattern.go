// Package pattern decides which filenames are noise and must not trigger a build.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// defaultExclude matches editor backup and lock files: name~, .#name and #name#.
// It is applied to the raw filename bytes.
var defaultExclude = regexp.MustCompile(`^(.*~|\.#.*|#.*#)$`)

type Filter struct {
	patterns []string
	globs    []glob.Glob
}

// New compiles the operator exclusion globs. Globs use shell semantics and are
// compiled without separators, so `*` also spans dots and slashes. Braces and
// backslashes are plain characters.
func New(patterns []string) (*Filter, error) {
	f := &Filter{
		patterns: make([]string, 0, len(patterns)),
		globs:    make([]glob.Glob, 0, len(patterns)),
	}
	for _, p := range patterns {
		if p == "" {
			return nil, fmt.Errorf("exclude pattern is empty")
		}
		g, err := glob.Compile(escape(p))
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern `%s`: %w", p, err)
		}
		f.patterns = append(f.patterns, p)
		f.globs = append(f.globs, g)
	}
	return f, nil
}

// Patterns returns the operator patterns in the order they were given.
func (f *Filter) Patterns() []string {
	out := make([]string, len(f.patterns))
	copy(out, f.patterns)
	return out
}

// Suppress reports whether an event for name inside dir must be ignored.
// Only the filename is matched; dir is accepted so callers can pass the event as is.
func (f *Filter) Suppress(dir, name string) bool {
	if IsBackupName(name) {
		return true
	}
	if f == nil {
		return false
	}
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// IsBackupName reports whether name matches the built-in editor backup rule.
func IsBackupName(name string) bool {
	return defaultExclude.MatchString(name)
}

// escape quotes the characters gobwas/glob treats as syntax beyond
// `*`, `?` and `[...]`. Bracket expressions are passed through untouched.
func escape(p string) string {
	var b strings.Builder
	inClass := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '{', c == '}', c == ',', c == '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
