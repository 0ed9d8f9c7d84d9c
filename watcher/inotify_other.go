//go:build !linux

package watcher

import "fmt"

func newInotifySource() (Source, error) {
	return nil, fmt.Errorf("inotify: %w", ErrUnsupported)
}
