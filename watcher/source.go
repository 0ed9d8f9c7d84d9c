// Package watcher builds the recursive watch set and turns kernel change
// notifications into a stream of events.
package watcher

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

const (
	BackendAuto     = "auto"
	BackendInotify  = "inotify"
	BackendFsnotify = "fsnotify"
)

var (
	ErrSourceClosed = errors.New("event source closed")
	ErrUnsupported  = errors.New("backend not supported on this platform")
)

// Handle identifies one registered directory within a Source.
type Handle int

// Notification is one record as delivered by a Source, before the handle is
// resolved to a directory.
type Notification struct {
	Handle Handle
	Mask   Op
	Cookie uint32
	Name   string
}

// Source is a low-level change notification backend.
type Source interface {
	// Add registers a directory. Adding the same directory again may return the
	// handle it already has.
	Add(path string) (Handle, error)
	// Read waits at most timeout for notifications. An empty result with a nil
	// error means nothing arrived.
	Read(timeout time.Duration) ([]Notification, error)
	// Close releases every registration.
	Close() error
}

// NewSource opens the named backend. BackendAuto picks inotify on Linux and
// fsnotify elsewhere.
func NewSource(backend string) (Source, error) {
	switch backend {
	case "", BackendAuto:
		if runtime.GOOS == "linux" {
			return newInotifySource()
		}
		return newFsnotifySource()
	case BackendInotify:
		return newInotifySource()
	case BackendFsnotify:
		return newFsnotifySource()
	default:
		return nil, fmt.Errorf("invalid backend: %s", backend)
	}
}

// ValidBackend reports whether name is accepted by NewSource.
func ValidBackend(name string) bool {
	switch name {
	case "", BackendAuto, BackendInotify, BackendFsnotify:
		return true
	}
	return false
}
