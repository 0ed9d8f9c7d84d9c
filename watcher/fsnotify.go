package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// unknownHandle marks a notification that cannot be tied to a registration.
const unknownHandle Handle = -1

// fsnotifySource adapts fsnotify to Source. fsnotify reports full paths, so
// handles are assigned here per registered directory.
type fsnotifySource struct {
	mu      sync.Mutex
	w       *fsnotify.Watcher
	handles map[string]Handle
	next    Handle
	closed  bool
}

func newFsnotifySource() (Source, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher fail: %w", err)
	}
	return &fsnotifySource{
		w:       w,
		handles: make(map[string]Handle),
		next:    1,
	}, nil
}

func (s *fsnotifySource) Add(path string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSourceClosed
	}
	path = filepath.Clean(path)
	if h, ok := s.handles[path]; ok {
		return h, nil
	}
	err := s.w.Add(path)
	if err != nil {
		return 0, fmt.Errorf("add watch `%s` fail: %w", path, err)
	}
	h := s.next
	s.next++
	s.handles[path] = h
	return h, nil
}

func (s *fsnotifySource) Read(timeout time.Duration) ([]Notification, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	var out []Notification
	select {
	case ev, ok := <-s.w.Events:
		if !ok {
			return nil, ErrSourceClosed
		}
		out = append(out, s.convert(ev))
	case err, ok := <-s.w.Errors:
		if !ok {
			return nil, ErrSourceClosed
		}
		if errors.Is(err, fsnotify.ErrEventOverflow) {
			return []Notification{{Handle: unknownHandle, Mask: QueueOverflow}}, nil
		}
		return nil, fmt.Errorf("fsnotify fail: %w", err)
	case <-timer.C:
		return nil, nil
	}
	// Hand out whatever else is already queued in the same batch.
	for {
		select {
		case ev, ok := <-s.w.Events:
			if !ok {
				return out, nil
			}
			out = append(out, s.convert(ev))
		default:
			return out, nil
		}
	}
}

func (s *fsnotifySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.w.Close()
}

func (s *fsnotifySource) convert(ev fsnotify.Event) Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := filepath.Clean(ev.Name)
	if h, ok := s.handles[filepath.Dir(name)]; ok {
		return Notification{Handle: h, Mask: fsnotifyMask(ev.Op), Name: filepath.Base(name)}
	}
	if h, ok := s.handles[name]; ok {
		var mask Op
		if ev.Op.Has(fsnotify.Remove) {
			mask |= DeleteSelf
		}
		if ev.Op.Has(fsnotify.Rename) {
			mask |= MoveSelf
		}
		if ev.Op.Has(fsnotify.Chmod) {
			mask |= Attrib
		}
		return Notification{Handle: h, Mask: mask}
	}
	return Notification{Handle: unknownHandle, Mask: fsnotifyMask(ev.Op), Name: name}
}

func fsnotifyMask(op fsnotify.Op) Op {
	var mask Op
	if op.Has(fsnotify.Create) {
		mask |= Create
	}
	if op.Has(fsnotify.Write) {
		mask |= Modify
	}
	if op.Has(fsnotify.Remove) {
		mask |= Delete
	}
	if op.Has(fsnotify.Rename) {
		mask |= MovedFrom
	}
	if op.Has(fsnotify.Chmod) {
		mask |= Attrib
	}
	return mask
}
