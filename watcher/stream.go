package watcher

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"AutoBuild/log"
)

// Event is one change inside a watched directory.
type Event struct {
	Mask   Op
	Dir    string
	Name   string
	Cookie uint32
}

// Path is the full path of the changed entry, or Dir for events on the
// directory itself.
func (e Event) Path() string {
	if e.Name == "" {
		return e.Dir
	}
	return filepath.Join(e.Dir, e.Name)
}

// Stream pulls events out of a tree's source. It never ends on its own; it
// only fails when the source is closed or broken.
type Stream struct {
	tree    *Tree
	block   time.Duration
	pending []Event
	logger  *log.Logger
}

func NewStream(tree *Tree, block time.Duration, logger *log.Logger) *Stream {
	if logger == nil {
		logger = log.NewLogger(nil, nil)
	}
	return &Stream{
		tree:   tree,
		block:  block,
		logger: logger,
	}
}

// Next returns the next subscribed event. ok is false with a nil error when
// nothing arrived during one block duration.
func (s *Stream) Next() (Event, bool, error) {
	if len(s.pending) == 0 {
		notifications, err := s.tree.source.Read(s.block)
		if err != nil {
			return Event{}, false, err
		}
		for _, n := range notifications {
			if ev, ok := s.accept(n); ok {
				s.pending = append(s.pending, ev)
			}
		}
	}
	if len(s.pending) == 0 {
		return Event{}, false, nil
	}
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, true, nil
}

func (s *Stream) accept(n Notification) (Event, bool) {
	switch {
	case n.Mask.Has(QueueOverflow):
		s.logger.Warn("stream", "event queue overflowed, some changes were lost")
		return Event{}, false
	case n.Mask.Has(Ignored):
		s.tree.forget(n.Handle)
		s.logger.Debug("stream", fmt.Sprintf("watch %d removed by the kernel", n.Handle))
		return Event{}, false
	case !n.Mask.Has(Subscribed):
		return Event{}, false
	}
	dir, ok := s.tree.Path(n.Handle)
	if !ok {
		s.logger.Debug("stream", fmt.Sprintf("drop event %s for unknown watch %d", n.Mask, n.Handle))
		return Event{}, false
	}
	if strings.ContainsRune(n.Name, '/') {
		s.logger.Debug("stream", fmt.Sprintf("drop event %s with malformed name `%s`", n.Mask, n.Name))
		return Event{}, false
	}
	return Event{
		Mask:   n.Mask,
		Dir:    dir,
		Name:   n.Name,
		Cookie: n.Cookie,
	}, true
}
