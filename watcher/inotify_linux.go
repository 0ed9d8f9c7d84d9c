//go:build linux

package watcher

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// inotifyWatchMask subscribes to everything; the stream drops what does not
// qualify. Symlinks are never followed by the kernel side either.
const inotifyWatchMask = unix.IN_ALL_EVENTS | unix.IN_ONLYDIR | unix.IN_DONT_FOLLOW

// nameMax is NAME_MAX from <limits.h>.
const nameMax = 255

// inotifyBufferSize holds many events at once. Each event is the fixed
// header plus up to nameMax+1 bytes of name.
const inotifyBufferSize = 4096 * (unix.SizeofInotifyEvent + nameMax + 1)

type inotifySource struct {
	mu     sync.Mutex
	fd     int
	closed bool
	buf    []byte
}

func newInotifySource() (Source, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init fail: %w", err)
	}
	return &inotifySource{
		fd:  fd,
		buf: make([]byte, inotifyBufferSize),
	}, nil
}

func (s *inotifySource) Add(path string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSourceClosed
	}
	wd, err := unix.InotifyAddWatch(s.fd, path, inotifyWatchMask)
	if err != nil {
		return 0, fmt.Errorf("add watch `%s` fail: %w", path, err)
	}
	return Handle(wd), nil
}

func (s *inotifySource) Read(timeout time.Duration) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSourceClosed
	}
	fds := []unix.PollFd{{Fd: int32(s.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, pollTimeout(timeout))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("poll inotify fail: %w", err)
	}
	if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return nil, nil
	}
	size, err := unix.Read(s.fd, s.buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("read inotify fail: %w", err)
	}
	return parseInotify(s.buf[:size]), nil
}

func (s *inotifySource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}

// pollTimeout converts timeout to poll(2) milliseconds, rounding up so a
// positive timeout never turns into a non-blocking poll.
func pollTimeout(timeout time.Duration) int {
	if timeout <= 0 {
		return 0
	}
	return int((timeout + time.Millisecond - 1) / time.Millisecond)
}

// parseInotify decodes a buffer of struct inotify_event records. A truncated
// trailing record is dropped.
func parseInotify(buf []byte) []Notification {
	out := make([]Notification, 0, 8)
	for offset := 0; offset+unix.SizeofInotifyEvent <= len(buf); {
		ev := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
		offset += unix.SizeofInotifyEvent
		var name string
		if ev.Len > 0 {
			if offset+int(ev.Len) > len(buf) {
				break
			}
			raw := buf[offset : offset+int(ev.Len)]
			if i := bytes.IndexByte(raw, 0); i >= 0 {
				raw = raw[:i]
			}
			name = string(raw)
			offset += int(ev.Len)
		}
		out = append(out, Notification{
			Handle: Handle(ev.Wd),
			Mask:   Op(ev.Mask),
			Cookie: ev.Cookie,
			Name:   name,
		})
	}
	return out
}
