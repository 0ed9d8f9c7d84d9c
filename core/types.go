package core

import (
	"sync"
	"time"

	"AutoBuild/lib/command"
	"AutoBuild/lib/pattern"
	"AutoBuild/notify"
)

// Supervisor watches the configured roots and runs the command once per
// qualifying event. It is single-threaded: while the command runs, no events
// are read and the kernel queues them.
type Supervisor struct {
	roots    []string
	filter   *pattern.Filter
	command  *command.Command
	backend  string
	block    time.Duration
	runFirst bool
	notify   bool
	//
	notifier notify.Notifier
	//
	ready     chan struct{}
	readyOnce sync.Once
}
