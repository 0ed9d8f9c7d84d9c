package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"AutoBuild/config"
	"AutoBuild/lib/command"
	"AutoBuild/lib/constant"
	"AutoBuild/lib/pattern"
	"AutoBuild/log"
	"AutoBuild/notify"
	"AutoBuild/watcher"
)

func New(cfg *config.Config) (*Supervisor, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	filter, err := pattern.New(cfg.Exclude)
	if err != nil {
		return nil, err
	}
	return &Supervisor{
		roots:    cfg.Listen,
		filter:   filter,
		command:  command.New(cfg.Command, cfg.Workdir),
		backend:  cfg.Backend,
		block:    time.Duration(cfg.BlockDuration),
		runFirst: cfg.RunFirst,
		notify:   cfg.Notify,
		ready:    make(chan struct{}),
	}, nil
}

// SetNotifier replaces the notifier that would otherwise be chosen from the
// config at startup.
func (s *Supervisor) SetNotifier(n notify.Notifier) {
	s.notifier = n
}

// Ready is closed once every directory has been registered.
func (s *Supervisor) Ready() <-chan struct{} {
	return s.ready
}

// RunWithContext builds the watch tree and runs the event loop until ctx is
// done. Errors returned before Ready is closed are startup errors.
func (s *Supervisor) RunWithContext(ctx context.Context, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = log.NewLogger(nil, nil)
	}
	if s.notifier == nil {
		if s.notify {
			s.notifier = notify.Probe(logger)
		} else {
			s.notifier = notify.Disabled()
		}
	}
	for _, r := range s.roots {
		logger.Info("watcher", fmt.Sprintf("Listening on: %s", r))
	}
	for _, p := range s.filter.Patterns() {
		logger.Info("watcher", fmt.Sprintf("Excluding: %s", p))
	}
	logger.Info("watcher", fmt.Sprintf("Will run: %s", s.command.String()))
	logger.Info("watcher", strings.Repeat("-", 60))

	source, err := watcher.NewSource(s.backend)
	if err != nil {
		return err
	}
	tree, err := watcher.BuildTree(source, s.roots, logger)
	if err != nil {
		source.Close()
		return err
	}
	defer func() {
		err := tree.Close()
		if err != nil {
			logger.Warn("watcher", fmt.Sprintf("release watches fail: %s", err))
		}
	}()
	logger.Debug("watcher", fmt.Sprintf("watching %d directories", tree.Len()))
	s.readyOnce.Do(func() { close(s.ready) })

	if s.runFirst {
		s.execute(logger, watcher.Event{})
	}
	stream := watcher.NewStream(tree, s.block, logger)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		ev, ok, err := stream.Next()
		if err != nil {
			if errors.Is(err, watcher.ErrSourceClosed) {
				return err
			}
			logger.Error("watcher", err.Error())
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.block):
			}
			continue
		}
		if !ok {
			continue
		}
		if s.filter.Suppress(ev.Dir, ev.Name) {
			logger.Debug("watcher", fmt.Sprintf("skip excluded %s %s", ev.Mask, ev.Path()))
			continue
		}
		logger.Info("watcher", fmt.Sprintf("%s %s", ev.Mask, ev.Path()))
		s.execute(logger, ev)
	}
}

// execute runs the command for ev. A zero ev is the startup run.
func (s *Supervisor) execute(logger *log.Logger, ev watcher.Event) command.Result {
	c := s.command.Clone()
	if ev.Mask != 0 {
		c.SetEnv(constant.EnvEventPath, ev.Path())
		c.SetEnv(constant.EnvEventKind, ev.Mask.String())
	}
	logger.Info("command", fmt.Sprintf("Running command: %s", c.String()))
	r := c.Run()
	if r.Err != nil {
		logger.Error("command", r.Err.Error())
	}
	if r.Success() {
		logger.Info("command", r.Status())
	} else {
		logger.Error("command", r.Status())
	}
	s.notifier.Notify(r)
	return r
}
