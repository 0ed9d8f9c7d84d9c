package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"AutoBuild/config"
	"AutoBuild/core"
	"AutoBuild/lib/constant"
	"AutoBuild/log"
)

func run(flags *pflag.FlagSet, p *params, args []string) {
	cfg, err := p.buildConfig(flags, args)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger := log.NewLogger(os.Stdout, nil)
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Println(fmt.Sprintf("open log file fail: %s", err))
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	}
	if cfg.Log.Debug {
		logger.SetDebug(true)
		logger.Debug("global", "debug mode enabled")
	}
	logger.Info("global", fmt.Sprintf("AutoBuild %s", constant.Version))
	supervisor, err := core.New(cfg)
	if err != nil {
		logger.Fatal("global", err.Error())
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listenSignal(cancel, logger)
	err = supervisor.RunWithContext(ctx, logger)
	if err != nil {
		logger.Fatal("global", err.Error())
		return
	}
	logger.Info("global", "Bye!!")
}

// buildConfig loads the config file, if any, and lays the flags over it.
// Repeatable flags append; the others replace the file value when given.
func (p *params) buildConfig(flags *pflag.FlagSet, args []string) (*config.Config, error) {
	cfg := &config.Config{}
	if p.config != "" {
		var err error
		cfg, err = config.ParseFile(p.config)
		if err != nil {
			return nil, err
		}
	}
	cfg.Listen = append(cfg.Listen, p.listen...)
	cfg.Exclude = append(cfg.Exclude, p.exclude...)
	if flags.Changed("workdir") {
		cfg.Workdir = p.workdir
	}
	if flags.Changed("notify") {
		cfg.Notify = p.notify
	}
	if flags.Changed("backend") || cfg.Backend == "" {
		cfg.Backend = p.backend
	}
	if flags.Changed("block-duration") {
		cfg.BlockDuration = p.blockDuration
	}
	if flags.Changed("run-first") {
		cfg.RunFirst = p.runFirst
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = p.debug
	}
	if flags.Changed("log-file") {
		cfg.Log.File = p.logFile
	}
	if len(args) > 0 {
		cfg.Command = args
	}
	return cfg, nil
}

func listenSignal(cancelFunc context.CancelFunc, logger *log.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c
	logger.Warn("global", "receive signal, exit")
	cancelFunc()
}
