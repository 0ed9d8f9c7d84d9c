package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"AutoBuild/lib/constant"
	"AutoBuild/lib/types"
)

var RootCommand = newRootCommand()

type params struct {
	config        string
	listen        []string
	exclude       []string
	workdir       string
	notify        bool
	backend       string
	blockDuration types.Duration
	runFirst      bool
	debug         bool
	logFile       string
}

func newRootCommand() *cobra.Command {
	p := &params{}
	cmd := &cobra.Command{
		Use:     "autobuild [flags] [--] command [args...]",
		Short:   "Run a command whenever something changes in the watched directories",
		Version: constant.Version,
		Args:    cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(cmd.Flags(), p, args)
		},
	}
	p.bind(cmd.Flags())
	return cmd
}

func (p *params) bind(flags *pflag.FlagSet) {
	// Everything after the first positional argument belongs to the command.
	flags.SetInterspersed(false)
	flags.StringVarP(&p.config, "config", "c", "", "config file (yaml)")
	flags.StringArrayVarP(&p.listen, "listen", "l", nil, "add a directory to the watch list")
	flags.StringArrayVarP(&p.exclude, "exclude", "e", nil, "exclude files matching this (glob) pattern")
	flags.StringVarP(&p.workdir, "workdir", "w", "", "working directory for the command (defaults to the current directory)")
	flags.BoolVarP(&p.notify, "notify", "n", false, "send notifications about the command exit status")
	flags.StringVar(&p.backend, "backend", "auto", "event backend: auto, inotify or fsnotify")
	flags.Var(&p.blockDuration, "block-duration", "maximum time one poll waits for events (default 1s)")
	flags.BoolVar(&p.runFirst, "run-first", false, "run the command once at startup")
	flags.BoolVar(&p.debug, "debug", false, "enable debug logging")
	flags.StringVar(&p.logFile, "log-file", "", "write the log to this file instead of stdout")
}

func main() {
	RootCommand.Execute()
}
