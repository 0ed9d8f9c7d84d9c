package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func parse(t *testing.T, args ...string) (*params, *pflag.FlagSet) {
	t.Helper()
	p := &params{}
	flags := pflag.NewFlagSet("autobuild", pflag.ContinueOnError)
	p.bind(flags)
	if err := flags.Parse(args); err != nil {
		t.Fatalf("parse %q: %v", args, err)
	}
	return p, flags
}

func TestFlagsStopAtCommand(t *testing.T) {
	p, flags := parse(t, "-l", "src", "--listen", "lib", "-e", "*.tmp", "-n", "make", "-j4", "-l", "x")
	cfg, err := p.buildConfig(flags, flags.Args())
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	if strings.Join(cfg.Listen, ",") != "src,lib" {
		t.Fatalf("listen: %q", cfg.Listen)
	}
	if strings.Join(cfg.Exclude, ",") != "*.tmp" || !cfg.Notify {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if strings.Join(cfg.Command, " ") != "make -j4 -l x" {
		t.Fatalf("command: %q", cfg.Command)
	}
	if cfg.Backend != "auto" {
		t.Fatalf("backend: %q", cfg.Backend)
	}
}

func TestFlagsOverConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "autobuild.yaml")
	data := "listen: [/srv/a]\nexclude: ['*.o']\nnotify: true\nbackend: fsnotify\ncommand: [make]\nblock_duration: 2s\n"
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	p, flags := parse(t, "-c", file, "-l", "/srv/b", "--notify=false", "--block-duration", "100ms", "--", "ninja", "-C", "out")
	cfg, err := p.buildConfig(flags, flags.Args())
	if err != nil {
		t.Fatalf("build config: %v", err)
	}
	if strings.Join(cfg.Listen, ",") != "/srv/a,/srv/b" {
		t.Fatalf("listen: %q", cfg.Listen)
	}
	if cfg.Notify {
		t.Fatal("flag must override the file")
	}
	if cfg.Backend != "fsnotify" {
		t.Fatalf("file backend lost: %q", cfg.Backend)
	}
	if time.Duration(cfg.BlockDuration) != 100*time.Millisecond {
		t.Fatalf("block: %s", cfg.BlockDuration)
	}
	if strings.Join(cfg.Command, " ") != "ninja -C out" {
		t.Fatalf("command: %q", cfg.Command)
	}
}

func TestBuildConfigMissingFile(t *testing.T) {
	p, flags := parse(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "make")
	if _, err := p.buildConfig(flags, flags.Args()); err == nil {
		t.Fatal("expected error")
	}
}

func TestRootCommandHasVersion(t *testing.T) {
	cmd := newRootCommand()
	if cmd.Version == "" || cmd.Flags().Lookup("listen") == nil {
		t.Fatal("root command not wired")
	}
}
