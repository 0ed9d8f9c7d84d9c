package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"AutoBuild/lib/constant"
)

func New(args []string, dir string) *Command {
	return &Command{
		Args:   args,
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type Command struct {
	Args []string
	Dir  string
	Env  []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type Result struct {
	Args     []string
	Dir      string
	ExitCode int
	Err      error
	Duration time.Duration
}

func (c *Command) Clone() *Command {
	cc := *c
	cc.Env = append([]string(nil), c.Env...)
	return &cc
}

func (c *Command) String() string {
	return Quote(c.Args)
}

func (c *Command) SetEnv(key, value string) {
	if c.Env == nil {
		c.Env = make([]string, 0)
	}
	c.Env = append(c.Env, key+"="+value)
}

// Run executes the command and waits for it. There is no timeout: a hanging
// command blocks the caller until it exits or is killed from outside.
func (c *Command) Run() Result {
	r := Result{
		Args: c.Args,
		Dir:  c.Dir,
	}
	if len(c.Args) == 0 {
		r.ExitCode = constant.CommandNotFoundCode
		r.Err = fmt.Errorf("command is empty")
		return r
	}
	cmd := exec.Command(c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	start := time.Now()
	err := cmd.Run()
	r.Duration = time.Since(start)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			r.ExitCode = exitCode(exitErr)
		} else {
			r.ExitCode = constant.CommandNotFoundCode
			r.Err = fmt.Errorf("start command `%s` fail: %w", c.String(), err)
		}
	}
	return r
}

// exitCode is the child's exit status, or the negated signal number when the
// child was killed by a signal.
func exitCode(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return exitErr.ExitCode()
}

func (r Result) Success() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// String is the quoted command line.
func (r Result) String() string {
	return Quote(r.Args)
}

// Status is the human-readable outcome line.
func (r Result) Status() string {
	if r.Success() {
		return "Command execution successful"
	}
	return fmt.Sprintf("Command execution failed with code %d", r.ExitCode)
}
