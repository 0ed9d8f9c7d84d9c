// Package notify reports command outcomes as desktop notifications.
package notify

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"AutoBuild/lib/command"
	"AutoBuild/lib/constant"
	"AutoBuild/log"
)

// Notifier receives the result of every command execution.
type Notifier interface {
	Notify(result command.Result)
}

// Dispatcher sends notifications through notify-send. Availability is decided
// once, when the dispatcher is built.
type Dispatcher struct {
	program   string
	available bool
	logger    *log.Logger
	run       func(name string, args ...string) error
}

var lookPath = exec.LookPath

// Probe looks for notify-send and returns a dispatcher that is disabled when it
// is missing. A missing program is reported once and is not an error.
func Probe(logger *log.Logger) *Dispatcher {
	d := &Dispatcher{
		logger: logger,
		run:    runProgram,
	}
	program, err := lookPath(constant.NotifyProgram)
	if err != nil {
		if logger != nil {
			logger.Warn("notify", fmt.Sprintf("Program %s not found. Disabling notifications.", constant.NotifyProgram))
		}
		return d
	}
	d.program = program
	d.available = true
	return d
}

// Disabled returns a dispatcher that never sends anything.
func Disabled() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) Available() bool {
	return d != nil && d.available
}

// Notify sends the notification for r. Failures are logged at debug level only.
func (d *Dispatcher) Notify(r command.Result) {
	if !d.Available() {
		return
	}
	err := d.run(d.program, Args(r)...)
	if err != nil && d.logger != nil {
		d.logger.Debug("notify", fmt.Sprintf("send notification fail: %s", err))
	}
}

// Args builds the notify-send argument list for r.
func Args(r command.Result) []string {
	var (
		title   string
		icon    string
		urgency string
		timeout time.Duration
	)
	if r.Success() {
		title = "Command execution successful"
		icon = constant.NotifySuccessIcon
		urgency = constant.NotifySuccessUrgency
		timeout = constant.NotifySuccessTimeout
	} else {
		title = fmt.Sprintf("Command execution failed (code: %d)", r.ExitCode)
		icon = constant.NotifyFailureIcon
		urgency = constant.NotifyFailureUrgency
		timeout = constant.NotifyFailureTimeout
	}
	description := fmt.Sprintf("%s\n\nWorkdir: %s\n", r.String(), r.Dir)
	return []string{
		title, description,
		"--icon", icon,
		"--urgency", urgency,
		"--expire-time", strconv.FormatInt(timeout.Milliseconds(), 10),
	}
}

func runProgram(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}
