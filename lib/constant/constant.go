package constant

import "time"

const Version = "v1.0.0"

const (
	DefaultBlockDuration = time.Second
	MinBlockDuration     = time.Millisecond
)

const (
	EnvEventPath = "AUTOBUILD_PATH"
	EnvEventKind = "AUTOBUILD_EVENT"
)

const (
	NotifyProgram = "notify-send"

	NotifySuccessIcon    = "dialog-information"
	NotifySuccessUrgency = "normal"
	NotifySuccessTimeout = 2000 * time.Millisecond

	NotifyFailureIcon    = "dialog-error"
	NotifyFailureUrgency = "critical"
	NotifyFailureTimeout = 5000 * time.Millisecond
)

// CommandNotFoundCode is reported when the command cannot be started at all.
const CommandNotFoundCode = 127
