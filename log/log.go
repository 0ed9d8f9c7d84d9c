package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

type LEVEL string

const (
	Info    LEVEL = "Info"
	Warning LEVEL = "Warning"
	Debug   LEVEL = "Debug"
	Error   LEVEL = "Error"
	Fatal   LEVEL = "Fatal"
)

// FormatFunc renders one log line. module is the component tag passed by the caller.
type FormatFunc func(level LEVEL, module string, str string) string

type Logger struct {
	logger     *log.Logger
	mu         sync.Mutex
	formatFunc FormatFunc
	output     io.Writer
	debug      bool
	exit       func(code int)
}

func NewLogger(w io.Writer, f FormatFunc) *Logger {
	if w == nil {
		w = os.Stdout
	}
	l := &Logger{
		output: w,
		logger: log.New(w, "", 0),
		exit:   os.Exit,
	}
	if f == nil {
		l.formatFunc = DefaultFormatFunc
	} else {
		l.formatFunc = f
	}
	return l
}

func (l *Logger) SetOutput(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = w
	l.logger = log.New(w, "", 0)
	return l
}

func (l *Logger) SetFormatFunc(f FormatFunc) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.formatFunc = f
	return l
}

func (l *Logger) SetDebug(debug bool) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debug = debug
	return l
}

func (l *Logger) IsDebug() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

// DefaultFormatFunc drops the module tag; it only shows up in debug output.
func DefaultFormatFunc(level LEVEL, module string, str string) string {
	now := time.Now().Format("2006-01-02 15:04:05 UTC-07")
	if level == Debug {
		return fmt.Sprintf("[%s] [%s] [%s] %s", now, level, module, str)
	}
	return fmt.Sprintf("[%s] [%s] %s", now, level, str)
}

// PlainFormatFunc prints the message only.
func PlainFormatFunc(_ LEVEL, _ string, str string) string {
	return str
}

func (l *Logger) print(level LEVEL, module string, str string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level == Debug && !l.debug {
		return
	}
	if l.formatFunc != nil {
		l.logger.Print(l.formatFunc(level, module, str))
	} else {
		l.logger.Print(str)
	}
}

func (l *Logger) Info(module string, str string) {
	l.print(Info, module, str)
}

func (l *Logger) Warn(module string, str string) {
	l.print(Warning, module, str)
}

func (l *Logger) Error(module string, str string) {
	l.print(Error, module, str)
}

func (l *Logger) Debug(module string, str string) {
	l.print(Debug, module, str)
}

func (l *Logger) Fatal(module string, str string) {
	l.print(Fatal, module, str)
	l.exit(1)
}
