package minilog

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

type printer interface {
	Println(...interface{})
}

type minilogger struct {
	printer

	Level   Level
	Color   bool
	filters []string
}

var (
	colorDebug = color.New(color.FgBlue)
	colorInfo  = color.New(color.FgGreen)
	colorWarn  = color.New(color.FgYellow)
	colorError = color.New(color.FgRed)
	colorFatal = color.New(color.FgRed, color.Bold)
)

func colorFor(level Level) *color.Color {
	switch level {
	case DEBUG:
		return colorDebug
	case INFO:
		return colorInfo
	case WARN:
		return colorWarn
	case ERROR:
		return colorError
	default:
		return colorFatal
	}
}

func (l *minilogger) prologue(level Level, name string) string {
	tag := strings.ToUpper(level.String())
	var where string
	if name == "" {
		_, file, line, _ := runtime.Caller(4)
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		where = short + ":" + strconv.Itoa(line)
	} else {
		where = name
	}

	msg := tag + " " + where + ": "
	if l.Color {
		return colorFor(level).Sprint(msg)
	}
	return msg
}

func (l *minilogger) log(level Level, name, format string, arg ...interface{}) {
	msg := l.prologue(level, name) + fmt.Sprintf(format, arg...)
	for _, f := range l.filters {
		if strings.Contains(msg, f) {
			return
		}
	}
	l.Println(msg)
}

func (l *minilogger) logln(level Level, name string, arg ...interface{}) {
	msg := l.prologue(level, name) + fmt.Sprint(arg...)
	for _, f := range l.filters {
		if strings.Contains(msg, f) {
			return
		}
	}
	l.Println(msg)
}
