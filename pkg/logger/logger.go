// Package logger builds the process-wide zerolog logger for the VetConsult
// auth binaries (the API server and admin-init).
//
// main calls Init once with the configured level; services receive child
// loggers from Component so every entry carries "service" and "component".
// Mobile numbers are personal data and go through MaskMobile before they are
// attached to an entry. Verification codes, passwords and tokens are never
// logged.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options is filled from LOG_LEVEL and ENV by the binaries.
type Options struct {
	// Level is trace, debug, info, warn or error. Anything else means info.
	Level string
	// Pretty switches to the console writer for local development. Production
	// emits one JSON object per line.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service names the binary, e.g. "vetconsult-auth".
	Service string
}

var (
	instance    zerolog.Logger
	once        sync.Once
	initialized bool
)

// Init builds the logger on the first call and returns it; later calls return
// the same logger and ignore opts.
func Init(opts Options) zerolog.Logger {
	once.Do(func() {
		zerolog.TimeFieldFormat = time.RFC3339Nano

		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		if opts.Pretty {
			out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		}

		lvl := parseLevel(opts.Level)
		zerolog.SetGlobalLevel(lvl)

		ctx := zerolog.New(out).
			Level(lvl).
			With().
			Timestamp().
			Caller()
		if opts.Service != "" {
			ctx = ctx.Str("service", opts.Service)
		}
		instance = ctx.Logger()

		initialized = true
	})
	return instance
}

// Get panics before Init.
func Get() zerolog.Logger {
	if !initialized {
		panic("logger: Get() called before Init()")
	}
	return instance
}

// Component returns a child of the process logger tagged with the owning
// subsystem: auth, admin, verification, sms, sms_queue.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// MaskMobile keeps the operator prefix and the last two digits:
// 09121234567 becomes 0912*****67. Short input is fully masked.
func MaskMobile(mobile string) string {
	if len(mobile) < 7 {
		return strings.Repeat("*", len(mobile))
	}
	return mobile[:4] + strings.Repeat("*", len(mobile)-6) + mobile[len(mobile)-2:]
}

// Reset lets tests call Init again.
func Reset() {
	once = sync.Once{}
	instance = zerolog.Logger{}
	initialized = false
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
