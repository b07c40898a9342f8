// Package logging builds the zerolog logger used by the CLI and the server.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects level, encoding and destination.
type Options struct {
	Level   string // debug, info, warn, error; empty means info
	Format  string // console or json; empty means console
	Out     io.Writer
	NoColor bool
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// New returns a timestamped logger writing to opt.Out, or stderr.
func New(opt Options) (zerolog.Logger, error) {
	lvl, err := ParseLevel(opt.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := opt.Out
	if out == nil {
		out = os.Stderr
	}
	var w io.Writer
	switch strings.ToLower(strings.TrimSpace(opt.Format)) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: out, NoColor: opt.NoColor, TimeFormat: time.Kitchen}
	case "json":
		w = out
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (use console or json)", opt.Format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
