package logging

import (
	"io"
	"log/slog"
	"regexp"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/masq"
)

// Format selects the log encoding
type Format int

const (
	FormatConsole Format = iota + 1
	FormatJSON
)

var slackTokenPattern = regexp.MustCompile(`xox[abposr]-[0-9A-Za-z-]+`)

// redactor masks fields tagged `masq:"secret"`, Slack tokens and DSN passwords
func redactor() func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(
		masq.WithTag("secret"),
		masq.WithFieldName("Authorization"),
		masq.WithFieldPrefix("secret_"),
		masq.WithRegex(slackTokenPattern),
	)
}

// New builds a logger writing to w
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	replacer := redactor()

	switch format {
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: replacer,
		}))

	default:
		return slog.New(clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(replacer),
			clog.WithSource(true),
			clog.WithColor(true),
		))
	}
}
