package worker

import (
	"fmt"

	"github.com/sass-embedded/compiler-host/engine"
	"github.com/sass-embedded/compiler-host/protocol"
)

// maxRepeatedWarnings caps how many times an identical warning message is
// forwarded to the host when verbose is false, mirroring the real
// compiler's "repetitive deprecation warning" throttle.
const maxRepeatedWarnings = 5

// compileLogger is the "logger" spec §4.C step 2 asks a worker to
// construct: it turns engine.LogEvent values into protocol.LogEvent wire
// messages, applying the compile's alert_color/alert_ascii/quiet_deps/
// verbose flags, and sends them on the worker's outbound channel.
type compileLogger struct {
	compilationID uint32
	outbound      chan<- *protocol.OutboundMessage
	alertColor    bool
	alertAscii    bool
	quietDeps     bool
	verbose       bool

	seen map[string]int
}

func newCompileLogger(compilationID uint32, outbound chan<- *protocol.OutboundMessage, colorize, ascii, quietDeps, verbose bool) *compileLogger {
	return &compileLogger{
		compilationID: compilationID,
		outbound:      outbound,
		alertColor:    colorize,
		alertAscii:    ascii,
		quietDeps:     quietDeps,
		verbose:       verbose,
		seen:          make(map[string]int),
	}
}

// Log implements engine.Services.Log.
func (l *compileLogger) Log(event engine.LogEvent) {
	if event.Level == engine.LogDeprecationWarning && event.FromDependency && l.quietDeps {
		return
	}
	if !l.verbose && (event.Level == engine.LogWarning || event.Level == engine.LogDeprecationWarning) {
		l.seen[event.Message]++
		if l.seen[event.Message] > maxRepeatedWarnings {
			return
		}
	}

	wireType := protocol.LogEventWarning
	switch event.Level {
	case engine.LogDeprecationWarning:
		wireType = protocol.LogEventDeprecationWarning
	case engine.LogDebug:
		wireType = protocol.LogEventDebug
	}

	out := &protocol.OutboundMessage{LogEvent: &protocol.LogEvent{
		CompilationID: l.compilationID,
		Type:          wireType,
		Message:       event.Message,
		Formatted:     l.format(event),
		Span:          engineSpanToWire(event.Span),
	}}
	l.outbound <- out
}

// format renders event.Message the way a terminal-facing compiler would:
// colorized with ANSI escapes when alert_color is set, framed with plain
// ASCII punctuation instead of Unicode box-drawing characters when
// alert_ascii is set.
func (l *compileLogger) format(event engine.LogEvent) string {
	label := l.levelLabel(event.Level)
	rule := "─"
	if l.alertAscii {
		rule = "-"
	}

	line := fmt.Sprintf("%s: %s", label, event.Message)
	if event.Span != nil && event.Span.URL != "" {
		line += fmt.Sprintf("\n  %s %s:%d:%d", rule, event.Span.URL, event.Span.StartLine, event.Span.StartColumn)
	}

	if !l.alertColor {
		return line
	}
	return l.colorFor(event.Level) + line + ansiReset
}

func (l *compileLogger) levelLabel(level engine.LogLevel) string {
	switch level {
	case engine.LogDeprecationWarning:
		return "Deprecation Warning"
	case engine.LogDebug:
		return "Debug"
	default:
		return "Warning"
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

func (l *compileLogger) colorFor(level engine.LogLevel) string {
	if level == engine.LogDebug {
		return ansiCyan
	}
	return ansiYellow
}
