// Package crlog is a small, context-scoped logging facility modeled on
// CockroachDB's pkg/util/log: severity-leveled output, per-context tags
// carried with logtags, and redaction-aware formatting via redact.
package crlog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// Severity mirrors the small subset of log.Severity this package needs.
type Severity int32

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "I"
	case SeverityWarning:
		return "W"
	case SeverityError:
		return "E"
	case SeverityFatal:
		return "F"
	default:
		return "?"
	}
}

// AmbientContext carries a component tag that gets attached to every
// context derived from it, the same role log.AmbientContext plays for
// FlowScheduler and the other flowinfra components.
type AmbientContext struct {
	tagKey   string
	tagValue interface{}
}

// MakeAmbientContext tags a new AmbientContext with name=value.
func MakeAmbientContext(name string, value interface{}) AmbientContext {
	return AmbientContext{tagKey: name, tagValue: value}
}

// AnnotateCtx attaches the ambient tag to ctx.
func (a AmbientContext) AnnotateCtx(ctx context.Context) context.Context {
	if a.tagKey == "" {
		return ctx
	}
	return logtags.AddTag(ctx, a.tagKey, a.tagValue)
}

var vlevel int32

// SetVerbosity sets the global verbosity threshold used by VEventf.
func SetVerbosity(level int32) { vlevel = level }

func output(ctx context.Context, sev Severity, format string, args []interface{}) {
	tags := logtags.FromContext(ctx)
	msg := redact.Sprintf(format, args...)
	ts := time.Now().Format("2006/01/02 15:04:05.000000")
	if tags != nil && len(tags.Get()) > 0 {
		fmt.Fprintf(os.Stderr, "%s%s [%s] %s\n", sev, ts, tags, msg)
	} else {
		fmt.Fprintf(os.Stderr, "%s%s %s\n", sev, ts, msg)
	}
}

// Infof logs at info severity.
func Infof(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityInfo, format, args)
}

// Warningf logs at warning severity.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityWarning, format, args)
}

// Errorf logs at error severity.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityError, format, args)
}

// Fatalf logs at fatal severity and terminates the process, mirroring
// log.Fatalf's use for conditions the operator cannot recover from
// (e.g. a corrupt on-disk state detected at startup). Unlike Infof/
// Warningf/Errorf, it never returns.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	output(ctx, SeverityFatal, format, args)
	os.Exit(1)
}

// VEventf logs at info severity when the global verbosity threshold is at
// least level, mirroring log.VEventf's use throughout flowinfra.
func VEventf(ctx context.Context, level int32, format string, args ...interface{}) {
	if vlevel < level {
		return
	}
	output(ctx, SeverityInfo, format, args)
}
