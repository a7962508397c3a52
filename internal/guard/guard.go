// Package guard implements the validation-gated mutators. Every call
// validates its targets through a Validator before touching the
// filesystem, then acts on each item in input order and stops at the
// first failure. Completed items are never rolled back.
package guard

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"pathguard/internal/fsops"
	"pathguard/internal/journal"
	"pathguard/internal/limiter"
	"pathguard/internal/metrics"
	"pathguard/internal/safety"
)

// DirMode is the permission mode of directories created by Mkdir
const DirMode = 0o755

// Resolver absolutizes relative input
type Resolver interface {
	Resolve(segments ...string) (string, error)
}

// Validator is the access and policy checker every mutation routes through
type Validator interface {
	IsValid(path string) (string, error)
	ValidateWriteTarget(path string) error
	ValidateDeleteTarget(path string) error
}

// Logger interface for structured logging in the mutators
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// stdLogger wraps standard log.Logger to implement Logger interface
type stdLogger struct {
	*log.Logger
}

func (l *stdLogger) Info(msg string, args ...interface{}) {
	l.logWithLevel("INFO", msg, args...)
}

func (l *stdLogger) Error(msg string, args ...interface{}) {
	l.logWithLevel("ERROR", msg, args...)
}

func (l *stdLogger) logWithLevel(level, msg string, args ...interface{}) {
	parts := []interface{}{fmt.Sprintf("[%s]", level), msg}
	parts = append(parts, args...)
	l.Logger.Println(parts...)
}

// guard carries the collaborators shared by every mutator
type guard struct {
	resolver  Resolver
	validator Validator
	ops       fsops.Ops
	logger    Logger
	journal   journal.Journal
	throttle  *limiter.Throttle
}

func newGuard(resolver Resolver, validator Validator, logger *log.Logger) guard {
	if logger == nil {
		logger = log.Default()
	}
	return guard{
		resolver:  resolver,
		validator: validator,
		ops:       fsops.OS{},
		logger:    &stdLogger{Logger: logger},
	}
}

// SetOps replaces the filesystem seam (tests use fsops.Fake)
func (g *guard) SetOps(ops fsops.Ops) {
	g.ops = ops
}

// SetValidator replaces the access and policy checker
func (g *guard) SetValidator(v Validator) {
	g.validator = v
}

// SetJournal sets the caller-owned accumulator that receives one entry
// per item. nil disables recording.
func (g *guard) SetJournal(j journal.Journal) {
	g.journal = j
}

// SetThrottle paces mutations. nil disables pacing.
func (g *guard) SetThrottle(t *limiter.Throttle) {
	g.throttle = t
}

// absolute returns path unchanged in meaning but cleaned when already
// absolute, otherwise resolves it against the working directory.
func (g *guard) absolute(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", &safety.PolicyError{Path: path, Cause: safety.ErrInvalidPath}
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	return g.resolver.Resolve(path)
}

// rejectArgs reports a batch call made without a paths slice
func (g *guard) rejectArgs(op journal.Operation, started time.Time) error {
	err := &ArgumentError{Operation: string(op)}
	g.logger.Error("Invalid arguments", "op", op, "error", err)
	metrics.RecordOperation(string(op), metrics.ResultRejected, started)
	return err
}

// reject records a validation failure. Nothing has been mutated by this call.
func (g *guard) reject(op journal.Operation, path string, err error, started time.Time) error {
	g.logStructured("REJECT", path, op, err)
	g.record(journal.Entry{Operation: op, Action: journal.ActionRejected, Path: path, Error: err.Error()})
	metrics.RecordOperation(string(op), metrics.ResultRejected, started)
	return err
}

// fail records an OS failure after validation passed. Earlier items stay done.
func (g *guard) fail(op journal.Operation, path string, err error, started time.Time) error {
	g.logger.Error("Operation failed", "op", op, "path", path, "error", err)
	g.logStructured("ERROR", path, op, err)
	g.record(journal.Entry{Operation: op, Action: journal.ActionFailed, Path: path, Error: err.Error()})
	metrics.RecordOperation(string(op), metrics.ResultFailed, started)
	return err
}

// done records one completed item
func (g *guard) done(op journal.Operation, path, line string) {
	g.logStructured(doneAction(op), path, op, nil)
	g.record(journal.Entry{Operation: op, Action: journal.ActionDone, Path: path, Line: line})
	metrics.RecordItem(string(op))
}

func (g *guard) succeed(op journal.Operation, count int, started time.Time) {
	g.logger.Info("Operation complete", "op", op, "items", count, "duration", time.Since(started))
	metrics.RecordOperation(string(op), metrics.ResultOK, started)
}

// record writes to the journal. A journal failure never fails the operation.
func (g *guard) record(e journal.Entry) {
	if g.journal == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	if err := g.journal.Record(e); err != nil {
		g.logger.Error("Failed to record to journal", "path", e.Path, "error", err)
		metrics.RecordError()
	}
}

// logStructured logs with structured format: timestamp, action, path, operation, error
func (g *guard) logStructured(action, path string, op journal.Operation, err error) {
	logEntry := fmt.Sprintf("[%s] %s path=%s op=%s",
		time.Now().UTC().Format(time.RFC3339),
		action,
		path,
		op,
	)
	if err != nil {
		escaped := strings.ReplaceAll(err.Error(), `"`, `\"`)
		logEntry += fmt.Sprintf(` error="%s"`, escaped)
	}
	g.logger.Info(logEntry)
}

func doneAction(op journal.Operation) string {
	switch op {
	case journal.OpMkdir:
		return "MKDIR"
	case journal.OpTouch:
		return "TOUCH"
	default:
		return "REMOVE"
	}
}
