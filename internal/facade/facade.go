// Package facade assembles every path capability into one value.
//
// Path embeds one interface per capability. Each capability is built and
// tested on its own; Path only wires them to a shared resolver, validator,
// journal and throttle.
package facade

import (
	"fmt"
	"log"

	"pathguard/internal/config"
	"pathguard/internal/database"
	"pathguard/internal/fsops"
	"pathguard/internal/guard"
	"pathguard/internal/journal"
	"pathguard/internal/limiter"
	"pathguard/internal/resolve"
	"pathguard/internal/safety"
)

// Resolver turns segments into an absolute path
type Resolver interface {
	Resolve(segments ...string) (string, error)
	Cwd() (string, error)
}

// Validator answers the access questions
type Validator interface {
	IsValid(path string) (string, error)
	IsFile(path string) (string, error)
	IsExecutable(path string) (string, error)
}

// DirCreator creates one directory below a valid parent
type DirCreator interface {
	Mkdir(path string) (string, error)
}

// Toucher creates or truncates a batch of files
type Toucher interface {
	Touch(paths []string) (string, error)
}

// Remover removes batches of directories or files
type Remover interface {
	RmDir(paths []string) (string, error)
	RmFile(paths []string) (string, error)
}

// Path is the composed facade. The embedded Flavor is the flavor of the
// running OS.
type Path struct {
	Resolver
	resolve.Flavor
	Validator
	DirCreator
	Toucher
	Remover

	memory  *journal.Memory
	history *database.HistoryDB
}

type options struct {
	workdir string
	ops     fsops.Ops
	journal journal.Journal
}

// Option customizes New
type Option func(*options)

// WithWorkdir fixes the working directory relative paths resolve against
func WithWorkdir(dir string) Option {
	return func(o *options) { o.workdir = dir }
}

// WithOps replaces the filesystem seam of every mutator
func WithOps(ops fsops.Ops) Option {
	return func(o *options) { o.ops = ops }
}

// WithJournal adds a caller-owned journal next to the built-in memory journal
func WithJournal(j journal.Journal) Option {
	return func(o *options) { o.journal = j }
}

// New builds a facade from configuration. When history is enabled the
// SQLite store is opened, pruned to the retention window and journaled to;
// call Close to release it.
func New(cfg *config.Config, logger *log.Logger, opts ...Option) (*Path, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Default()
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	resolver := resolve.NewResolver()
	if o.workdir != "" {
		resolver = resolve.NewResolverAt(o.workdir)
	}
	validator := safety.NewValidator(resolver, cfg.AllowedRoots, cfg.ProtectedPaths)
	if cfg.ReplaceProtectedDefaults {
		validator = safety.NewValidatorWithProtected(resolver, cfg.AllowedRoots, cfg.ProtectedPaths)
	}

	p := &Path{memory: journal.NewMemory()}
	sinks := journal.Multi{p.memory}
	if o.journal != nil {
		sinks = append(sinks, o.journal)
	}

	if cfg.History.Enabled {
		db, err := database.NewHistoryDB(cfg.History.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		if n, err := db.DeleteOlderThan(cfg.History.RetentionDays); err != nil {
			logger.Printf("[ERROR] Failed to prune history: %v", err)
		} else if n > 0 {
			logger.Printf("[INFO] Pruned history records=%d", n)
		}
		p.history = db
		sinks = append(sinks, db)
	}

	throttle := limiter.NewThrottle(cfg.Throttle.MaxOpsPerSecond)

	creator := guard.NewDirectoryCreator(resolver, validator, logger)
	toucher := guard.NewFileToucher(resolver, validator, logger)
	remover := guard.NewRemover(resolver, validator, logger)

	for _, g := range []mutator{creator, toucher, remover} {
		g.SetJournal(sinks)
		g.SetThrottle(throttle)
		if o.ops != nil {
			g.SetOps(o.ops)
		}
	}

	p.Resolver = resolver
	p.Flavor = resolve.WithWorkdir(resolve.CrossPath(), resolver.Cwd)
	p.Validator = validator
	p.DirCreator = creator
	p.Toucher = toucher
	p.Remover = remover
	return p, nil
}

// mutator is the setter surface shared by the guard components
type mutator interface {
	SetJournal(journal.Journal)
	SetThrottle(*limiter.Throttle)
	SetOps(fsops.Ops)
}

// Posix returns the POSIX flavor regardless of the running OS. Like every
// flavor of the facade, its Relative uses the facade's working directory.
func (p *Path) Posix() resolve.Flavor { return resolve.WithWorkdir(resolve.Posix(), p.Cwd) }

// Native returns the flavor of the running OS
func (p *Path) Native() resolve.Flavor { return resolve.WithWorkdir(resolve.Native(), p.Cwd) }

// CrossPath returns the flavor of the running OS
func (p *Path) CrossPath() resolve.Flavor { return resolve.WithWorkdir(resolve.CrossPath(), p.Cwd) }

// RemovalLog returns every "removed -> <path>" line produced by this facade,
// across all RmDir and RmFile calls, oldest first.
func (p *Path) RemovalLog() []string {
	return p.memory.Lines(journal.OpRmDir, journal.OpRmFile)
}

// TouchLog returns every "touched -> <path>" line produced by this facade
func (p *Path) TouchLog() []string {
	return p.memory.Lines(journal.OpTouch)
}

// Journal returns the in-memory journal shared by all mutators of this facade
func (p *Path) Journal() *journal.Memory {
	return p.memory
}

// History returns the SQLite store, nil when history is disabled
func (p *Path) History() *database.HistoryDB {
	return p.history
}

// Close releases the history store
func (p *Path) Close() error {
	if p.history == nil {
		return nil
	}
	return p.history.Close()
}
