package pycompleter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/jward/pycompleter/internal/builder"
	"github.com/jward/pycompleter/internal/builtins"
	"github.com/jward/pycompleter/internal/resolver"
	"github.com/jward/pycompleter/internal/store"
	"github.com/jward/pycompleter/internal/symtab"
	"github.com/jward/pycompleter/internal/syntax"
)

const (
	// DefaultLanguageVersion is used when neither the engine nor the request
	// declares one.
	DefaultLanguageVersion = "3.6"
	// DefaultRecursionBudget follows imports of the built file but records
	// the imports of those files with empty tables.
	DefaultRecursionBudget = 1
)

// Engine builds symbol tables and answers completion queries. It holds only
// immutable configuration; every Build starts from scratch, so an Engine
// may serve concurrent builds.
type Engine struct {
	roots    []string
	budget   int
	version  string
	builtins *builtins.Manifest
	logger   zerolog.Logger

	// useParallel enables the worker pool in BuildFiles.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSearchRoots sets the directories searched for imports after the built
// file's own directory, in priority order.
func WithSearchRoots(roots ...string) Option {
	return func(e *Engine) {
		e.roots = append([]string(nil), roots...)
	}
}

// WithRecursionBudget sets how many levels of imports are followed. Zero
// records every import with an empty table.
func WithRecursionBudget(budget int) Option {
	return func(e *Engine) {
		e.budget = budget
	}
}

// WithLanguageVersion sets the default language version, which selects the
// builtin module names that are visible.
func WithLanguageVersion(version string) Option {
	return func(e *Engine) {
		e.version = version
	}
}

// WithBuiltins replaces the embedded builtin module manifest.
func WithBuiltins(m *builtins.Manifest) Option {
	return func(e *Engine) {
		e.builtins = m
	}
}

// WithLogger sets the logger for build diagnostics. The default discards
// everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithParallel controls whether BuildFiles uses a worker pool. When false
// files are built one after another.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// New creates an Engine. The embedded builtin manifest is used unless
// WithBuiltins supplies another.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		budget:      DefaultRecursionBudget,
		version:     DefaultLanguageVersion,
		logger:      zerolog.Nop(),
		useParallel: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.builtins == nil {
		m, err := builtins.Default()
		if err != nil {
			return nil, fmt.Errorf("pycompleter: load builtin manifest: %w", err)
		}
		e.builtins = m
	}
	return e, nil
}

// Request is one build input.
type Request struct {
	// Path is the file identity. It may be empty for an unsaved buffer, in
	// which case the own-directory search and relative imports are skipped.
	Path string
	// Source is the buffer text. When nil, Path is read from disk.
	Source []byte
	// LanguageVersion overrides the engine's language version.
	LanguageVersion string
	// SearchRoots, when non-nil, replaces the engine's search roots.
	SearchRoots []string
}

// Result is a built symbol table and the inputs it was built from.
type Result struct {
	Path            string
	Hash            string
	LanguageVersion string
	Budget          int
	BuiltAt         time.Time
	Table           symtab.Table
}

// Build parses and builds the table for req. Unresolvable imports and
// unparseable nested files never fail the build; the only errors are an
// unreadable root file, a parser failure on the root source and context
// cancellation.
func (e *Engine) Build(ctx context.Context, req Request) (*Result, error) {
	src := req.Source
	if src == nil {
		if req.Path == "" {
			return nil, fmt.Errorf("pycompleter: build: no source and no path")
		}
		data, err := os.ReadFile(req.Path)
		if err != nil {
			return nil, fmt.Errorf("pycompleter: read %s: %w", req.Path, err)
		}
		src = data
	}

	mod, err := syntax.Parse(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("pycompleter: parse %s: %w", displayPath(req.Path), err)
	}

	path, dir := req.Path, ""
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		dir = filepath.Dir(path)
	}

	version := e.version
	if req.LanguageVersion != "" {
		version = req.LanguageVersion
	}
	roots := e.roots
	if req.SearchRoots != nil {
		roots = req.SearchRoots
	}

	start := time.Now()
	s := e.newSession(version, roots)
	table := s.builder.Build(ctx, mod, e.budget, dir)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pycompleter: build %s: %w", displayPath(req.Path), err)
	}
	e.logger.Debug().
		Str("path", displayPath(req.Path)).
		Int("names", table.Len()).
		Int("files", s.parsed).
		Dur("elapsed", time.Since(start)).
		Msg("build complete")

	return &Result{
		Path:            path,
		Hash:            store.ContentHash(src),
		LanguageVersion: version,
		Budget:          e.budget,
		BuiltAt:         start,
		Table:           table,
	}, nil
}

// Complete builds req and returns the candidates for the cursor location
// described by path and partial.
func (e *Engine) Complete(ctx context.Context, req Request, path []string, partial string) (*CompletionList, error) {
	res, err := e.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Complete(path, partial), nil
}

// Complete returns the candidates under path that start with partial.
func (r *Result) Complete(path []string, partial string) *CompletionList {
	return &CompletionList{
		Completions:            Complete(r.Table, path, partial),
		InhibitWordCompletions: true,
	}
}

// Save writes the result to st as a snapshot, replacing any earlier
// snapshot of the same path.
func (r *Result) Save(st *Store) error {
	f := &store.File{
		Path:            r.Path,
		Hash:            r.Hash,
		LanguageVersion: r.LanguageVersion,
		Budget:          r.Budget,
		BuiltAt:         r.BuiltAt,
	}
	if err := st.SaveSnapshot(f, r.Table); err != nil {
		return fmt.Errorf("pycompleter: save %s: %w", displayPath(r.Path), err)
	}
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "<buffer>"
	}
	return path
}

// memoKey identifies one nested build. The same file reached at different
// budgets yields different tables.
type memoKey struct {
	path   string
	budget int
}

// session is the state of a single Build: the resolver and builder wired to
// each other, and the tables of nested files built so far. It is discarded
// when the build returns.
type session struct {
	builder *builder.Builder
	logger  zerolog.Logger
	memo    map[memoKey]symtab.Table
	parsed  int
}

// Compile-time check: *session satisfies resolver.Pipeline.
var _ resolver.Pipeline = (*session)(nil)

func (e *Engine) newSession(version string, roots []string) *session {
	s := &session{
		logger: e.logger,
		memo:   make(map[memoKey]symtab.Table),
	}
	r := resolver.New(resolver.Config{
		Roots:           roots,
		Builtins:        e.builtins,
		LanguageVersion: version,
		Logger:          e.logger,
	}, s)
	s.builder = builder.New(r, e.logger)
	return s
}

// BuildFile builds a file located by the resolver. Failures degrade to an
// empty table. Results are memoised for the rest of the build and handed
// out as deep copies, so no two tables share entries.
func (s *session) BuildFile(ctx context.Context, path string, budget int) symtab.Table {
	key := memoKey{path: path, budget: budget}
	if t, ok := s.memo[key]; ok {
		s.logger.Debug().Str("file", path).Int("budget", budget).Msg("nested build reused")
		return t.Clone()
	}

	mod, err := syntax.ParseFile(ctx, path)
	if err != nil {
		s.logger.Debug().Err(err).Str("file", path).Msg("nested build failed")
		return symtab.New()
	}
	s.parsed++
	t := s.builder.Build(ctx, mod, budget, filepath.Dir(path))
	s.memo[key] = t
	return t.Clone()
}
