// Package builder walks a lowered syntax tree and produces the nested symbol
// table for it. Imports are handed to a Resolver, which may in turn build
// other files.
package builder

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jward/pycompleter/internal/resolver"
	"github.com/jward/pycompleter/internal/symtab"
	"github.com/jward/pycompleter/internal/syntax"
)

// Resolver turns an import request into the table it refers to. It must
// never fail: unresolvable requests yield an empty table.
type Resolver interface {
	Resolve(ctx context.Context, req resolver.Request) symtab.Table
}

// Builder builds symbol tables. It holds no per-build state and may be
// shared between goroutines when its Resolver may.
type Builder struct {
	resolver Resolver
	logger   zerolog.Logger
}

// New returns a Builder that resolves imports through r.
func New(r Resolver, logger zerolog.Logger) *Builder {
	return &Builder{resolver: r, logger: logger}
}

// scope is the traversal state handed down by value. Nothing in it is
// modified in place, so returning from a nested visit restores it.
type scope struct {
	// budget is the number of import levels that may still be followed.
	budget int
	// dir is the directory of the file being built, empty for unsaved
	// buffers.
	dir string
}

// Build returns a fresh table for mod. budget bounds how many levels of
// imports are followed; dir is the directory of the file mod was parsed
// from, or empty when the source has no file identity.
func (b *Builder) Build(ctx context.Context, mod *syntax.Node, budget int, dir string) symtab.Table {
	if mod == nil {
		return symtab.New()
	}
	return b.table(ctx, scope{budget: budget, dir: dir}, mod.Children)
}

func (b *Builder) table(ctx context.Context, sc scope, stmts []*syntax.Node) symtab.Table {
	t := symtab.New()
	b.statements(ctx, sc, stmts, t)
	return t
}

func (b *Builder) statements(ctx context.Context, sc scope, stmts []*syntax.Node, t symtab.Table) {
	for _, n := range stmts {
		b.visit(ctx, sc, n, t)
	}
}

func (b *Builder) visit(ctx context.Context, sc scope, n *syntax.Node, t symtab.Table) {
	switch n.Kind {
	case syntax.KindModule, syntax.KindBlock, syntax.KindConditional:
		b.statements(ctx, sc, n.Children, t)

	case syntax.KindClass:
		if n.Name == "" {
			return
		}
		t.Set(n.Name, &symtab.Class{Table: b.table(ctx, sc, n.Children)})

	case syntax.KindFunction:
		if n.Name == "" {
			return
		}
		t.Set(n.Name, &symtab.Function{Signature: RenderSignature(n.Params)})

	case syntax.KindImportName:
		for _, imp := range n.Imports {
			b.importName(ctx, sc, imp, t)
		}

	case syntax.KindImportFrom:
		for _, imp := range n.Imports {
			t.Set(imp.Name, &symtab.Import{
				Source:   imp.Source,
				Resolved: b.resolve(ctx, sc, imp),
			})
		}

	case syntax.KindExprStmt:
		for _, name := range n.Targets {
			t.Set(name, &symtab.Variable{})
		}

	case syntax.KindOther:
		b.logger.Debug().Str("type", n.Type).Int("line", n.Line).Msg("statement skipped")

	default:
		b.logger.Debug().Stringer("kind", n.Kind).Int("line", n.Line).Msg("unknown statement kind")
	}
}

// importName binds one name of a plain import statement. "import a.b.c"
// binds a to a chain a -> b -> c ending in the resolved module, merged into
// any import already bound to a, and also binds the flat key "a.b.c".
func (b *Builder) importName(ctx context.Context, sc scope, imp syntax.Import, t symtab.Table) {
	resolved := &symtab.Import{Resolved: b.resolve(ctx, sc, imp)}
	if imp.Aliased || len(imp.Path) == 1 {
		t.Set(imp.Name, resolved)
		return
	}

	flat := &symtab.Import{Resolved: resolved.Resolved.Clone()}
	t.MergeImport(imp.Path[0], &symtab.Import{Resolved: chain(imp.Path[1:], resolved)})
	t.Set(strings.Join(imp.Path, "."), flat)
}

// chain nests leaf under one single-key table per segment.
func chain(segs []string, leaf *symtab.Import) symtab.Table {
	t := symtab.New()
	if len(segs) == 1 {
		t.Set(segs[0], leaf)
		return t
	}
	t.Set(segs[0], &symtab.Import{Resolved: chain(segs[1:], leaf)})
	return t
}

func (b *Builder) resolve(ctx context.Context, sc scope, imp syntax.Import) symtab.Table {
	t := b.resolver.Resolve(ctx, resolver.Request{
		Path:    imp.Path,
		Level:   imp.Level,
		Budget:  sc.budget,
		FileDir: sc.dir,
	})
	if t == nil {
		return symtab.New()
	}
	return t
}
