package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/jward/pycompleter/internal/symtab"
)

// SaveSnapshot stores t as the snapshot for f.Path within a single
// transaction, replacing any earlier snapshot of the same path. Symbols are
// inserted parents first, in sorted key order, so ids are deterministic for
// a given table. On success f.ID is set.
func (s *Store) SaveSnapshot(f *File, t symtab.Table) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("save snapshot: begin: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRow("SELECT id FROM files WHERE path = ?", f.Path).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("save snapshot: lookup %s: %w", f.Path, err)
	default:
		if err := deleteFileTx(tx, existing); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	res, err := tx.Exec(
		"INSERT INTO files (path, hash, language_version, budget, built_at) VALUES (?, ?, ?, ?, ?)",
		f.Path, f.Hash, f.LanguageVersion, f.Budget, f.BuiltAt,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: insert file: %w", err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("save snapshot: last insert id: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO symbols (file_id, name, kind, tag, depth, parent_symbol_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("save snapshot: prepare: %w", err)
	}
	defer stmt.Close()

	if err := insertTable(stmt, fileID, nil, 0, t); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save snapshot: commit: %w", err)
	}
	f.ID = fileID
	return nil
}

func insertTable(stmt *sql.Stmt, fileID int64, parent *int64, depth int, t symtab.Table) error {
	for _, name := range t.Keys() {
		e := t[name]
		res, err := stmt.Exec(fileID, name, e.Kind().String(), e.Tag(), depth, parent)
		if err != nil {
			return fmt.Errorf("symbol %q: %w", name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("symbol %q: last insert id: %w", name, err)
		}
		if members := e.Members(); len(members) > 0 {
			if err := insertTable(stmt, fileID, &id, depth+1, members); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadSnapshot rebuilds the table stored for path. It returns a nil File
// when no snapshot exists.
func (s *Store) LoadSnapshot(path string) (*File, symtab.Table, error) {
	f, err := s.FileByPath(path)
	if err != nil || f == nil {
		return nil, nil, err
	}
	symbols, err := s.SymbolsByFile(f.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}

	root := symtab.New()
	members := make(map[int64]symtab.Table)
	for _, sym := range symbols {
		e, err := entryFor(sym)
		if err != nil {
			return nil, nil, fmt.Errorf("load snapshot %s: %w", path, err)
		}
		if m := e.Members(); m != nil {
			members[sym.ID] = m
		}

		target := root
		if sym.ParentSymbolID != nil {
			parent, ok := members[*sym.ParentSymbolID]
			if !ok {
				return nil, nil, fmt.Errorf("load snapshot %s: symbol %q: parent %d has no members", path, sym.Name, *sym.ParentSymbolID)
			}
			target = parent
		}
		target.Set(sym.Name, e)
	}
	return f, root, nil
}

// entryFor reconstructs an entry from its stored kind and tag. Member tables
// start empty and are filled by the symbol's children.
func entryFor(sym *Symbol) (symtab.Entry, error) {
	switch sym.Kind {
	case symtab.KindClass.String():
		return &symtab.Class{Table: symtab.New()}, nil
	case symtab.KindFunction.String():
		return &symtab.Function{Signature: sym.Tag}, nil
	case symtab.KindVariable.String():
		return &symtab.Variable{}, nil
	case symtab.KindImport.String():
		source := strings.TrimPrefix(strings.TrimPrefix(sym.Tag, "Import"), " ")
		return &symtab.Import{Source: source, Resolved: symtab.New()}, nil
	case symtab.KindBuiltin.String():
		return &symtab.Builtin{}, nil
	}
	return nil, fmt.Errorf("symbol %q: unknown kind %q", sym.Name, sym.Kind)
}

// DeleteSnapshot removes the snapshot stored for path. It reports whether
// one existed.
func (s *Store) DeleteSnapshot(path string) (bool, error) {
	f, err := s.FileByPath(path)
	if err != nil || f == nil {
		return false, err
	}
	if err := s.DeleteFileData(f.ID); err != nil {
		return false, fmt.Errorf("delete snapshot %s: %w", path, err)
	}
	return true, nil
}
