package pycompleter

import (
	"github.com/jward/pycompleter/internal/store"
	"github.com/jward/pycompleter/internal/symtab"
)

// Public type aliases for the internal types that appear in the Engine API.

type Table = symtab.Table
type Entry = symtab.Entry
type Kind = symtab.Kind
type Class = symtab.Class
type Function = symtab.Function
type Variable = symtab.Variable
type Import = symtab.Import
type Builtin = symtab.Builtin

type Store = store.Store
type File = store.File
type Symbol = store.Symbol

// OpenStore opens (creating if needed) a snapshot database at dbPath.
func OpenStore(dbPath string) (*Store, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
