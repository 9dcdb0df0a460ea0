package store

import "time"

// File is one snapshotted build.
type File struct {
	ID              int64
	Path            string
	Hash            string
	LanguageVersion string
	Budget          int
	BuiltAt         time.Time
}

// Symbol is one table entry. Nested member tables are stored as children
// through ParentSymbolID; Depth is 0 for top-level names.
type Symbol struct {
	ID             int64
	FileID         int64
	Name           string
	Kind           string
	Tag            string
	Depth          int
	ParentSymbolID *int64
}
