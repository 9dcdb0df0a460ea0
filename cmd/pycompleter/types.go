package main

import "github.com/jward/pycompleter"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLIBuild is a built file and its symbol table.
type CLIBuild struct {
	Path            string     `json:"path,omitempty"`
	Hash            string     `json:"hash"`
	LanguageVersion string     `json:"language_version"`
	Budget          int        `json:"budget"`
	Entries         []CLIEntry `json:"entries"`
}

// CLIEntry is a JSON-friendly table entry. Members are omitted for entries
// without a member table or with an empty one.
type CLIEntry struct {
	Name    string     `json:"name"`
	Kind    string     `json:"kind"`
	Tag     string     `json:"tag"`
	Members []CLIEntry `json:"members,omitempty"`
}

// CLISymbol is a JSON-friendly snapshot symbol.
type CLISymbol struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Tag      string `json:"tag"`
	Depth    int    `json:"depth"`
	ParentID *int64 `json:"parent_id,omitempty"`
	File     string `json:"file,omitempty"`
}

// CLIFile is a JSON-friendly snapshot file.
type CLIFile struct {
	ID              int64  `json:"id"`
	Path            string `json:"path"`
	Hash            string `json:"hash"`
	LanguageVersion string `json:"language_version"`
	Budget          int    `json:"budget"`
	SymbolCount     int    `json:"symbol_count"`
}

// CLIExport is the result of writing snapshots.
type CLIExport struct {
	Database string    `json:"database"`
	Files    []CLIFile `json:"files"`
}

// CLIWatch summarizes a watch session.
type CLIWatch struct {
	Database string `json:"database"`
	Exported int    `json:"exported"`
	Rebuilt  int    `json:"rebuilt"`
	Removed  int    `json:"removed"`
}

// tableToCLI flattens t into sorted entries, recursing into member tables.
func tableToCLI(t pycompleter.Table) []CLIEntry {
	keys := t.Keys()
	out := make([]CLIEntry, 0, len(keys))
	for _, name := range keys {
		e := t[name]
		out = append(out, CLIEntry{
			Name:    name,
			Kind:    e.Kind().String(),
			Tag:     e.Tag(),
			Members: tableToCLI(e.Members()),
		})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
