package pycompleter

import (
	"sort"
	"strings"

	"github.com/jward/pycompleter/internal/symtab"
)

// Completion is one candidate. Label is the name and its kind tag separated
// by a tab; Insert is the text placed in the buffer.
type Completion struct {
	Label  string `json:"label"`
	Insert string `json:"insert"`
}

// CompletionList is the response to a completion request.
type CompletionList struct {
	Completions []Completion `json:"completions"`
	// InhibitWordCompletions asks the editor not to add its own word-based
	// candidates.
	InhibitWordCompletions bool `json:"inhibit_word_completions"`
}

// Complete descends t by path and returns every name there that starts
// with partial, sorted by name. A path segment that is missing or has no
// members yields an empty result; Complete never fails.
func Complete(t symtab.Table, path []string, partial string) []Completion {
	scope := t.Walk(path)

	names := make([]string, 0, len(scope))
	for name := range scope {
		if strings.HasPrefix(name, partial) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]Completion, len(names))
	for i, name := range names {
		out[i] = Completion{
			Label:  name + "\t" + scope[name].Tag(),
			Insert: name,
		}
	}
	return out
}

// Lookup returns the entry at the end of a dotted path, descending through
// member tables.
func Lookup(t symtab.Table, path []string) (symtab.Entry, bool) {
	if len(path) == 0 {
		return nil, false
	}
	return t.Walk(path[:len(path)-1]).Get(path[len(path)-1])
}
