// Package pycompleter builds static symbol tables for Python source files and
// answers code-completion queries against them.
//
// # Pipeline
//
// A build runs in three steps:
//
//  1. Parse: the source is parsed with tree-sitter and lowered into a small,
//     closed set of statement kinds.
//
//  2. Build: the statements are walked and every class, function, variable
//     and import is bound in a nested table. Class bodies get a table of
//     their own; function bodies are not indexed.
//
//  3. Resolve: each import is looked up in the builtin module manifest or
//     located on the search path (the file's own directory first, then the
//     configured roots) and the located file is built in turn, under a
//     recursion budget that bounds how deep imports are followed.
//
// Nothing is cached across builds. Within one build a file reached twice at
// the same budget is parsed once.
//
// # Usage
//
//	e, err := pycompleter.New(
//		pycompleter.WithSearchRoots("/usr/lib/python3.8"),
//		pycompleter.WithLanguageVersion("3.8"),
//	)
//	if err != nil { ... }
//
//	ctx := context.Background()
//	list, err := e.Complete(ctx, pycompleter.Request{Path: "main.py"}, []string{"os"}, "ge")
//
// # Completion
//
// [Complete] descends a table by the dotted identifier before the cursor and
// returns the names starting with the partial identifier, sorted, each
// labelled with its kind tag: "Class", the function signature such as
// "(self,x,[y])", "Variable", "Import", "Import <module>" for from-imports,
// or "builtin".
//
// # Snapshots
//
// [Result.Save] writes a built table to a SQLite database for inspection by
// other tools. Builds never read snapshots back.
package pycompleter
