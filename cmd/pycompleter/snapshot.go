package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/pycompleter"
	"github.com/jward/pycompleter/internal/store"
)

var flagForce bool

var exportCmd = &cobra.Command{
	Use:   "export <file|dir|pattern>...",
	Short: "Build files and save their tables to the snapshot database",
	Long:  "Builds each file independently, in parallel, and writes every table to the SQLite snapshot database, replacing earlier snapshots of the same files. Directories are searched for .py files and patterns may use ** (e.g. 'src/**/*.py'); --exclude and the config's exclude list drop matches.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&flagForce, "force", false, "delete the database before exporting")
}

func runExport(cmd *cobra.Command, args []string) error {
	dbPath, err := resolveDBPath()
	if err != nil {
		return outputError(cmd, err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError(cmd, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return outputError(cmd, fmt.Errorf("removing database for --force: %w", err))
		}
		logger.Info().Str("db", dbPath).Msg("cleared database")
	}

	paths, err := sourceSet().Expand(args)
	if err != nil {
		return outputError(cmd, err)
	}

	e, err := newEngine(cmd)
	if err != nil {
		return outputError(cmd, err)
	}
	st, err := pycompleter.OpenStore(dbPath)
	if err != nil {
		return outputError(cmd, err)
	}
	defer st.Close()

	files, err := exportFiles(cmd.Context(), e, st, paths)
	if err != nil {
		return outputError(cmd, err)
	}
	logger.Info().Int("files", len(files)).Str("db", dbPath).Msg("exported snapshots")

	return outputResult(cmd, CLIResult{Command: "export", Results: CLIExport{Database: dbPath, Files: files}})
}

// exportFiles builds paths in parallel and saves every table.
func exportFiles(ctx context.Context, e *pycompleter.Engine, st *store.Store, paths []string) ([]CLIFile, error) {
	results, err := e.BuildFiles(ctx, paths)
	if err != nil {
		return nil, err
	}

	files := make([]CLIFile, 0, len(results))
	for _, res := range results {
		if err := res.Save(st); err != nil {
			return nil, err
		}
		f, err := st.FileByPath(res.Path)
		if err != nil {
			return nil, err
		}
		if f == nil {
			return nil, fmt.Errorf("snapshot of %s missing after save", res.Path)
		}
		syms, err := st.SymbolsByFile(f.ID)
		if err != nil {
			return nil, err
		}
		files = append(files, fileToCLI(f, len(syms)))
	}
	return files, nil
}

var (
	flagKind   string
	flagFile   string
	flagParent int64
	flagTree   bool
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [name]",
	Short: "List symbols stored in the snapshot database",
	Long:  "Lists stored symbols. The name argument, --kind (class|function|variable|import|builtin), --file and --parent (members of a symbol ID) combine as filters. With --tree, prints the table stored for --file as a nested tree.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSymbols,
}

func init() {
	symbolsCmd.Flags().StringVar(&flagKind, "kind", "", "only symbols of this kind")
	symbolsCmd.Flags().StringVar(&flagFile, "file", "", "only symbols of this snapshot file")
	symbolsCmd.Flags().Int64Var(&flagParent, "parent", 0, "only members of the symbol with this ID")
	symbolsCmd.Flags().BoolVar(&flagTree, "tree", false, "print the stored table of --file as a tree")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return outputError(cmd, err)
	}
	defer st.Close()

	if flagTree {
		return runSymbolsTree(cmd, st, args)
	}

	var file *store.File
	if flagFile != "" {
		if file, err = snapshotFile(st, flagFile); err != nil {
			return outputError(cmd, err)
		}
	}
	byParent := cmd.Flags().Changed("parent")

	var syms []*store.Symbol
	switch {
	case len(args) == 1:
		syms, err = st.SymbolsByName(args[0])
	case byParent:
		syms, err = st.SymbolChildren(flagParent)
	case file != nil:
		syms, err = st.SymbolsByFile(file.ID)
	case flagKind != "":
		syms, err = st.SymbolsByKind(flagKind)
	default:
		syms, err = allSymbols(st)
	}
	if err != nil {
		return outputError(cmd, err)
	}

	paths := make(map[int64]string)
	out := make([]CLISymbol, 0, len(syms))
	for _, sym := range syms {
		switch {
		case len(args) == 1 && sym.Name != args[0]:
			continue
		case flagKind != "" && sym.Kind != flagKind:
			continue
		case file != nil && sym.FileID != file.ID:
			continue
		case byParent && (sym.ParentSymbolID == nil || *sym.ParentSymbolID != flagParent):
			continue
		}
		if _, ok := paths[sym.FileID]; !ok {
			paths[sym.FileID] = lookupFilePath(st, sym.FileID)
		}
		out = append(out, symbolToCLI(sym, paths[sym.FileID]))
	}

	total := len(out)
	return outputResult(cmd, CLIResult{Command: "symbols", Results: out, TotalCount: &total})
}

// runSymbolsTree rebuilds the table stored for --file and prints it the way
// build does.
func runSymbolsTree(cmd *cobra.Command, st *store.Store, args []string) error {
	if flagFile == "" {
		return outputError(cmd, fmt.Errorf("--tree requires --file"))
	}
	if len(args) > 0 || flagKind != "" || cmd.Flags().Changed("parent") {
		return outputError(cmd, fmt.Errorf("--tree cannot be combined with a name, --kind or --parent"))
	}
	abs, err := resolveFilePath(flagFile)
	if err != nil {
		return outputError(cmd, err)
	}
	f, tbl, err := st.LoadSnapshot(abs)
	if err != nil {
		return outputError(cmd, err)
	}
	if f == nil {
		return outputError(cmd, fmt.Errorf("no snapshot for %s", abs))
	}
	return outputResult(cmd, CLIResult{
		Command: "symbols",
		Results: CLIBuild{
			Path:            f.Path,
			Hash:            f.Hash,
			LanguageVersion: f.LanguageVersion,
			Budget:          f.Budget,
			Entries:         tableToCLI(tbl),
		},
	})
}

// snapshotFile looks up the stored file for a path argument.
func snapshotFile(st *store.Store, file string) (*store.File, error) {
	abs, err := resolveFilePath(file)
	if err != nil {
		return nil, err
	}
	f, err := st.FileByPath(abs)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("no snapshot for %s", abs)
	}
	return f, nil
}

func allSymbols(st *store.Store) ([]*store.Symbol, error) {
	files, err := st.Files()
	if err != nil {
		return nil, err
	}
	var all []*store.Symbol
	for _, f := range files {
		syms, err := st.SymbolsByFile(f.ID)
		if err != nil {
			return nil, err
		}
		all = append(all, syms...)
	}
	return all, nil
}

// openStore opens the snapshot database without creating it.
func openStore() (*store.Store, error) {
	dbPath, err := resolveDBPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'pycompleter export' first)", dbPath)
	}
	return store.NewStore(dbPath)
}

// resolveFilePath converts a file argument to an absolute path.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

func lookupFilePath(st *store.Store, fileID int64) string {
	f, err := st.FileByID(fileID)
	if err != nil || f == nil {
		return ""
	}
	return f.Path
}

func symbolToCLI(sym *store.Symbol, filePath string) CLISymbol {
	return CLISymbol{
		ID:       sym.ID,
		Name:     sym.Name,
		Kind:     sym.Kind,
		Tag:      sym.Tag,
		Depth:    sym.Depth,
		ParentID: sym.ParentSymbolID,
		File:     filePath,
	}
}

func fileToCLI(f *store.File, symbolCount int) CLIFile {
	return CLIFile{
		ID:              f.ID,
		Path:            f.Path,
		Hash:            f.Hash,
		LanguageVersion: f.LanguageVersion,
		Budget:          f.Budget,
		SymbolCount:     symbolCount,
	}
}
