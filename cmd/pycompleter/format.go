package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jward/pycompleter"
)

// outputResult writes result to the command's stdout in the --format
// selected.
func outputResult(cmd *cobra.Command, result CLIResult) error {
	w := cmd.OutOrStdout()
	if flagFormat == "text" {
		return outputResultText(w, result)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError reports err in the --format selected and returns it so RunE
// exits non-zero. JSON errors go to stdout inside the envelope; text errors
// go to stderr.
func outputError(cmd *cobra.Command, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: cmd.Name(),
		Error:   err.Error(),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}

// formatEntriesText prints a table as an indented tree of "name  tag" lines.
func formatEntriesText(w io.Writer, entries []CLIEntry, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, e := range entries {
		fmt.Fprintf(w, "%s%s  %s\n", indent, e.Name, e.Tag)
		formatEntriesText(w, e.Members, depth+1)
	}
}

// formatBuildText prints the build header followed by the table tree.
func formatBuildText(w io.Writer, b CLIBuild) {
	path := b.Path
	if path == "" {
		path = "<buffer>"
	}
	fmt.Fprintf(w, "# %s (language %s, budget %d)\n", path, b.LanguageVersion, b.Budget)
	formatEntriesText(w, b.Entries, 0)
}

// formatCompletionsText prints one candidate label per line; the label
// already separates the name from its tag with a tab.
func formatCompletionsText(w io.Writer, list *pycompleter.CompletionList) {
	for _, c := range list.Completions {
		fmt.Fprintln(w, c.Label)
	}
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tTAG\tDEPTH\tFILE")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			s.ID, s.Name, s.Kind, s.Tag, s.Depth, s.File)
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tVERSION\tBUDGET\tSYMBOLS")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n",
			f.ID, f.Path, f.LanguageVersion, f.Budget, f.SymbolCount)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case CLIBuild:
		formatBuildText(w, v)
	case *pycompleter.CompletionList:
		formatCompletionsText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case CLIExport:
		fmt.Fprintf(w, "Database: %s\n", v.Database)
		formatFilesText(w, v.Files)
	case CLIWatch:
		fmt.Fprintf(w, "Database: %s\nexported %d, rebuilt %d, removed %d\n", v.Database, v.Exported, v.Rebuilt, v.Removed)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
