package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/pycompleter"
)

var (
	flagStdin bool
	flagPath  string
)

var completeCmd = &cobra.Command{
	Use:   "complete <file> <offset>",
	Short: "List completion candidates at a byte offset",
	Long: "Builds the file and lists the names visible at the cursor. The dotted identifier before the offset selects the table " +
		"and the partial identifier under the cursor filters it. With --stdin the buffer text is read from standard input " +
		"and <file> is only the file identity; pass - for an unsaved buffer.",
	Args: cobra.ExactArgs(2),
	RunE: runComplete,
}

func init() {
	completeCmd.Flags().BoolVar(&flagStdin, "stdin", false, "read the buffer text from standard input")
	completeCmd.Flags().StringVar(&flagPath, "path", "", "file identity used for own-directory and relative imports (default: <file>)")
}

func runComplete(cmd *cobra.Command, args []string) error {
	offset, err := parseIntArg(args[1], "offset")
	if err != nil {
		return outputError(cmd, err)
	}

	req := pycompleter.Request{Path: args[0]}
	if req.Path == "-" {
		req.Path = ""
	}
	if flagPath != "" {
		req.Path = flagPath
	}

	if flagStdin || args[0] == "-" {
		src, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return outputError(cmd, fmt.Errorf("reading stdin: %w", err))
		}
		req.Source = src
	} else {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return outputError(cmd, fmt.Errorf("reading %s: %w", args[0], err))
		}
		req.Source = src
	}
	if offset > len(req.Source) {
		return outputError(cmd, fmt.Errorf("invalid offset %d: buffer is %d bytes", offset, len(req.Source)))
	}

	list := &pycompleter.CompletionList{Completions: []pycompleter.Completion{}, InhibitWordCompletions: true}
	path, partial, ok := cursorContext(req.Source, offset)
	if ok {
		e, err := newEngine(cmd)
		if err != nil {
			return outputError(cmd, err)
		}
		res, err := e.Build(cmd.Context(), req)
		if err != nil {
			return outputError(cmd, err)
		}
		list = res.Complete(path, partial)
	}
	logger.Debug().Strs("path", path).Str("partial", partial).Int("candidates", len(list.Completions)).Msg("complete")

	total := len(list.Completions)
	return outputResult(cmd, CLIResult{
		Command:    "complete",
		Results:    list,
		TotalCount: &total,
	})
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}
