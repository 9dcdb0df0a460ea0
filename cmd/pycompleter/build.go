package main

import (
	"github.com/spf13/cobra"

	"github.com/jward/pycompleter"
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Build and print the symbol table of a file",
	Long:  "Parses the file, follows its imports up to the recursion budget and prints the resulting nested table.",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	e, err := newEngine(cmd)
	if err != nil {
		return outputError(cmd, err)
	}
	res, err := e.Build(cmd.Context(), pycompleter.Request{Path: args[0]})
	if err != nil {
		return outputError(cmd, err)
	}
	logger.Debug().Str("path", res.Path).Int("top_level", len(res.Table)).Msg("built")

	return outputResult(cmd, CLIResult{
		Command: "build",
		Results: CLIBuild{
			Path:            res.Path,
			Hash:            res.Hash,
			LanguageVersion: res.LanguageVersion,
			Budget:          res.Budget,
			Entries:         tableToCLI(res.Table),
		},
	})
}
