package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jward/pycompleter"
	"github.com/jward/pycompleter/internal/config"
	"github.com/jward/pycompleter/internal/sources"
)

var (
	flagConfig          string
	flagDB              string
	flagFormat          string
	flagLogLevel        string
	flagBudget          int
	flagRoots           []string
	flagLanguageVersion string
	flagExclude         []string
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

// Loaded in PersistentPreRunE.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "pycompleter",
	Short:         "Static completion candidates for Python source",
	Long:          "pycompleter parses Python files with tree-sitter, follows their imports to a bounded depth and answers completion queries against the resulting symbol tables.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFormat(flagFormat); err != nil {
			return err
		}
		return loadSettings()
	},
	// No Run; prints help by default.
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: "+config.FileName+" found by walking up from the working directory)")
	pf.StringVar(&flagDB, "db", "", "snapshot database path (default: .pycompleter/snapshots.db next to the config file)")
	pf.StringVar(&flagFormat, "format", "json", "output format: json|text")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error|disabled")
	pf.IntVar(&flagBudget, "budget", config.DefaultRecursionBudget, "how many levels of imports to follow")
	pf.StringSliceVar(&flagRoots, "root", nil, "search root, repeatable; replaces the configured roots")
	pf.StringVar(&flagLanguageVersion, "language-version", "", "language version selecting builtin module names (e.g. 3.8)")
	pf.StringSliceVar(&flagExclude, "exclude", nil, "doublestar pattern of files to skip, repeatable; added to the configured excludes")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(watchCmd)
}

// loadSettings reads the config file and sets up the logger.
func loadSettings() error {
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		var cwd string
		if cwd, err = os.Getwd(); err != nil {
			return fmt.Errorf("getting cwd: %w", err)
		}
		cfg, err = config.Discover(cwd)
	}
	if err != nil {
		return err
	}

	level := cfg.Log.LevelOrDefault()
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger, err = newLogger(level)
	return err
}

// newLogger writes human-readable logs to stderr, colored only on a
// terminal so stdout stays machine-readable.
func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	w := zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// newEngine creates an engine from the config file, with command-line flags
// taking precedence.
func newEngine(cmd *cobra.Command) (*pycompleter.Engine, error) {
	roots := cfg.SearchRoots
	if cmd.Flags().Changed("root") {
		roots = make([]string, len(flagRoots))
		for i, r := range flagRoots {
			abs, err := filepath.Abs(r)
			if err != nil {
				return nil, fmt.Errorf("resolving root %q: %w", r, err)
			}
			roots[i] = abs
		}
	}

	budget := cfg.BudgetOrDefault()
	if cmd.Flags().Changed("budget") {
		if flagBudget < 0 {
			return nil, fmt.Errorf("invalid budget %d: must be non-negative", flagBudget)
		}
		budget = flagBudget
	}

	version := cfg.LanguageVersionOrDefault()
	if flagLanguageVersion != "" {
		version = flagLanguageVersion
	}

	return pycompleter.New(
		pycompleter.WithSearchRoots(roots...),
		pycompleter.WithRecursionBudget(budget),
		pycompleter.WithLanguageVersion(version),
		pycompleter.WithLogger(logger),
	)
}

// sourceSet selects the files export and watch pick up from directories and
// patterns.
func sourceSet() sources.Set {
	excludes := append([]string(nil), cfg.Exclude...)
	return sources.Set{Excludes: append(excludes, flagExclude...)}
}

// resolveDBPath returns the database path from the --db flag, the config
// file, or the default next to the config file (or working directory).
func resolveDBPath() (string, error) {
	if flagDB != "" {
		return filepath.Abs(flagDB)
	}
	if cfg.Database != "" {
		return cfg.Database, nil
	}
	base := ""
	if cfg.Path != "" {
		base = filepath.Dir(cfg.Path)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting cwd: %w", err)
		}
		base = cwd
	}
	return defaultDBPath(base), nil
}

func defaultDBPath(base string) string {
	return filepath.Join(base, ".pycompleter", "snapshots.db")
}
