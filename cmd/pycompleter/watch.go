package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/pycompleter"
	"github.com/jward/pycompleter/internal/store"
	"github.com/jward/pycompleter/internal/watch"
)

var flagDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]...",
	Short: "Keep the snapshot database current while files change",
	Long:  "Exports every .py file below the directories (default: the working directory), then rebuilds files as they are written and drops the snapshots of removed files until interrupted. Prints a summary on exit.",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", watch.DefaultDebounce, "quiet period before a burst of changes is rebuilt")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dirs := args
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	for i, dir := range dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return outputError(cmd, fmt.Errorf("resolving %q: %w", dir, err))
		}
		dirs[i] = abs
	}

	set := sourceSet()
	paths, err := set.Under(dirs...)
	if err != nil {
		return outputError(cmd, err)
	}

	dbPath, err := resolveDBPath()
	if err != nil {
		return outputError(cmd, err)
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return outputError(cmd, fmt.Errorf("creating %s: %w", filepath.Dir(dbPath), err))
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

	ctx := cmd.Context()
	summary := CLIWatch{Database: dbPath}
	if len(paths) > 0 {
		files, err := exportFiles(ctx, e, st, paths)
		if err != nil {
			return outputError(cmd, err)
		}
		summary.Exported = len(files)
	}
	logger.Info().Int("files", summary.Exported).Strs("dirs", dirs).Msg("watching")

	w, err := watch.New(flagDebounce, set, logger, func(changed []string) {
		rebuilt, removed, err := applyChanges(ctx, e, st, changed)
		summary.Rebuilt += rebuilt
		summary.Removed += removed
		if err != nil {
			logger.Error().Err(err).Strs("paths", changed).Msg("updating snapshots")
			return
		}
		logger.Info().Int("rebuilt", rebuilt).Int("removed", removed).Msg("snapshots updated")
	})
	if err != nil {
		return outputError(cmd, err)
	}
	if err := w.Watch(dirs); err != nil {
		_ = w.Close()
		return outputError(cmd, err)
	}

	<-ctx.Done()
	if err := w.Close(); err != nil {
		logger.Warn().Err(err).Msg("closing watcher")
	}
	return outputResult(cmd, CLIResult{Command: "watch", Results: summary})
}

// applyChanges rebuilds the changed files that still exist and deletes the
// snapshots of the ones that are gone.
func applyChanges(ctx context.Context, e *pycompleter.Engine, st *store.Store, changed []string) (rebuilt, removed int, err error) {
	var present []string
	for _, path := range changed {
		if _, statErr := os.Stat(path); statErr == nil {
			present = append(present, path)
			continue
		}
		ok, delErr := st.DeleteSnapshot(path)
		if delErr != nil {
			return rebuilt, removed, delErr
		}
		if ok {
			removed++
		}
	}
	if len(present) == 0 {
		return rebuilt, removed, nil
	}

	files, err := exportFiles(ctx, e, st, present)
	return len(files), removed, err
}
