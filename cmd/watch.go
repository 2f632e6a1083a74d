package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/openmeethq/codegate/internal/gate"
	"github.com/openmeethq/codegate/internal/logging"
	"github.com/openmeethq/codegate/internal/rules"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rescan on file changes and keep gate artifacts fresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatchWithStop(nil)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatchWithStop(stop <-chan struct{}) error {
	root := cfg.Paths.WorkspaceRoot
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch init failed: %w", err)
	}
	defer watcher.Close()

	if err := addWatchRecursive(watcher, root); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}

	outMarker := string(filepath.Separator) + cfg.Paths.OutputDir + string(filepath.Separator)
	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	var timer *time.Timer
	trigger := func() {
		rep, err := scanOnce(context.Background())
		if err != nil {
			logging.Log.Warnw("watch scan failed", "error", err)
			return
		}
		out := gate.Run(root, gate.SoftFromEnv(),
			gate.ViolationGate{Report: rep},
			gate.CatalogCheck{Catalog: rules.DefaultCatalog()},
		)
		if err := gate.WriteOutcome(root, cfg.Paths.OutputDir, out); err != nil {
			logging.Log.Warnw("watch gate write failed", "error", err)
		}
		fmt.Printf("watch: %s (%d violations in %d files)\n",
			strings.ToUpper(string(out.Status)), rep.Summary.Total, rep.Files.Scanned)
	}

	fmt.Printf("watching %s (debounce %dms)\n", root, cfg.Watch.DebounceMs)
	for {
		select {
		case <-stop:
			return nil
		case ev := <-watcher.Events:
			if strings.Contains(ev.Name, outMarker) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = addWatchRecursive(watcher, ev.Name)
				}
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, trigger)
		case err := <-watcher.Errors:
			fmt.Fprintf(os.Stderr, "ERROR: watch error: %v\n", err)
		}
	}
}

func addWatchRecursive(w *fsnotify.Watcher, root string) error {
	skip := make(map[string]struct{}, len(cfg.Scan.ExcludeDirs)+1)
	for _, d := range cfg.Scan.ExcludeDirs {
		skip[d] = struct{}{}
	}
	skip[filepath.Base(cfg.Paths.OutputDir)] = struct{}{}
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if _, ok := skip[info.Name()]; ok {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
