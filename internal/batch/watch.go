package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/hdltools/rtlbridge/internal/config"
	"github.com/hdltools/rtlbridge/internal/core"
)

// Watch recompiles source files under root as they change, calling
// onResult for each compile. Directories created while watching are
// picked up. Returns when ctx is cancelled.
func Watch(ctx context.Context, root string, cfg *config.Config, onResult func(FileResult)) error {
	dialect, err := core.ParseDialect(cfg.Dialect)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirs(watcher, root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Op&fsnotify.Create != 0 {
					if err := addDirs(watcher, event.Name); err != nil {
						return err
					}
				}
				continue
			}
			if !isSource(event.Name) || cfg.ShouldIgnoreFile(event.Name) {
				continue
			}
			onResult(compileFile(event.Name, root, dialect, cfg))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}
}

func addDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

func isSource(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".vhd" || ext == ".vhdl"
}
