package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 300 * time.Millisecond

// watch compiles once, then again each time a file of the set changes.
// Changes closer together than debounce trigger one compile.
func (app *application) watch(ctx context.Context, out io.Writer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Error creating file watcher: %w", err)
	}
	defer watcher.Close()

	if err := app.addWatches(watcher); err != nil {
		return err
	}
	app.recompile(ctx, out)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	reload := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if app.ignored(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			app.logger.Debug("source changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if sameFile(event.Name, app.setPath) {
				reload = true
			}
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			app.logger.Warn("file watcher error", zap.Error(err))

		case <-timer.C:
			if reload {
				reload = false
				if err := app.load(ctx); err != nil {
					app.logger.Error("reloading set file failed", zap.Error(err))
					continue
				}
				if err := app.addWatches(watcher); err != nil {
					app.logger.Error("watching sources failed", zap.Error(err))
				}
			}
			app.recompile(ctx, out)
		}
	}
}

func (app *application) recompile(ctx context.Context, out io.Writer) {
	rep, err := app.compile(ctx)
	if err != nil {
		app.logger.Error("compile failed", zap.Error(err))
		return
	}
	printReport(out, rep)
}

// addWatches watches the set directory, each pack and the pack's artwork and
// script directories. fsnotify does not recurse.
func (app *application) addWatches(w *fsnotify.Watcher) error {
	dirs := []string{app.set.BasePath, app.set.UtilityPath()}
	for _, p := range append(app.set.Packs, app.set.SkipCompilePacks...) {
		dir := app.set.PackDir(p)
		dirs = append(dirs, dir, filepath.Join(dir, "artwork"), filepath.Join(dir, "script"))
	}
	for _, dir := range dirs {
		err := w.Add(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("Error watching %s: %w", dir, err)
		}
	}
	return nil
}

// ignored reports whether path is one of the compile outputs.
func (app *application) ignored(path string) bool {
	for _, out := range []string{app.set.ExpansionPath, app.set.CardDB} {
		if path == out || strings.HasPrefix(path, out+string(filepath.Separator)) {
			return true
		}
	}
	return strings.HasSuffix(path, "-journal")
}

func sameFile(a, b string) bool {
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}
