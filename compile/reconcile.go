package compile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

var (
	imageName  = regexp.MustCompile(`^(\d+)\.(png|jpg)$`)
	scriptName = regexp.MustCompile(`^c(\d+)\.lua$`)
)

// reconcile removes stored rows, images and scripts of cards that are no
// longer in keep.
func (s *Scheduler) reconcile(ctx context.Context, keep []int64, rep *Report) error {
	removed, err := s.store.DeleteExcept(ctx, keep)
	if err != nil {
		return fmt.Errorf("Error removing stale cards: %w", err)
	}
	rep.RemovedRows = removed

	set := make(map[int64]bool, len(keep))
	for _, id := range keep {
		set[id] = true
	}
	for _, p := range []struct {
		dir  string
		name *regexp.Regexp
	}{
		{s.set.PicPath, imageName},
		{s.set.PicFieldPath, imageName},
		{s.set.ScriptPath, scriptName},
	} {
		n, err := prune(p.dir, p.name, set)
		if err != nil {
			return err
		}
		rep.RemovedFiles += n
	}

	s.logger.Info("reconciled",
		zap.Int("kept", len(keep)),
		zap.Int64("removed_rows", rep.RemovedRows),
		zap.Int("removed_files", rep.RemovedFiles),
	)
	return nil
}

// prune deletes the files in dir whose name matches name and carries an id
// that is not in keep. Other files are left alone. A missing dir prunes
// nothing.
func prune(dir string, name *regexp.Regexp, keep map[int64]bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Error reading %s: %w", dir, err)
	}

	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		m := name.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || keep[id] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return n, fmt.Errorf("Error removing stale output: %w", err)
		}
		n++
	}
	return n, nil
}
