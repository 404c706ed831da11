package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 500 * time.Millisecond

// watch retrains after the dataset file settles following a write. The
// directory is watched rather than the file so editors that replace the file
// by rename are still seen.
func (t *trainer) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	target, err := filepath.Abs(t.cfg.Dataset.Path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	t.logger.Info("watching dataset", zap.String("path", target))

	return t.watchLoop(ctx, watcher.Events, watcher.Errors, target, func() {
		result, err := t.trainOnce(ctx)
		if err != nil {
			t.logger.Error("retraining failed", zap.Error(err))
			return
		}
		printSummary(os.Stdout, result, t.cfg.Model.Path)
	})
}

func (t *trainer) watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, target string, retrain func()) error {
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			t.logger.Debug("dataset changed", zap.String("op", event.Op.String()))
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(watchDebounce)
			pending = true

		case <-timer.C:
			pending = false
			retrain()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			t.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
