package registry

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"chempredd/internal/common/fsutil"
	"chempredd/pkg/types"
)

// debounce window for bursts of filesystem events (a model directory being
// copied in produces many).
const watchDebounce = 500 * time.Millisecond

// Watch re-scans dir whenever its contents change and calls apply with the
// new model set. It blocks until ctx is canceled. Scan or apply failures are
// logged and the watch continues; a model sync should not take the daemon
// down.
func Watch(ctx context.Context, dir string, log zerolog.Logger, apply func([]types.Model) error) error {
	base, err := fsutil.ResolveDir(dir)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(base); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("models dir watch error")
		case <-fire:
			timer = nil
			fire = nil
			models, err := LoadDir(base)
			if err != nil {
				log.Warn().Err(err).Msg("models dir re-scan failed")
				continue
			}
			if err := apply(models); err != nil {
				log.Warn().Err(err).Msg("registry refresh rejected")
				continue
			}
			log.Info().Int("models", len(models)).Msg("registry refreshed")
		}
	}
}
