package sync

import (
	"context"
	"log"
	"time"
)

// WatchAndSync watches the local tree and triggers Push whenever it
// changes, debounced. This is additive convenience: Push/Pull/Undo
// behave identically without it. It blocks until ctx is canceled.
func (e *Engine) WatchAndSync(ctx context.Context, debounce time.Duration, onEvent func(PushResult, error)) error {
	w, err := NewWatcher(debounce, func(paths []string) {
		result, err := e.Push(ctx, Options{})
		if onEvent != nil {
			onEvent(result, err)
		} else if err != nil {
			log.Printf("watch: push failed: %v", err)
		} else {
			log.Printf("watch: pushed %d added, %d modified", result.Counts.Added, result.Counts.Modified)
		}
	})
	if err != nil {
		return err
	}
	if _, _, err := w.WatchRecursive(e.LocalRoot); err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	<-ctx.Done()
	return nil
}
