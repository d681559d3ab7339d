package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the logs directory must be quiet before a
// triggered pass starts.
const DefaultSettle = 2 * time.Second

// Watch runs a pass immediately and then again whenever logfiles in the logs
// directory are created or written, until ctx is cancelled. Passes never
// overlap. onReport is called after every pass.
func (o *Orchestrator) Watch(ctx context.Context, settle time.Duration, onReport func(*Report)) error {
	if settle <= 0 {
		settle = DefaultSettle
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(o.opts.LogsDir); err != nil {
		return fmt.Errorf("watching %s: %w", o.opts.LogsDir, err)
	}

	pass := func() error {
		report, err := o.Run(ctx)
		if report != nil && onReport != nil {
			onReport(report)
		}
		return err
	}

	if err := pass(); err != nil {
		return err
	}

	timer := time.NewTimer(settle)
	timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !o.relevant(ev) {
				continue
			}
			o.log.Debugw("logfile changed", "path", ev.Name, "op", ev.Op.String())
			pending = true
			timer.Reset(settle)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			o.log.Warnw("watcher error", "error", err)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if err := pass(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// A failed pass is retried on the next change.
				o.log.Errorw("import pass failed", "error", err)
			}
		}
	}
}

func (o *Orchestrator) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	return o.opts.LogExtension == "" || strings.HasSuffix(ev.Name, o.opts.LogExtension)
}
