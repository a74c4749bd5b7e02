package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vcforge/houdini/internal/manifest"
)

// watchPreamble scans dir once for a baseline manifest and starts a
// Watcher that logs a warning if any file under it changes before the
// caller closes the returned Watcher. Per SPEC_FULL §4.H's policy, the
// manifest is an observability/invalidation signal only: the batch
// driver keeps re-emitting the preamble it was handed regardless, but a
// change mid-run means the programs being verified assumed a stale
// axiom set. Returns a nil Watcher and does nothing when dir is empty.
func watchPreamble(ctx context.Context, dir string, logger *slog.Logger) (*manifest.Watcher, error) {
	if dir == "" {
		return nil, nil
	}

	mgr := manifest.NewManager()
	baseline, err := mgr.Scan(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("scan preamble manifest: %w", err)
	}
	logger.Info("preamble manifest baseline", "dir", dir, "files", len(baseline.Files), "unreadable", len(baseline.Unreadable))

	w, err := manifest.Watch(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("watch preamble dir: %w", err)
	}
	return w, nil
}
