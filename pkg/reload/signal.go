package reload

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// WatchSignals blocks until ctx is done, calling c.Reload every time the
// process receives SIGHUP. A failed reload is logged, not fatal — the
// same "previous generation keeps serving" guarantee Reload itself makes
// applies here: a failed build never takes the proxy down.
func WatchSignals(ctx context.Context, c *Controller) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			slog.Info("reload: received signal", "signal", sig.String())
			if err := c.Reload(ctx); err != nil {
				slog.Error("reload: failed, previous generation still serving", "error", err)
				continue
			}
			slog.Info("reload: complete")
		}
	}
}
