package proxycheck

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Schedule re-checks every stored proxy on a cron spec (five fields or a
// descriptor such as "@every 30m") until ctx is cancelled. A run that is
// still in progress when the next one is due causes that one to be skipped.
func (c *Checker) Schedule(ctx context.Context, spec string) error {
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := sched.AddFunc(spec, func() {
		sum, err := c.CheckAll(ctx)
		if err != nil {
			c.log.Warn("scheduled check failed", "error", err)
			return
		}
		c.log.Info("scheduled check done", "total", sum.Total, "working", sum.Working, "failed", sum.Failed)
	})
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", spec, err)
	}

	sched.Start()
	go func() {
		<-ctx.Done()
		<-sched.Stop().Done()
	}()
	return nil
}
