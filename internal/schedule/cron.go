package schedule

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// CronRunner executes Tasks on cron schedules.
type CronRunner struct {
	c *cron.Cron
}

func NewCronRunner() *CronRunner {
	return &CronRunner{
		c: cron.New(),
	}
}

func (r *CronRunner) Add(spec string, task Task) error {
	_, err := r.c.AddFunc(spec, func() {
		if err := task.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("scheduled task failed", "task", task.Name(), "error", err)
		}
	})
	return err
}

func (r *CronRunner) Start() {
	r.c.Start()
}

// Stop stops scheduling new runs and waits for a running job to finish.
func (r *CronRunner) Stop() {
	<-r.c.Stop().Done()
}
