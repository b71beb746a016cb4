package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bowerhall/mediaqa/internal/logger"
)

// DefaultSchedule runs housekeeping every five minutes.
const DefaultSchedule = "*/5 * * * *"

// cronParser is configured for standard 5-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// TaskFunc performs one housekeeping pass and reports how many things it
// cleaned up.
type TaskFunc func(ctx context.Context) (int, error)

type task struct {
	name     string
	schedule cron.Schedule
	run      TaskFunc
	nextRun  time.Time
}

// Janitor fires housekeeping tasks on their cron schedules.
type Janitor struct {
	mu    sync.Mutex
	tasks []*task
	tick  time.Duration
	now   func() time.Time
}

func NewJanitor() *Janitor {
	return &Janitor{
		tick: 10 * time.Second,
		now:  time.Now,
	}
}

// Add registers a task. The schedule is a 5-field cron expression.
func (j *Janitor) Add(name, schedule string, run TaskFunc) error {
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.tasks = append(j.tasks, &task{
		name:     name,
		schedule: sched,
		run:      run,
		nextRun:  sched.Next(j.now()),
	})

	logger.Debug("janitor task added", "task", name, "schedule", schedule)

	return nil
}

// Run checks for due tasks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("janitor stopping")
			return
		case <-ticker.C:
			j.RunDue(ctx)
		}
	}
}

// RunDue fires every task whose next run has passed and schedules the
// following one. It returns the number of tasks fired.
func (j *Janitor) RunDue(ctx context.Context) int {
	now := j.now()

	j.mu.Lock()
	var due []*task
	for _, t := range j.tasks {
		if !t.nextRun.After(now) {
			due = append(due, t)
			t.nextRun = t.schedule.Next(now)
		}
	}
	j.mu.Unlock()

	for _, t := range due {
		n, err := t.run(ctx)
		if err != nil {
			logger.Error("janitor task failed", "task", t.name, "error", err)
			continue
		}
		if n > 0 {
			logger.Info("janitor task cleaned up", "task", t.name, "count", n)
		}
	}

	return len(due)
}
