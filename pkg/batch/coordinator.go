// Package batch runs many extraction jobs with bounded concurrency and
// aggregates rolling statistics.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/PM45W/ESpice-sub007/pkg/types"
)

// ProcessFunc performs one extraction job.
type ProcessFunc func(ctx context.Context, job *types.ExtractionJob) (*types.ExtractionResult, error)

// Stats is the coordinator's rolling view of completed work.
type Stats struct {
	TotalProcessed int           `json:"total_processed"`
	Succeeded      int           `json:"succeeded"`
	Failed         int           `json:"failed"`
	SuccessRate    float64       `json:"success_rate"`
	AvgDuration    time.Duration `json:"avg_duration"`
	LastProcessed  time.Time     `json:"last_processed"`
}

// Coordinator fans jobs out over a fixed-size worker pool. One job's
// failure never aborts the others; results are correlated by job ID, not
// by completion order.
type Coordinator struct {
	workers int

	mu            sync.Mutex
	stats         Stats
	totalDuration time.Duration
}

// New creates a Coordinator with the given pool size (minimum 1).
func New(workers int) *Coordinator {
	if workers < 1 {
		workers = 1
	}
	return &Coordinator{workers: workers}
}

// Run processes all jobs and blocks until every job reached a terminal
// state. Job ordering within the batch is not guaranteed.
func (c *Coordinator) Run(ctx context.Context, jobs []*types.ExtractionJob, process ProcessFunc) {
	queue := make(chan *types.ExtractionJob)

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				c.runJob(ctx, job, process)
			}
		}()
	}

	for _, job := range jobs {
		if job.Status != types.JobPending {
			// Retries create fresh jobs; non-pending jobs are never rerun.
			continue
		}
		queue <- job
	}
	close(queue)
	wg.Wait()
}

// runJob drives one job through its lifecycle, catching panics so a single
// bad image cannot take down the batch.
func (c *Coordinator) runJob(ctx context.Context, job *types.ExtractionJob, process ProcessFunc) {
	job.Status = types.JobProcessing
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			job.Status = types.JobFailed
			job.Error = fmt.Sprintf("panic: %v", r)
			c.record(time.Since(start), false)
		}
	}()

	result, err := process(ctx, job)
	duration := time.Since(start)

	switch {
	case err != nil:
		job.Status = types.JobFailed
		job.Error = err.Error()
		c.record(duration, false)
	case result != nil && !result.Success:
		job.Status = types.JobFailed
		job.Result = result
		job.Error = result.Error
		c.record(duration, false)
	default:
		job.Status = types.JobCompleted
		job.Result = result
		c.record(duration, true)
	}
}

func (c *Coordinator) record(duration time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.TotalProcessed++
	if ok {
		c.stats.Succeeded++
	} else {
		c.stats.Failed++
	}
	c.stats.SuccessRate = float64(c.stats.Succeeded) / float64(c.stats.TotalProcessed)
	c.totalDuration += duration
	c.stats.AvgDuration = c.totalDuration / time.Duration(c.stats.TotalProcessed)
	c.stats.LastProcessed = time.Now()
}

// Stats returns a snapshot of the rolling statistics.
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
