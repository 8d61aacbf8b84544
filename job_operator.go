package minibatch

import (
	"context"
)

// Run execute job synchronously and return its execution record.
// Failures of the job never escape as errors or panics, they are reported by the returned JobExecution.
func Run(ctx context.Context, job Job) *JobExecution {
	if job == nil {
		execution := newJobExecution("")
		execution.finish(newInvalidConfig("job must not be nil"))
		logger.Error(ctx, "can not run a nil job")
		return execution
	}
	execution := newJobExecution(job.Name())
	job.start(ctx, execution)
	if !execution.JobStatus.IsTerminal() {
		execution.finish(NewBatchError(ErrCodeGeneral, "job:%v ended with unexpected status:%v", job.Name(), execution.JobStatus))
	}
	return execution
}

// RunAsync execute job on the job pool, the Future yields the *JobExecution.
// At most SetMaxRunningJobs jobs run at the same time, further submissions wait for a free worker.
func RunAsync(ctx context.Context, job Job) Future {
	return jobPool.Submit(ctx, func() (interface{}, error) {
		return Run(ctx, job), nil
	})
}
