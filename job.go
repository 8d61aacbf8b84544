package minibatch

import (
	"context"
	"reflect"
	"runtime/debug"

	"github.com/minibatch/minibatch/status"
)

//Job a named, ordered sequence of steps. Jobs are built with NewJob and are immutable.
type Job interface {
	Name() string
	GetSteps() []Step
	start(ctx context.Context, execution *JobExecution)
}

type simpleJob struct {
	name           string
	steps          []Step
	listeners      []JobListener
	stepListeners  []StepListener
	chunkListeners []ChunkListener
}

func (job *simpleJob) Name() string {
	return job.name
}

func (job *simpleJob) GetSteps() []Step {
	steps := make([]Step, len(job.steps))
	copy(steps, job.steps)
	return steps
}

// start runs the steps in declared order and stops at the first step that does not complete
func (job *simpleJob) start(ctx context.Context, execution *JobExecution) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in job executing, jobName:%v, jobExecutionId:%v, err:%v, stack:%v", job.name, execution.JobExecutionId, er, string(debug.Stack()))
			execution.finish(NewBatchError(ErrCodeGeneral, "panic in job:%v execution, panic:%v", job.name, er))
		}
	}()
	logger.Info(ctx, "start running job, jobName:%v, jobExecutionId:%v", job.name, execution.JobExecutionId)
	for _, listener := range job.listeners {
		if err := listener.BeforeJob(execution); err != nil {
			logger.Error(ctx, "job listener execute err, jobName:%v, jobExecutionId:%v, listener:%v, err:%v", job.name, execution.JobExecutionId, reflect.TypeOf(listener).String(), err)
			execution.finish(NewBatchError(ErrCodeGeneral, "BeforeJob of job:%v failed", job.name, err))
			return
		}
	}
	execution.start()
	jobStatus := status.COMPLETED
	var failErr error
	for _, step := range job.steps {
		stepExecution := execStep(ctx, step, execution, job.stepListeners, job.chunkListeners)
		jobStatus = jobStatus.And(stepExecution.StepStatus)
		if jobStatus != status.COMPLETED {
			failErr = stepExecution.FailError
			if failErr == nil {
				failErr = NewBatchError(ErrCodeGeneral, "step:%v ended with status:%v", step.Name(), stepExecution.StepStatus)
			}
			logger.Error(ctx, "execute step failed, jobExecutionId:%v, step:%v, err:%v", execution.JobExecutionId, step.Name(), failErr)
			break
		}
	}
	execution.finish(failErr)
	for _, listener := range job.listeners {
		if err := listener.AfterJob(execution); err != nil {
			logger.Error(ctx, "job listener execute err, jobName:%v, jobExecutionId:%v, listener:%v, err:%v", job.name, execution.JobExecutionId, reflect.TypeOf(listener).String(), err)
			if execution.JobStatus != status.FAILED {
				execution.finish(NewBatchError(ErrCodeGeneral, "AfterJob of job:%v failed", job.name, err))
			}
			break
		}
	}
	logger.Info(ctx, "finish job execution, jobName:%v, jobExecutionId:%v, jobStatus:%v", job.name, execution.JobExecutionId, execution.JobStatus)
}

// execStep runs one step and records the outcome in a new StepExecution appended to the JobExecution.
// Errors and panics raised by the step never escape, they end up in the StepExecution.
func execStep(ctx context.Context, step Step, jobExecution *JobExecution, jobStepListeners []StepListener, jobChunkListeners []ChunkListener) *StepExecution {
	execution := newStepExecution(step.Name(), jobExecution)
	jobExecution.AddStepExecution(execution)
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in step executing, jobExecutionId:%v, stepName:%v, err:%v, stack:%v", jobExecution.JobExecutionId, execution.StepName, er, string(debug.Stack()))
			execution.finish(NewBatchError(ErrCodeGeneral, "panic in step:%v execution, panic:%v", execution.StepName, er))
		}
	}()
	logger.Info(ctx, "step execute start, jobExecutionId:%v, stepName:%v", jobExecution.JobExecutionId, execution.StepName)
	listeners := make([]StepListener, 0, len(step.listeners())+len(jobStepListeners))
	listeners = append(listeners, step.listeners()...)
	listeners = append(listeners, jobStepListeners...)
	for _, listener := range listeners {
		if err := listener.BeforeStep(execution); err != nil {
			logger.Error(ctx, "step listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", jobExecution.JobExecutionId, execution.StepName, reflect.TypeOf(listener).String(), err)
			execution.finish(NewBatchError(ErrCodeGeneral, "BeforeStep of step:%v failed", execution.StepName, err))
			return execution
		}
	}
	execution.start()
	var err error
	switch s := step.(type) {
	case *taskStep:
		err = s.exec(ctx, execution)
	case *chunkStep:
		err = s.exec(ctx, execution, jobChunkListeners)
	default:
		err = NewBatchError(ErrCodeInvalidConfig, "unsupported step type:%T", step)
	}
	if err != nil {
		logger.Error(ctx, "step execute failed, jobExecutionId:%v, stepName:%v, err:%v", jobExecution.JobExecutionId, execution.StepName, err)
	}
	execution.finish(err)
	for _, listener := range listeners {
		if e := listener.AfterStep(execution); e != nil {
			logger.Error(ctx, "step listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", jobExecution.JobExecutionId, execution.StepName, reflect.TypeOf(listener).String(), e)
			if execution.StepStatus != status.FAILED {
				execution.finish(NewBatchError(ErrCodeGeneral, "AfterStep of step:%v failed", execution.StepName, e))
			}
			break
		}
	}
	logger.Info(ctx, "step execute finish, jobExecutionId:%v, stepName:%v, stepStatus:%v, read:%v, filter:%v, write:%v, commit:%v", jobExecution.JobExecutionId, execution.StepName, execution.StepStatus, execution.ReadCount, execution.FilterCount, execution.WriteCount, execution.CommitCount)
	return execution
}
