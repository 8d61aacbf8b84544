package minibatch

import (
	"time"

	"github.com/google/uuid"
	"github.com/minibatch/minibatch/status"
)

// JobExecution the record of one run of a job
type JobExecution struct {
	JobExecutionId string
	JobName        string
	JobStatus      status.BatchStatus
	//StepExecutions one entry per started step, in execution order
	StepExecutions []*StepExecution
	JobContext     *BatchContext
	CreateTime     time.Time
	StartTime      time.Time
	EndTime        time.Time
	FailError      error
}

func newJobExecution(jobName string) *JobExecution {
	return &JobExecution{
		JobExecutionId: uuid.New().String(),
		JobName:        jobName,
		JobStatus:      status.STARTING,
		StepExecutions: make([]*StepExecution, 0),
		JobContext:     NewBatchContext(),
		CreateTime:     time.Now(),
	}
}

func (e *JobExecution) AddStepExecution(execution *StepExecution) {
	e.StepExecutions = append(e.StepExecutions, execution)
}

// StepExecution look up the execution of a step by name, nil if the step was never started
func (e *JobExecution) StepExecution(stepName string) *StepExecution {
	for _, se := range e.StepExecutions {
		if se.StepName == stepName {
			return se
		}
	}
	return nil
}

func (e *JobExecution) start() {
	e.JobStatus = status.STARTED
	e.StartTime = time.Now()
}

func (e *JobExecution) finish(err error) {
	if err != nil {
		e.JobStatus = status.FAILED
		e.FailError = err
	} else {
		e.JobStatus = status.COMPLETED
	}
	e.EndTime = time.Now()
}

// StepExecution the record of one run of a step
type StepExecution struct {
	StepExecutionId string
	StepName        string
	StepStatus      status.BatchStatus
	StepContext     *BatchContext
	JobExecution    *JobExecution
	CreateTime      time.Time
	StartTime       time.Time
	EndTime         time.Time
	ReadCount       int64
	WriteCount      int64
	CommitCount     int64
	FilterCount     int64
	RollbackCount   int64
	FailError       error
}

func newStepExecution(stepName string, jobExecution *JobExecution) *StepExecution {
	return &StepExecution{
		StepExecutionId: uuid.New().String(),
		StepName:        stepName,
		StepStatus:      status.STARTING,
		StepContext:     NewBatchContext(),
		JobExecution:    jobExecution,
		CreateTime:      time.Now(),
	}
}

func (execution *StepExecution) finish(err error) {
	if err != nil {
		execution.StepStatus = status.FAILED
		execution.FailError = err
	} else {
		execution.StepStatus = status.COMPLETED
	}
	execution.EndTime = time.Now()
}

func (execution *StepExecution) start() {
	execution.StartTime = time.Now()
	execution.StepStatus = status.STARTED
}

func (execution *StepExecution) apply(contribution *StepContribution) {
	execution.ReadCount += contribution.ReadCount
	execution.WriteCount += contribution.WriteCount
	execution.FilterCount += contribution.FilterCount
	contribution.ReadCount, contribution.WriteCount, contribution.FilterCount = 0, 0, 0
}

// StepContribution the mutable handle a Task receives on every invocation.
// Counters added by the task are folded into the StepExecution after each invocation.
type StepContribution struct {
	StepExecution *StepExecution
	ReadCount     int64
	WriteCount    int64
	FilterCount   int64
}

func (c *StepContribution) IncrementReadCount(n int64) {
	c.ReadCount += n
}

func (c *StepContribution) IncrementWriteCount(n int64) {
	c.WriteCount += n
}

func (c *StepContribution) IncrementFilterCount(n int64) {
	c.FilterCount += n
}

// StepContext shortcut to the BatchContext of the running step
func (c *StepContribution) StepContext() *BatchContext {
	return c.StepExecution.StepContext
}
