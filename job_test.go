package minibatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/minibatch/minibatch/status"
)

func countingTask(calls *int, err error) Task {
	return func(contribution *StepContribution) (RepeatStatus, error) {
		*calls++
		return Finished, err
	}
}

func mustStep(t *testing.T, builder *stepBuilder) Step {
	t.Helper()
	step, err := builder.Build()
	assert.Equal(t, nil, err)
	return step
}

func TestJob_StopsAtFailedStep(t *testing.T) {
	var calls1, calls2 int
	s1 := mustStep(t, NewStep("s1").Task(countingTask(&calls1, errors.New("boom"))))
	s2 := mustStep(t, NewStep("s2").Task(countingTask(&calls2, nil)))
	job, err := NewJob("stop").Step(s1, s2).Build()
	assert.Equal(t, nil, err)

	execution := Run(context.Background(), job)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 1, calls1)
	assert.Equal(t, 0, calls2)
	assert.Equal(t, 1, len(execution.StepExecutions))
	assert.Equal(t, "s1", execution.StepExecutions[0].StepName)
	assert.Equal(t, (*StepExecution)(nil), execution.StepExecution("s2"))
	assert.Equal(t, true, IsTaskExecution(execution.FailError))
}

func TestJob_AllStepsComplete(t *testing.T) {
	var calls1, calls2 int
	s1 := mustStep(t, NewStep("s1").Task(countingTask(&calls1, nil)))
	s2 := mustStep(t, NewStep("s2").Task(countingTask(&calls2, nil)))
	job, err := NewJob("all", s1, s2).Build()
	assert.Equal(t, nil, err)

	execution := Run(context.Background(), job)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, nil, execution.FailError)
	assert.Equal(t, 2, len(execution.StepExecutions))
	assert.Equal(t, "s1", execution.StepExecutions[0].StepName)
	assert.Equal(t, "s2", execution.StepExecutions[1].StepName)
	for _, se := range execution.StepExecutions {
		assert.Equal(t, status.COMPLETED, se.StepStatus)
		assert.Equal(t, execution, se.JobExecution)
		assert.NotEqual(t, "", se.StepExecutionId)
		assert.Equal(t, false, se.EndTime.Before(se.StartTime))
	}
	assert.NotEqual(t, "", execution.JobExecutionId)
}

func TestJob_RunTwice(t *testing.T) {
	writer := &chunkRecorder{}
	step := mustStep(t, NewStep("s").Reader(NewListReader(1, 2, 3)).Writer(writer))
	job, err := NewJob("twice", step).Build()
	assert.Equal(t, nil, err)
	e1 := Run(context.Background(), job)
	e2 := Run(context.Background(), job)
	assert.Equal(t, status.COMPLETED, e1.JobStatus)
	assert.Equal(t, status.COMPLETED, e2.JobStatus)
	assert.NotEqual(t, e1.JobExecutionId, e2.JobExecutionId)
	assert.Equal(t, [][]interface{}{{1, 2, 3}, {1, 2, 3}}, writer.chunks)
}

func TestJob_StepsShareJobContext(t *testing.T) {
	s1 := mustStep(t, NewStep("produce").Task(func(contribution *StepContribution) (RepeatStatus, error) {
		contribution.StepExecution.JobExecution.JobContext.Put("total", 42)
		return Finished, nil
	}))
	var seen int
	s2 := mustStep(t, NewStep("consume").Task(func(contribution *StepContribution) (RepeatStatus, error) {
		seen, _ = contribution.StepExecution.JobExecution.JobContext.GetInt("total")
		return Finished, nil
	}))
	job, _ := NewJob("ctx", s1, s2).Build()
	execution := Run(context.Background(), job)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, 42, seen)
}

type jobEvents struct {
	mu        sync.Mutex
	events    []string
	beforeErr error
}

func (l *jobEvents) add(e string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *jobEvents) BeforeJob(execution *JobExecution) error {
	l.add("beforeJob")
	return l.beforeErr
}

func (l *jobEvents) AfterJob(execution *JobExecution) error {
	l.add("afterJob:" + string(execution.JobStatus))
	return nil
}

func (l *jobEvents) BeforeStep(execution *StepExecution) error {
	l.add("beforeStep:" + execution.StepName)
	return nil
}

func (l *jobEvents) AfterStep(execution *StepExecution) error {
	l.add("afterStep:" + execution.StepName)
	return nil
}

func TestJob_Listeners(t *testing.T) {
	var calls int
	listener := &jobEvents{}
	s1 := mustStep(t, NewStep("s1").Task(countingTask(&calls, nil)))
	s2 := mustStep(t, NewStep("s2").Task(countingTask(&calls, nil)))
	job, err := NewJob("listened", s1, s2).Listener(listener).Build()
	assert.Equal(t, nil, err)
	execution := Run(context.Background(), job)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, []string{
		"beforeJob",
		"beforeStep:s1", "afterStep:s1",
		"beforeStep:s2", "afterStep:s2",
		"afterJob:COMPLETED",
	}, listener.events)

	listener = &jobEvents{beforeErr: errors.New("maintenance window")}
	job, _ = NewJob("vetoed", s1, s2).Listener(listener).Build()
	calls = 0
	execution = Run(context.Background(), job)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, len(execution.StepExecutions))
	assert.Equal(t, []string{"beforeJob"}, listener.events)
}

func TestJob_ChunkListenerAppliesToEveryChunkStep(t *testing.T) {
	listener := &chunkEvents{}
	s1 := mustStep(t, NewStep("c1").Reader(NewListReader(1)).Writer(&chunkRecorder{}))
	s2 := mustStep(t, NewStep("c2").Reader(NewListReader(2)).Writer(&chunkRecorder{}))
	job, err := NewJob("chunks", s1, s2).Listener(listener).Build()
	assert.Equal(t, nil, err)
	execution := Run(context.Background(), job)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, []string{"before", "after:true", "before", "after:true"}, listener.events)
}

func TestRun_NilJob(t *testing.T) {
	execution := Run(context.Background(), nil)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, true, IsInvalidConfiguration(execution.FailError))
}

func TestRunAsync(t *testing.T) {
	var mu sync.Mutex
	total := 0
	futures := make([]Future, 0)
	for i := 0; i < 5; i++ {
		step := mustStep(t, NewStep("count").Task(func(contribution *StepContribution) (RepeatStatus, error) {
			mu.Lock()
			defer mu.Unlock()
			total++
			return Finished, nil
		}))
		job, err := NewJob("async", step).Build()
		assert.Equal(t, nil, err)
		futures = append(futures, RunAsync(context.Background(), job))
	}
	for _, f := range futures {
		result, err := f.Get()
		assert.Equal(t, nil, err)
		assert.Equal(t, status.COMPLETED, result.(*JobExecution).JobStatus)
	}
	assert.Equal(t, 5, total)
}

func TestJob_GetStepsReturnsCopy(t *testing.T) {
	s1 := mustStep(t, NewStep("s1").Handler(func() {}))
	job, _ := NewJob("copy", s1).Build()
	steps := job.GetSteps()
	steps[0] = nil
	assert.Equal(t, "s1", job.GetSteps()[0].Name())
	assert.Equal(t, "copy", job.Name())
}
