package minibatch

import (
	"context"
	"reflect"
	"runtime/debug"
)

// Step a named unit of a job, either a task step or a chunk step. Steps are built with NewStep and are immutable.
type Step interface {
	Name() string
	listeners() []StepListener
}

// taskStep step that invokes a Task until it reports Finished
type taskStep struct {
	name          string
	task          Task
	stepListeners []StepListener
}

func (step *taskStep) Name() string {
	return step.name
}

func (step *taskStep) listeners() []StepListener {
	return step.stepListeners
}

func (step *taskStep) exec(ctx context.Context, execution *StepExecution) error {
	contribution := &StepContribution{StepExecution: execution}
	for turn := 1; ; turn++ {
		repeat, err := step.invoke(ctx, contribution)
		execution.apply(contribution)
		if err != nil {
			logger.Error(ctx, "task execute failed, jobExecutionId:%v, stepName:%v, turn:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, turn, err)
			return err
		}
		logger.Debug(ctx, "task turn done, jobExecutionId:%v, stepName:%v, turn:%v, repeat:%v", execution.JobExecution.JobExecutionId, step.name, turn, repeat)
		if repeat != Continuable {
			return nil
		}
	}
}

func (step *taskStep) invoke(ctx context.Context, contribution *StepContribution) (repeat RepeatStatus, err error) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in task, stepName:%v, err:%v, stack:%v", step.name, er, string(debug.Stack()))
			repeat, err = Finished, newTaskError(step.name, er)
		}
	}()
	repeat, err = step.task(contribution)
	if err != nil {
		return Finished, newTaskError(step.name, err)
	}
	return repeat, nil
}

// chunkStep step that reads, processes and writes items chunk by chunk
type chunkStep struct {
	name           string
	reader         Reader
	processor      Processor
	writer         Writer
	chunkSize      int
	txManager      TransactionManager
	stepListeners  []StepListener
	chunkListeners []ChunkListener
}

type chunk struct {
	items    []interface{}
	read     int64
	filtered int64
	end      bool
}

const maxChunkPrealloc = 1024

func newChunk(size int) *chunk {
	if size > maxChunkPrealloc {
		size = maxChunkPrealloc
	}
	return &chunk{items: make([]interface{}, 0, size)}
}

func (step *chunkStep) Name() string {
	return step.name
}

func (step *chunkStep) listeners() []StepListener {
	return step.stepListeners
}

func (step *chunkStep) exec(ctx context.Context, execution *StepExecution, jobChunkListeners []ChunkListener) (err error) {
	if err = step.doOpenIfNecessary(execution); err != nil {
		logger.Error(ctx, "open resource failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, err)
		return err
	}
	defer func() {
		if err != nil {
			execution.FailError = err
		}
		if e := step.doCloseIfNecessary(execution); e != nil {
			logger.Error(ctx, "close resource failed, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, e)
			if err == nil {
				err = e
			}
		}
	}()
	txMgr := step.txManager
	if txMgr == nil {
		txMgr = txManager
	}
	chunkListeners := make([]ChunkListener, 0, len(step.chunkListeners)+len(jobChunkListeners))
	chunkListeners = append(chunkListeners, step.chunkListeners...)
	chunkListeners = append(chunkListeners, jobChunkListeners...)
	for {
		ch, e := step.doChunk(ctx, txMgr, chunkListeners, execution)
		if e != nil {
			logger.Error(ctx, "doChunk err, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, e)
			return e
		}
		if ch.end {
			return nil
		}
	}
}

func (step *chunkStep) doOpenIfNecessary(execution *StepExecution) error {
	if rc, ok := step.reader.(OpenCloser); ok {
		if err := rc.Open(execution); err != nil {
			return newChunkError(StageRead, step.name, err)
		}
	}
	if wc, ok := step.writer.(OpenCloser); ok {
		if err := wc.Open(execution); err != nil {
			if rc, ok := step.reader.(OpenCloser); ok {
				rc.Close(execution)
			}
			return newChunkError(StageWrite, step.name, err)
		}
	}
	return nil
}

// doCloseIfNecessary closes the reader before the writer; execution.FailError is set whenever the step is already failing
func (step *chunkStep) doCloseIfNecessary(execution *StepExecution) error {
	var first error
	if rc, ok := step.reader.(OpenCloser); ok {
		if err := rc.Close(execution); err != nil {
			first = NewBatchError(ErrCodeGeneral, "close reader of step:%v failed", step.name, err)
			if execution.FailError == nil {
				execution.FailError = first
			}
		}
	}
	if wc, ok := step.writer.(OpenCloser); ok {
		if err := wc.Close(execution); err != nil && first == nil {
			first = newChunkError(StageWrite, step.name, err)
		}
	}
	return first
}

// doChunk runs one chunk inside its own transaction: read until the chunk is full or the reader is exhausted, then write it in one call
func (step *chunkStep) doChunk(ctx context.Context, txMgr TransactionManager, chunkListeners []ChunkListener, execution *StepExecution) (*chunk, error) {
	tx, err := txMgr.BeginTx()
	if err != nil {
		return nil, newChunkError(StageCommit, step.name, err)
	}
	chunkCtx := &ChunkContext{
		StepExecution: execution,
		Tx:            tx,
	}
	ch, err := step.fillAndWrite(ctx, chunkCtx, chunkListeners)
	if err != nil {
		for _, listener := range chunkListeners {
			listener.OnError(chunkCtx, err)
		}
		if txErr := txMgr.Rollback(tx); txErr != nil {
			logger.Error(ctx, "rollback transaction err, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, txErr)
		}
		execution.RollbackCount++
		return nil, err
	}
	if txErr := txMgr.Commit(tx); txErr != nil {
		logger.Error(ctx, "commit transaction err, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, txErr)
		if txErr2 := txMgr.Rollback(tx); txErr2 != nil {
			logger.Error(ctx, "rollback transaction err, jobExecutionId:%v, stepName:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, txErr2)
		}
		execution.RollbackCount++
		err = newChunkError(StageCommit, step.name, txErr)
		for _, listener := range chunkListeners {
			listener.OnError(chunkCtx, err)
		}
		return nil, err
	}
	execution.ReadCount += ch.read
	execution.FilterCount += ch.filtered
	if len(ch.items) > 0 {
		execution.WriteCount += int64(len(ch.items))
		execution.CommitCount++
	}
	for _, listener := range chunkListeners {
		if e := listener.AfterChunk(chunkCtx); e != nil {
			logger.Error(ctx, "chunk listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, reflect.TypeOf(listener).String(), e)
			return nil, NewBatchError(ErrCodeGeneral, "AfterChunk of step:%v failed", step.name, e)
		}
	}
	return ch, nil
}

func (step *chunkStep) fillAndWrite(ctx context.Context, chunkCtx *ChunkContext, chunkListeners []ChunkListener) (*chunk, error) {
	execution := chunkCtx.StepExecution
	for _, listener := range chunkListeners {
		if err := listener.BeforeChunk(chunkCtx); err != nil {
			logger.Error(ctx, "chunk listener executing error, jobExecutionId:%v, stepName:%v, listener:%v, err:%v", execution.JobExecution.JobExecutionId, step.name, reflect.TypeOf(listener).String(), err)
			return nil, NewBatchError(ErrCodeGeneral, "BeforeChunk of step:%v failed", step.name, err)
		}
	}
	ch := newChunk(step.chunkSize)
	for len(ch.items) < step.chunkSize {
		var item interface{}
		err := step.guard(ctx, StageRead, func() (e error) {
			item, e = step.reader.Read(chunkCtx)
			return e
		})
		if err != nil {
			return nil, err
		}
		if item == nil {
			ch.end = true
			break
		}
		ch.read++
		if step.processor != nil {
			in := item
			err = step.guard(ctx, StageProcess, func() (e error) {
				item, e = step.processor.Process(in, chunkCtx)
				return e
			})
			if err != nil {
				return nil, err
			}
			if item == nil {
				logger.Debug(ctx, "item skipped by processor, stepName:%v, item:%v", step.name, in)
				ch.filtered++
				continue
			}
		}
		ch.items = append(ch.items, item)
	}
	chunkCtx.End = ch.end
	logger.Debug(ctx, "read chunk data success, jobExecutionId:%v, stepName:%v, read count:%v, chunk size:%v", execution.JobExecution.JobExecutionId, step.name, ch.read, len(ch.items))
	if len(ch.items) == 0 {
		return ch, nil
	}
	err := step.guard(ctx, StageWrite, func() error {
		return step.writer.Write(ch.items, chunkCtx)
	})
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "write chunk data success, jobExecutionId:%v, stepName:%v, write count:%v", execution.JobExecution.JobExecutionId, step.name, len(ch.items))
	return ch, nil
}

// guard runs one stage of the chunk loop, turning an error or a panic into a ChunkError for that stage
func (step *chunkStep) guard(ctx context.Context, stage ChunkStage, fn func() error) (err error) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic on chunk %v, stepName:%v, err:%v, stack:%v", stage, step.name, er, string(debug.Stack()))
			err = newChunkError(stage, step.name, er)
		}
	}()
	if e := fn(); e != nil {
		return newChunkError(stage, step.name, e)
	}
	return nil
}
