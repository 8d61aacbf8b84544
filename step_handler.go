package minibatch

// RepeatStatus returned by a Task to tell the step whether to invoke it again
type RepeatStatus int

const (
	//Finished the task is done, the step completes
	Finished RepeatStatus = iota
	//Continuable invoke the task again immediately
	Continuable
)

func (r RepeatStatus) String() string {
	if r == Continuable {
		return "CONTINUABLE"
	}
	return "FINISHED"
}

// Task the body of a task-oriented step
type Task func(contribution *StepContribution) (RepeatStatus, error)

// Reader supplies items one at a time; a nil item means the source is exhausted
type Reader interface {
	Read(chunkCtx *ChunkContext) (interface{}, error)
}

// Processor maps one item to another; a nil result skips the item
type Processor interface {
	Process(item interface{}, chunkCtx *ChunkContext) (interface{}, error)
}

// Writer consumes a whole chunk of items in one call
type Writer interface {
	Write(items []interface{}, chunkCtx *ChunkContext) error
}

// OpenCloser optionally implemented by a Reader or Writer holding resources for the life of a step
type OpenCloser interface {
	Open(execution *StepExecution) error
	Close(execution *StepExecution) error
}

type ReaderFunc func(chunkCtx *ChunkContext) (interface{}, error)

func (f ReaderFunc) Read(chunkCtx *ChunkContext) (interface{}, error) {
	return f(chunkCtx)
}

type ProcessorFunc func(item interface{}, chunkCtx *ChunkContext) (interface{}, error)

func (f ProcessorFunc) Process(item interface{}, chunkCtx *ChunkContext) (interface{}, error) {
	return f(item, chunkCtx)
}

type WriterFunc func(items []interface{}, chunkCtx *ChunkContext) error

func (f WriterFunc) Write(items []interface{}, chunkCtx *ChunkContext) error {
	return f(items, chunkCtx)
}
