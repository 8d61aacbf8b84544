package minibatch

import (
	"github.com/minibatch/minibatch/file"
)

const (
	//DefaultChunkSize default number of items per chunk
	DefaultChunkSize = 10
)

type stepBuilder struct {
	name           string
	task           Task
	reader         Reader
	processor      Processor
	writer         Writer
	chunkSize      int
	txManager      TransactionManager
	stepListeners  []StepListener
	chunkListeners []ChunkListener
	err            error
}

//NewStep initialize a step builder, handlers are passed to Handler one by one
func NewStep(name string, handler ...interface{}) *stepBuilder {
	builder := &stepBuilder{
		name:      name,
		chunkSize: DefaultChunkSize,
	}
	for _, h := range handler {
		builder.Handler(h)
	}
	return builder
}

func (builder *stepBuilder) fail(msg string, args ...interface{}) {
	if builder.err == nil {
		builder.err = newInvalidConfig(msg, args...)
	}
}

// Handler register a task, a reader, a processor, a writer or a listener according to the type of handler
func (builder *stepBuilder) Handler(handler interface{}) *stepBuilder {
	valid := false
	switch val := handler.(type) {
	case Task:
		builder.Task(val)
		valid = true
	case func(contribution *StepContribution) (RepeatStatus, error):
		builder.Task(val)
		valid = true
	case func() error:
		builder.Task(func(contribution *StepContribution) (RepeatStatus, error) {
			return Finished, val()
		})
		valid = true
	case func():
		builder.Task(func(contribution *StepContribution) (RepeatStatus, error) {
			val()
			return Finished, nil
		})
		valid = true
	default:
		if val2, ok2 := handler.(Reader); ok2 {
			builder.Reader(val2)
			valid = true
		}
		if val2, ok2 := handler.(ItemReader); ok2 {
			builder.Reader(val2)
			valid = true
		}
		if val2, ok2 := handler.(Processor); ok2 {
			builder.Processor(val2)
			valid = true
		}
		if val2, ok2 := handler.(Writer); ok2 {
			builder.Writer(val2)
			valid = true
		}
		if val2, ok2 := handler.(StepListener); ok2 {
			builder.stepListeners = append(builder.stepListeners, val2)
			valid = true
		}
		if val2, ok2 := handler.(ChunkListener); ok2 {
			builder.chunkListeners = append(builder.chunkListeners, val2)
			valid = true
		}
	}
	if !valid {
		builder.fail("invalid handler type:%T for step:%v", handler, builder.name)
	}
	return builder
}

func (builder *stepBuilder) Task(task Task) *stepBuilder {
	if task == nil {
		builder.fail("nil task for step:%v", builder.name)
	}
	builder.task = task
	return builder
}

// Reader set the item source, either a Reader or an ItemReader
func (builder *stepBuilder) Reader(reader interface{}) *stepBuilder {
	switch r := reader.(type) {
	case Reader:
		builder.reader = r
	case ItemReader:
		builder.reader = &keyedReader{itemReader: r}
	default:
		builder.fail("the type of Reader() argument is neither Reader nor ItemReader: %T", reader)
	}
	return builder
}

func (builder *stepBuilder) Processor(processor Processor) *stepBuilder {
	builder.processor = processor
	return builder
}

func (builder *stepBuilder) Writer(writer Writer) *stepBuilder {
	builder.writer = writer
	return builder
}

func (builder *stepBuilder) ChunkSize(chunkSize int) *stepBuilder {
	builder.chunkSize = chunkSize
	return builder
}

// Transaction run every chunk of the step inside a transaction of txMgr
func (builder *stepBuilder) Transaction(txMgr TransactionManager) *stepBuilder {
	builder.txManager = txMgr
	return builder
}

// ReadFile read items from a csv or json file
func (builder *stepBuilder) ReadFile(fd file.FileDescriptor) *stepBuilder {
	r, err := NewFileReader(fd)
	if err != nil {
		builder.fail("invalid file:%v for step:%v", fd.String(), builder.name, err)
		return builder
	}
	builder.reader = r
	return builder
}

// WriteFile write items to a csv or json file
func (builder *stepBuilder) WriteFile(fd file.FileDescriptor) *stepBuilder {
	w, err := NewFileWriter(fd)
	if err != nil {
		builder.fail("invalid file:%v for step:%v", fd.String(), builder.name, err)
		return builder
	}
	builder.writer = w
	return builder
}

// CopyFile make the step a task copying files between storages
func (builder *stepBuilder) CopyFile(filesToMove ...file.FileMove) *stepBuilder {
	return builder.Task(newFileCopyTask(filesToMove))
}

func (builder *stepBuilder) Listener(listener ...interface{}) *stepBuilder {
	for _, l := range listener {
		valid := false
		if ll, ok := l.(StepListener); ok {
			builder.stepListeners = append(builder.stepListeners, ll)
			valid = true
		}
		if ll, ok := l.(ChunkListener); ok {
			builder.chunkListeners = append(builder.chunkListeners, ll)
			valid = true
		}
		if !valid {
			builder.fail("not supported listener:%T for step:%v", l, builder.name)
		}
	}
	return builder
}

// Build validate the definition and create an immutable Step.
// It fails with an InvalidConfigurationError for an empty name, a chunk size below 1,
// a chunk step without writer, or a step that is both or neither a task step and a chunk step.
func (builder *stepBuilder) Build() (Step, error) {
	if builder.err != nil {
		return nil, builder.err
	}
	if builder.name == "" {
		return nil, newInvalidConfig("step name must not be empty")
	}
	if builder.task != nil && builder.reader != nil {
		return nil, newInvalidConfig("step:%v has both a task and a reader", builder.name)
	}
	stepListeners := append([]StepListener(nil), builder.stepListeners...)
	if builder.task != nil {
		if builder.processor != nil || builder.writer != nil || len(builder.chunkListeners) > 0 {
			return nil, newInvalidConfig("task step:%v must not have processor, writer or chunk listener", builder.name)
		}
		return &taskStep{
			name:          builder.name,
			task:          builder.task,
			stepListeners: stepListeners,
		}, nil
	}
	if builder.reader == nil {
		return nil, newInvalidConfig("no task or reader specified for step:%v", builder.name)
	}
	if builder.writer == nil {
		return nil, newInvalidConfig("no writer specified for chunk step:%v", builder.name)
	}
	if builder.chunkSize < 1 {
		return nil, newInvalidConfig("chunk size of step:%v must be positive, got:%v", builder.name, builder.chunkSize)
	}
	return &chunkStep{
		name:           builder.name,
		reader:         builder.reader,
		processor:      builder.processor,
		writer:         builder.writer,
		chunkSize:      builder.chunkSize,
		txManager:      builder.txManager,
		stepListeners:  stepListeners,
		chunkListeners: append([]ChunkListener(nil), builder.chunkListeners...),
	}, nil
}
