package minibatch

type jobBuilder struct {
	name           string
	steps          []Step
	jobListeners   []JobListener
	stepListeners  []StepListener
	chunkListeners []ChunkListener
	err            error
}

//NewJob new instance of job builder
func NewJob(name string, steps ...Step) *jobBuilder {
	return &jobBuilder{
		name:  name,
		steps: steps,
	}
}

func (builder *jobBuilder) Step(step ...Step) *jobBuilder {
	builder.steps = append(builder.steps, step...)
	return builder
}

// Listener register job listeners, and step or chunk listeners applied to every step of the job
func (builder *jobBuilder) Listener(listener ...interface{}) *jobBuilder {
	for _, l := range listener {
		valid := false
		if ll, ok := l.(JobListener); ok {
			builder.jobListeners = append(builder.jobListeners, ll)
			valid = true
		}
		if ll, ok := l.(StepListener); ok {
			builder.stepListeners = append(builder.stepListeners, ll)
			valid = true
		}
		if ll, ok := l.(ChunkListener); ok {
			builder.chunkListeners = append(builder.chunkListeners, ll)
			valid = true
		}
		if !valid && builder.err == nil {
			builder.err = newInvalidConfig("not supported listener:%T for job:%v", l, builder.name)
		}
	}
	return builder
}

// Build validate the definition and create an immutable Job
func (builder *jobBuilder) Build() (Job, error) {
	if builder.err != nil {
		return nil, builder.err
	}
	if builder.name == "" {
		return nil, newInvalidConfig("job name must not be empty")
	}
	if len(builder.steps) == 0 {
		return nil, newInvalidConfig("job:%v has no step", builder.name)
	}
	for i, step := range builder.steps {
		if step == nil {
			return nil, newInvalidConfig("step #%v of job:%v is nil", i, builder.name)
		}
	}
	return &simpleJob{
		name:           builder.name,
		steps:          append([]Step(nil), builder.steps...),
		listeners:      append([]JobListener(nil), builder.jobListeners...),
		stepListeners:  append([]StepListener(nil), builder.stepListeners...),
		chunkListeners: append([]ChunkListener(nil), builder.chunkListeners...),
	}, nil
}
