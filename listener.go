package minibatch

//JobListener job listener
type JobListener interface {
	//BeforeJob execute before the first step starts, an error fails the job without running any step
	BeforeJob(execution *JobExecution) error
	//AfterJob execute after job end either normally or abnormally
	AfterJob(execution *JobExecution) error
}

//StepListener step listener
type StepListener interface {
	//BeforeStep execute before step start, an error fails the step without running it
	BeforeStep(execution *StepExecution) error
	//AfterStep execute after step end either normally or abnormally
	AfterStep(execution *StepExecution) error
}

//ChunkListener chunk listener
type ChunkListener interface {
	//BeforeChunk execute before start of a chunk in a chunk step
	BeforeChunk(context *ChunkContext) error
	//AfterChunk execute after a chunk has been written and committed
	AfterChunk(context *ChunkContext) error
	//OnError execute when an error occurred during a chunk in a chunk step
	OnError(context *ChunkContext, err error)
}
