package status

//BatchStatus status of job or step execution
type BatchStatus string

const (
	//STARTING the execution record has been created but its body has not run yet
	STARTING BatchStatus = "STARTING"
	//STARTED job or step is running
	STARTED BatchStatus = "STARTED"
	//COMPLETED job or step have finished successfully
	COMPLETED BatchStatus = "COMPLETED"
	//FAILED job or step have failed
	FAILED BatchStatus = "FAILED"
)

var statuses = map[BatchStatus]int{
	STARTING:  0,
	STARTED:   1,
	COMPLETED: 2,
	FAILED:    3,
}

// IsTerminal reports whether the status can no longer change
func (s BatchStatus) IsTerminal() bool {
	return s == COMPLETED || s == FAILED
}

// And combine two statuses, the more severe one wins
func (s BatchStatus) And(other BatchStatus) BatchStatus {
	i1, ok1 := statuses[s]
	i2, ok2 := statuses[other]
	if ok1 && ok2 {
		if i1 < i2 {
			return other
		}
		return s
	} else if ok1 {
		return other
	}
	return s
}
