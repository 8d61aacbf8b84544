package status

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestBatchStatus_And(t *testing.T) {
	assert.Equal(t, COMPLETED, COMPLETED.And(COMPLETED))
	assert.Equal(t, FAILED, COMPLETED.And(FAILED))
	assert.Equal(t, FAILED, FAILED.And(COMPLETED))
	assert.Equal(t, COMPLETED, STARTED.And(COMPLETED))
	assert.Equal(t, BatchStatus("BOGUS"), COMPLETED.And("BOGUS"))
}

func TestBatchStatus_IsTerminal(t *testing.T) {
	assert.Equal(t, true, COMPLETED.IsTerminal())
	assert.Equal(t, true, FAILED.IsTerminal())
	assert.Equal(t, false, STARTING.IsTerminal())
	assert.Equal(t, false, STARTED.IsTerminal())
}
