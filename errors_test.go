package minibatch

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
)

func TestBatchErr_Format(t *testing.T) {
	batchErr := NewBatchError(ErrCodeGeneral, "new error")
	assert.Equal(t, "batch err, code:general, message:new error", fmt.Sprintf("%v", batchErr))
	assert.Equal(t, true, len(batchErr.StackTrace()) > 0)
	assert.Equal(t, true, strings.Contains(fmt.Sprintf("%+v", batchErr), "TestBatchErr_Format"))

	err := fmt.Errorf("some error raised from db")
	batchErr2 := NewBatchError(ErrCodeDbFail, "wrap error", err)
	assert.Equal(t, "wrap error", batchErr2.Message())
	assert.Equal(t, err, batchErr2.Unwrap())
	assert.Equal(t, "batch err, code:db_fail, message:wrap error, cause:some error raised from db", batchErr2.Error())

	batchErr3 := NewBatchError(ErrCodeDbFail, "wrap error:%v", err)
	assert.Equal(t, "wrap error:some error raised from db", batchErr3.Message())
	assert.Equal(t, err, batchErr3.Unwrap())

	batchErr4 := NewBatchError(ErrCodeGeneral, "read file:%v at line:%v failed", "a.csv", 3, err)
	assert.Equal(t, "read file:a.csv at line:3 failed", batchErr4.Message())
	assert.Equal(t, err, batchErr4.Unwrap())

	batchErr5 := NewBatchError(ErrCodeGeneral, "100%% done, %v", "ok")
	assert.Equal(t, "100% done, ok", batchErr5.Message())
	assert.Equal(t, nil, batchErr5.Unwrap())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")

	cfgErr := newInvalidConfig("chunk size:%v", 0)
	assert.Equal(t, true, IsInvalidConfiguration(cfgErr))
	assert.Equal(t, false, IsTaskExecution(cfgErr))

	taskErr := newTaskError("s1", cause)
	assert.Equal(t, true, IsTaskExecution(taskErr))
	assert.Equal(t, false, IsChunkExecution(taskErr))
	assert.Equal(t, true, errors.Is(taskErr, cause))

	panicErr := newTaskError("s1", "bad state")
	assert.Equal(t, true, IsTaskExecution(panicErr))
	assert.Equal(t, true, strings.Contains(panicErr.Error(), "bad state"))

	chunkErr := newChunkError(StageWrite, "s2", cause)
	assert.Equal(t, true, IsChunkExecution(chunkErr))
	assert.Equal(t, true, errors.Is(chunkErr, cause))
	var ce *ChunkError
	wrapped := errors.Wrap(chunkErr, "outer")
	assert.Equal(t, true, errors.As(wrapped, &ce))
	assert.Equal(t, StageWrite, ce.Stage)
	assert.Equal(t, true, IsChunkExecution(wrapped))

	general := NewBatchError(ErrCodeGeneral, "listener failed", taskErr)
	assert.Equal(t, true, IsTaskExecution(general))

	assert.Equal(t, false, IsInvalidConfiguration(nil))
	assert.Equal(t, false, IsChunkExecution(cause))
}
