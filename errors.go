package minibatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// BatchError error raised by minibatch, carrying an error code and an optional cause
type BatchError interface {
	Code() string
	Message() string
	Error() string
	Unwrap() error
	StackTrace() errors.StackTrace
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type batchErr struct {
	code  string
	msg   string
	cause error
	stack error
}

func (err *batchErr) Code() string {
	return err.code
}

func (err *batchErr) Message() string {
	return err.msg
}

func (err *batchErr) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("batch err, code:%v, message:%v, cause:%v", err.code, err.msg, err.cause)
	}
	return fmt.Sprintf("batch err, code:%v, message:%v", err.code, err.msg)
}

func (err *batchErr) Unwrap() error {
	return err.cause
}

func (err *batchErr) StackTrace() errors.StackTrace {
	if st, ok := err.stack.(stackTracer); ok {
		return st.StackTrace()
	}
	return nil
}

func (err *batchErr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			io.WriteString(s, err.Error())
			err.StackTrace().Format(s, verb)
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, err.Error())
	case 'q':
		fmt.Fprintf(s, "%q", err.Error())
	}
}

// NewBatchError create a BatchError. msg is a format string for args; when the last arg is an error
// that is not consumed by a verb in msg, it becomes the cause of the BatchError.
func NewBatchError(code string, msg string, args ...interface{}) BatchError {
	cause, args := splitCause(msg, args)
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &batchErr{
		code:  code,
		msg:   msg,
		cause: cause,
		stack: errors.New(msg),
	}
}

func splitCause(msg string, args []interface{}) (error, []interface{}) {
	if len(args) == 0 {
		return nil, args
	}
	last, ok := args[len(args)-1].(error)
	if !ok {
		return nil, args
	}
	if countVerbs(msg) >= len(args) {
		return last, args
	}
	return last, args[:len(args)-1]
}

func countVerbs(format string) int {
	return strings.Count(format, "%") - 2*strings.Count(format, "%%")
}

const (
	ErrCodeInvalidConfig  = "invalid_config"
	ErrCodeTaskExecution  = "task_execution"
	ErrCodeChunkExecution = "chunk_execution"
	ErrCodeDbFail         = "db_fail"
	ErrCodeGeneral        = "general"
)

// ChunkStage the stage of a chunk loop in which an error was raised
type ChunkStage string

const (
	StageRead    ChunkStage = "read"
	StageProcess ChunkStage = "process"
	StageWrite   ChunkStage = "write"
	StageCommit  ChunkStage = "commit"
)

// ChunkError a ChunkExecutionError: the failure of a chunk-oriented step, tagged with the failing stage
type ChunkError struct {
	*batchErr
	Stage ChunkStage
}

func newChunkError(stage ChunkStage, stepName string, cause interface{}) *ChunkError {
	var be *batchErr
	if err, ok := cause.(error); ok {
		be = NewBatchError(ErrCodeChunkExecution, "chunk %v failed in step:%v", stage, stepName, err).(*batchErr)
	} else {
		be = NewBatchError(ErrCodeChunkExecution, "chunk %v panicked in step:%v, panic:%v", stage, stepName, cause).(*batchErr)
	}
	return &ChunkError{batchErr: be, Stage: stage}
}

func newInvalidConfig(msg string, args ...interface{}) BatchError {
	return NewBatchError(ErrCodeInvalidConfig, msg, args...)
}

func newTaskError(stepName string, cause interface{}) BatchError {
	if err, ok := cause.(error); ok {
		return NewBatchError(ErrCodeTaskExecution, "task failed in step:%v", stepName, err)
	}
	return NewBatchError(ErrCodeTaskExecution, "task panicked in step:%v, panic:%v", stepName, cause)
}

func hasCode(err error, code string) bool {
	var be BatchError
	for err != nil {
		if errors.As(err, &be) {
			if be.Code() == code {
				return true
			}
			err = be.Unwrap()
			continue
		}
		return false
	}
	return false
}

// IsInvalidConfiguration reports whether err is, or wraps, an InvalidConfigurationError
func IsInvalidConfiguration(err error) bool {
	return hasCode(err, ErrCodeInvalidConfig)
}

// IsTaskExecution reports whether err is, or wraps, a TaskExecutionError
func IsTaskExecution(err error) bool {
	return hasCode(err, ErrCodeTaskExecution)
}

// IsChunkExecution reports whether err is, or wraps, a ChunkExecutionError
func IsChunkExecution(err error) bool {
	return hasCode(err, ErrCodeChunkExecution)
}
