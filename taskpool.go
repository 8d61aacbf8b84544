package minibatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// taskPool runs submitted functions on a bounded set of goroutines
type taskPool struct {
	pool *ants.Pool
}

func newTaskPool(size int) *taskPool {
	pool, err := ants.NewPool(size)
	if err != nil {
		panic(fmt.Sprintf("create task pool of size:%v failed: %v", size, err))
	}
	return &taskPool{
		pool: pool,
	}
}

// Future the result of an asynchronous run, Get blocks until it is available and may be called repeatedly
type Future interface {
	Get() (interface{}, error)
}

type outcome struct {
	val interface{}
	err error
}

type futureImpl struct {
	ch   <-chan outcome
	once sync.Once
	res  outcome
}

func (f *futureImpl) Get() (interface{}, error) {
	f.once.Do(func() {
		f.res = <-f.ch
	})
	return f.res.val, f.res.err
}

func (pool *taskPool) Submit(ctx context.Context, task func() (interface{}, error)) Future {
	ch := make(chan outcome, 1)
	err := pool.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "panic in pooled task, err:%v, stack:%v", r, string(debug.Stack()))
				ch <- outcome{err: fmt.Errorf("panic:%v", r)}
			}
		}()
		val, err := task()
		ch <- outcome{val: val, err: err}
	})
	if err != nil {
		ch <- outcome{err: NewBatchError(ErrCodeGeneral, "submit to task pool failed", err)}
	}
	return &futureImpl{ch: ch}
}

func (pool *taskPool) Release() {
	pool.pool.Release()
}

func (pool *taskPool) SetMaxSize(size int) {
	pool.pool.Tune(size)
}
