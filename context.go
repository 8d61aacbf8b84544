package minibatch

import (
	"encoding/json"
	"fmt"

	"github.com/minibatch/minibatch/util"
	"github.com/pkg/errors"
)

//BatchContext a property bag shared by the code running inside a job or a step
type BatchContext struct {
	kvs map[string]interface{}
}

//NewBatchContext new instance
func NewBatchContext() *BatchContext {
	return &BatchContext{kvs: map[string]interface{}{}}
}

func (ctx *BatchContext) Put(key string, value interface{}) {
	ctx.kvs[key] = value
}

func (ctx *BatchContext) Exists(key string) bool {
	_, ok := ctx.kvs[key]
	return ok
}

func (ctx *BatchContext) Remove(key string) {
	delete(ctx.kvs, key)
}

func (ctx *BatchContext) Keys() []string {
	keys := make([]string, 0, len(ctx.kvs))
	for k := range ctx.kvs {
		keys = append(keys, k)
	}
	return keys
}

func (ctx *BatchContext) Get(key string, def ...interface{}) interface{} {
	val := ctx.kvs[key]
	if val == nil && len(def) > 0 {
		val = def[0]
	}
	return val
}

func (ctx *BatchContext) GetInt(key string, def ...int) (int, error) {
	v := ctx.kvs[key]
	if v == nil && len(def) > 0 {
		return def[0], nil
	}
	if n, ok := toInt64(v); ok {
		return int(n), nil
	}
	return 0, errors.Errorf("value is nil or not int: %v", v)
}

func (ctx *BatchContext) GetInt64(key string, def ...int64) (int64, error) {
	v := ctx.kvs[key]
	if v == nil && len(def) > 0 {
		return def[0], nil
	}
	if n, ok := toInt64(v); ok {
		return n, nil
	}
	return 0, errors.Errorf("value is nil or not int64: %v", v)
}

func toInt64(v interface{}) (int64, bool) {
	switch r := v.(type) {
	case int:
		return int64(r), true
	case int8:
		return int64(r), true
	case int16:
		return int64(r), true
	case int32:
		return int64(r), true
	case int64:
		return r, true
	case uint:
		return int64(r), true
	case uint8:
		return int64(r), true
	case uint16:
		return int64(r), true
	case uint32:
		return int64(r), true
	case uint64:
		return int64(r), true
	case float32:
		return int64(r), true
	case float64:
		// numbers decoded from JSON
		return int64(r), true
	}
	return 0, false
}

func (ctx *BatchContext) GetString(key string, def ...string) (string, error) {
	v := ctx.kvs[key]
	if v == nil && len(def) > 0 {
		return def[0], nil
	}
	if r, ok := v.(string); ok {
		return r, nil
	}
	return "", errors.Errorf("value is nil or not string: %v", v)
}

func (ctx *BatchContext) GetBool(key string, def ...bool) (bool, error) {
	v := ctx.kvs[key]
	if v == nil && len(def) > 0 {
		return def[0], nil
	}
	if r, ok := v.(bool); ok {
		return r, nil
	}
	return false, errors.Errorf("value is nil or not bool: %v", v)
}

func (ctx *BatchContext) DeepCopy() *BatchContext {
	result := NewBatchContext()
	result.Merge(ctx)
	return result
}

func (ctx *BatchContext) Merge(other *BatchContext) {
	for key, value := range other.kvs {
		ctx.Put(key, value)
	}
}

func (ctx *BatchContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(ctx.kvs)
}

func (ctx *BatchContext) UnmarshalJSON(b []byte) error {
	if ctx.kvs == nil {
		ctx.kvs = map[string]interface{}{}
	}
	return util.ParseJson(string(b), &ctx.kvs)
}

func (ctx *BatchContext) String() string {
	str, err := util.JsonString(ctx.kvs)
	if err != nil {
		return fmt.Sprintf("%v", ctx.kvs)
	}
	return str
}

//ChunkContext handed to Reader, Processor and Writer for every chunk of a chunk-oriented step
type ChunkContext struct {
	StepExecution *StepExecution
	//Tx the transaction of the current chunk, nil if the step has no TransactionManager
	Tx interface{}
	//End the reader has been exhausted during this chunk
	End bool
}
