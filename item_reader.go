package minibatch

import (
	"reflect"

	"github.com/pkg/errors"
)

const (
	ItemReaderKeyList      = "minibatch.item.reader.key.list"
	ItemReaderCurrentIndex = "minibatch.item.reader.current.index"
	ItemReaderMaxIndex     = "minibatch.item.reader.max.index"
)

// ItemReader a source addressed by keys: all keys are loaded when the step opens, then items are fetched one key at a time
type ItemReader interface {
	ReadKeys() ([]interface{}, error)
	ReadItem(key interface{}) (interface{}, error)
}

// keyedReader adapts an ItemReader to Reader, keeping its cursor in the StepContext
// so that a reader value can serve any number of step executions
type keyedReader struct {
	itemReader ItemReader
}

func (reader *keyedReader) Open(execution *StepExecution) error {
	keys, err := reader.itemReader.ReadKeys()
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "ReadKeys() err", err)
	}
	stepCtx := execution.StepContext
	stepCtx.Put(ItemReaderKeyList, keys)
	stepCtx.Put(ItemReaderCurrentIndex, 0)
	stepCtx.Put(ItemReaderMaxIndex, len(keys))
	return nil
}

func (reader *keyedReader) Read(chunkCtx *ChunkContext) (interface{}, error) {
	stepCtx := chunkCtx.StepExecution.StepContext
	keyList := stepCtx.Get(ItemReaderKeyList)
	if keyList == nil {
		return nil, errors.New("item reader is not opened")
	}
	currentIndex, _ := stepCtx.GetInt(ItemReaderCurrentIndex)
	maxIndex, _ := stepCtx.GetInt(ItemReaderMaxIndex)
	if currentIndex >= maxIndex {
		return nil, nil
	}
	key := reflect.ValueOf(keyList).Index(currentIndex).Interface()
	item, err := reader.itemReader.ReadItem(key)
	if err != nil {
		return nil, errors.Wrapf(err, "read item of key:%v", key)
	}
	stepCtx.Put(ItemReaderCurrentIndex, currentIndex+1)
	return item, nil
}

func (reader *keyedReader) Close(execution *StepExecution) error {
	stepCtx := execution.StepContext
	stepCtx.Remove(ItemReaderKeyList)
	stepCtx.Remove(ItemReaderCurrentIndex)
	stepCtx.Remove(ItemReaderMaxIndex)
	return nil
}

type listKeys []interface{}

func (l listKeys) ReadKeys() ([]interface{}, error) {
	keys := make([]interface{}, len(l))
	for i := range l {
		keys[i] = i
	}
	return keys, nil
}

func (l listKeys) ReadItem(key interface{}) (interface{}, error) {
	return l[key.(int)], nil
}

// NewListReader a Reader over a fixed list of items, read in order. The list is copied.
func NewListReader(items ...interface{}) Reader {
	cp := make(listKeys, len(items))
	copy(cp, items)
	return &keyedReader{itemReader: cp}
}

// NewStringListReader like NewListReader for a slice of strings
func NewStringListReader(items []string) Reader {
	list := make([]interface{}, len(items))
	for i, s := range items {
		list[i] = s
	}
	return NewListReader(list...)
}
