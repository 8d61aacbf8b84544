package minibatch

import (
	"github.com/minibatch/minibatch/file"
)

const (
	fileItemReaderHandleKey   = "minibatch.FileItemReader.handle"
	fileItemReaderFileNameKey = "minibatch.FileItemReader.fileName"
)

// fileReader reads items from a file, the open handle lives in the StepContext of the running step
type fileReader struct {
	fd       file.FileDescriptor
	reader   file.FileItemReader
	verifier file.ChecksumVerifier
}

// NewFileReader a Reader over the items of fd. The checksum of fd, if any, is verified when the step opens the reader.
func NewFileReader(fd file.FileDescriptor) (Reader, error) {
	if fd.FileStore == nil || fd.FileName == "" {
		return nil, newInvalidConfig("file storage and file name are required for file reader")
	}
	r := &fileReader{fd: fd}
	if r.reader = file.GetFileItemReader(fd.Type); r.reader == nil {
		return nil, newInvalidConfig("unsupported file type:%v of %v", fd.Type, fd.String())
	}
	if fd.Checksum != "" {
		if r.verifier = file.GetChecksumer(fd.Checksum); r.verifier == nil {
			return nil, newInvalidConfig("unsupported checksum:%v of %v", fd.Checksum, fd.String())
		}
	}
	return r, nil
}

func (r *fileReader) Open(execution *StepExecution) error {
	fd := r.fd
	if r.verifier != nil {
		ok, err := r.verifier.Verify(fd)
		if err != nil {
			return NewBatchError(ErrCodeGeneral, "verify file checksum:%v err", fd.String(), err)
		}
		if !ok {
			return NewBatchError(ErrCodeGeneral, "file checksum:%v mismatch for %v", fd.Checksum, fd.String())
		}
	}
	handle, err := r.reader.Open(fd)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "open file reader:%v err", fd.String(), err)
	}
	stepCtx := execution.StepContext
	stepCtx.Put(fileItemReaderHandleKey, handle)
	stepCtx.Put(fileItemReaderFileNameKey, fd.String())
	return nil
}

func (r *fileReader) Read(chunkCtx *ChunkContext) (interface{}, error) {
	stepCtx := chunkCtx.StepExecution.StepContext
	handle := stepCtx.Get(fileItemReaderHandleKey)
	fileName := stepCtx.Get(fileItemReaderFileNameKey)
	if handle == nil {
		return nil, NewBatchError(ErrCodeGeneral, "file reader is not opened")
	}
	item, err := r.reader.ReadItem(handle)
	if err != nil {
		return nil, NewBatchError(ErrCodeGeneral, "read item from file:%v err", fileName, err)
	}
	return item, nil
}

func (r *fileReader) Close(execution *StepExecution) error {
	stepCtx := execution.StepContext
	handle := stepCtx.Get(fileItemReaderHandleKey)
	fileName := stepCtx.Get(fileItemReaderFileNameKey)
	if handle == nil {
		return nil
	}
	stepCtx.Remove(fileItemReaderHandleKey)
	stepCtx.Remove(fileItemReaderFileNameKey)
	if err := r.reader.Close(handle); err != nil {
		return NewBatchError(ErrCodeGeneral, "close file reader:%v err", fileName, err)
	}
	return nil
}
