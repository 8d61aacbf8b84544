package minibatch

import (
	"github.com/minibatch/minibatch/file"
)

const (
	fileItemWriterHandleKey   = "minibatch.FileItemWriter.handle"
	fileItemWriterFileNameKey = "minibatch.FileItemWriter.fileName"
)

type fileWriter struct {
	fd        file.FileDescriptor
	writer    file.FileItemWriter
	checksumer file.ChecksumFlusher
}

// NewFileWriter a Writer appending items to fd. The file is created when the step starts;
// the checksum file, if any, is generated when the step closes the writer.
func NewFileWriter(fd file.FileDescriptor) (Writer, error) {
	if fd.FileStore == nil || fd.FileName == "" {
		return nil, newInvalidConfig("file storage and file name are required for file writer")
	}
	w := &fileWriter{fd: fd}
	if w.writer = file.GetFileItemWriter(fd.Type); w.writer == nil {
		return nil, newInvalidConfig("unsupported file type:%v of %v", fd.Type, fd.String())
	}
	if fd.Checksum != "" {
		if w.checksumer = file.GetChecksumer(fd.Checksum); w.checksumer == nil {
			return nil, newInvalidConfig("unsupported checksum:%v of %v", fd.Checksum, fd.String())
		}
	}
	return w, nil
}

func (w *fileWriter) Open(execution *StepExecution) error {
	handle, err := w.writer.Open(w.fd)
	if err != nil {
		return NewBatchError(ErrCodeGeneral, "open file writer:%v err", w.fd.String(), err)
	}
	execution.StepContext.Put(fileItemWriterHandleKey, handle)
	execution.StepContext.Put(fileItemWriterFileNameKey, w.fd.String())
	return nil
}

func (w *fileWriter) Write(items []interface{}, chunkCtx *ChunkContext) error {
	stepCtx := chunkCtx.StepExecution.StepContext
	handle := stepCtx.Get(fileItemWriterHandleKey)
	fileName := stepCtx.Get(fileItemWriterFileNameKey)
	if handle == nil {
		return NewBatchError(ErrCodeGeneral, "file writer is not opened")
	}
	for _, item := range items {
		if err := w.writer.WriteItem(handle, item); err != nil {
			return NewBatchError(ErrCodeGeneral, "write item to file:%v err", fileName, err)
		}
	}
	return nil
}

// Close flushes the file; the checksum file is only generated when the step has not failed
func (w *fileWriter) Close(execution *StepExecution) error {
	stepCtx := execution.StepContext
	handle := stepCtx.Get(fileItemWriterHandleKey)
	fileName := stepCtx.Get(fileItemWriterFileNameKey)
	if handle == nil {
		return nil
	}
	stepCtx.Remove(fileItemWriterHandleKey)
	stepCtx.Remove(fileItemWriterFileNameKey)
	if err := w.writer.Close(handle); err != nil {
		return NewBatchError(ErrCodeGeneral, "close file writer:%v err", fileName, err)
	}
	if w.checksumer != nil && execution.FailError == nil {
		if err := w.checksumer.Checksum(w.fd); err != nil {
			return NewBatchError(ErrCodeGeneral, "generate file checksum:%v err", fileName, err)
		}
	}
	return nil
}
