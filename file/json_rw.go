package file

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"reflect"

	"github.com/minibatch/minibatch/util"
	"github.com/pkg/errors"
)

type jsonReader struct {
	fd         FileDescriptor
	reader     io.ReadCloser
	bufReader  *bufio.Reader
	structType reflect.Type
}

type jsonWriter struct {
	fd        FileDescriptor
	writer    io.WriteCloser
	bufWriter *bufio.Writer
}

// jsonFileItemReader reads one json document per line, blank lines are ignored
type jsonFileItemReader struct {
}

func (r *jsonFileItemReader) Open(fd FileDescriptor) (interface{}, error) {
	if fd.Type != JSON {
		return nil, errors.New("file type doesn't match jsonFileItemReader")
	}
	tp, err := fd.ItemType()
	if err != nil {
		return nil, err
	}
	reader, err := fd.FileStore.Open(fd.FileName)
	if err != nil {
		return nil, err
	}
	return &jsonReader{fd, reader, bufio.NewReader(reader), tp}, nil
}

func (r *jsonFileItemReader) Close(handle interface{}) error {
	fdr := handle.(*jsonReader)
	return fdr.reader.Close()
}

// ReadItem returns a pointer to a new prototype value, or a map[string]interface{} when no prototype is set
func (r *jsonFileItemReader) ReadItem(handle interface{}) (interface{}, error) {
	fdr := handle.(*jsonReader)
	for {
		line, err := fdr.bufReader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(bytes.TrimSpace(line)) == 0 {
			if err == io.EOF {
				return nil, nil
			}
			continue
		}
		if fdr.structType == nil {
			item := make(map[string]interface{})
			if e := json.Unmarshal(line, &item); e != nil {
				return nil, errors.Wrapf(e, "decode line of %v", fdr.fd.String())
			}
			return item, nil
		}
		val := reflect.New(fdr.structType)
		if e := json.Unmarshal(line, val.Interface()); e != nil {
			return nil, errors.Wrapf(e, "decode line of %v", fdr.fd.String())
		}
		return val.Interface(), nil
	}
}

type jsonFileItemWriter struct {
}

func (w *jsonFileItemWriter) Open(fd FileDescriptor) (interface{}, error) {
	if fd.Type != JSON {
		return nil, errors.New("file type doesn't match jsonFileItemWriter")
	}
	writer, err := fd.FileStore.Create(fd.FileName)
	if err != nil {
		return nil, err
	}
	return &jsonWriter{fd, writer, bufio.NewWriter(writer)}, nil
}

func (w *jsonFileItemWriter) Close(handle interface{}) error {
	fdw := handle.(*jsonWriter)
	err := fdw.bufWriter.Flush()
	if e := fdw.writer.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

func (w *jsonFileItemWriter) WriteItem(handle interface{}, item interface{}) error {
	fdw := handle.(*jsonWriter)
	buf, err := util.JsonLine(item)
	if err != nil {
		return err
	}
	_, err = fdw.bufWriter.Write(buf)
	return err
}
