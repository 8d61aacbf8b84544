package file

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

type csvReader struct {
	fd      FileDescriptor
	reader  io.ReadCloser
	cReader *csv.Reader
}

type csvWriter struct {
	fd      FileDescriptor
	writer  io.WriteCloser
	buf     *bufio.Writer
	cWriter *csv.Writer
}

// csvFileItemReader yields every record as []string, the header row is not an item
type csvFileItemReader struct {
}

func (r *csvFileItemReader) Open(fd FileDescriptor) (interface{}, error) {
	if fd.Type != CSV {
		return nil, errors.New("file type doesn't match csvFileItemReader")
	}
	reader, err := fd.FileStore.Open(fd.FileName)
	if err != nil {
		return nil, err
	}
	cReader := csv.NewReader(bufio.NewReader(reader))
	cReader.FieldsPerRecord = -1
	handle := &csvReader{fd, reader, cReader}
	if fd.Header {
		record, err := cReader.Read()
		if err != nil && err != io.EOF {
			reader.Close()
			return nil, errors.Wrapf(err, "read header of %v", fd.String())
		}
		handle.fd.Fields = record
	}
	return handle, nil
}

func (r *csvFileItemReader) Close(handle interface{}) error {
	fdr := handle.(*csvReader)
	return fdr.reader.Close()
}

func (r *csvFileItemReader) ReadItem(handle interface{}) (interface{}, error) {
	fdr := handle.(*csvReader)
	record, err := fdr.cReader.Read()
	if err == io.EOF {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return record, nil
}

// csvFileItemWriter accepts []string or []interface{} items, other values are written as a single field
type csvFileItemWriter struct {
}

func (w *csvFileItemWriter) Open(fd FileDescriptor) (interface{}, error) {
	if fd.Type != CSV {
		return nil, errors.New("file type doesn't match csvFileItemWriter")
	}
	writer, err := fd.FileStore.Create(fd.FileName)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(writer)
	cWriter := csv.NewWriter(buf)
	if fd.Header {
		if len(fd.Fields) == 0 {
			writer.Close()
			return nil, errors.Errorf("no header fields specified for %v", fd.String())
		}
		if err = cWriter.Write(fd.Fields); err != nil {
			writer.Close()
			return nil, err
		}
	}
	return &csvWriter{fd, writer, buf, cWriter}, nil
}

func (w *csvFileItemWriter) Close(handle interface{}) error {
	fdw := handle.(*csvWriter)
	fdw.cWriter.Flush()
	err := fdw.cWriter.Error()
	if err == nil {
		err = fdw.buf.Flush()
	}
	if e := fdw.writer.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

func (w *csvFileItemWriter) WriteItem(handle interface{}, item interface{}) error {
	fdw := handle.(*csvWriter)
	var fields []string
	switch v := item.(type) {
	case []string:
		fields = v
	case []interface{}:
		fields = make([]string, len(v))
		for i, f := range v {
			fields[i] = fmt.Sprint(f)
		}
	default:
		fields = []string{fmt.Sprint(v)}
	}
	return fdw.cWriter.Write(fields)
}
