package cli

import (
	"database/sql"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minibatch/minibatch"
	"github.com/minibatch/minibatch/config"
	"github.com/minibatch/minibatch/file"
	"github.com/pkg/errors"
)

var helloItems = []string{"item1", "item2", "item3", "item4", "item5"}

func buildHelloJob(cfg *config.Config, opts *runOptions, db *sql.DB, out io.Writer) (minibatch.Job, error) {
	reader, err := helloReader(cfg, opts.input)
	if err != nil {
		return nil, err
	}
	writers := []minibatch.Writer{&printWriter{out: out}}
	if opts.output != "" {
		w, err := minibatch.NewFileWriter(file.FileDescriptor{
			FileStore: &file.LocalFileSystem{},
			FileName:  opts.output,
			Type:      file.JSON,
		})
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	step1 := minibatch.NewStep("step1").
		Reader(reader).
		Processor(minibatch.ProcessorFunc(prefixItem)).
		ChunkSize(cfg.Batch.ChunkSize)
	if db != nil {
		writers = append(writers, minibatch.NewSQLWriter(db, insertStatement(cfg.Database.Driver, opts.dbTable), nil))
		step1.Transaction(minibatch.NewTransactionManager(db))
	}
	step1.Writer(&multiWriter{writers: writers})
	s1, err := step1.Build()
	if err != nil {
		return nil, err
	}
	s2, err := minibatch.NewStep("step2").Task(func(contribution *minibatch.StepContribution) (minibatch.RepeatStatus, error) {
		written := int64(0)
		if se := contribution.StepExecution.JobExecution.StepExecution("step1"); se != nil {
			written = se.WriteCount
		}
		fmt.Fprintf(out, "hello from step2, step1 wrote %d items\n", written)
		return minibatch.Finished, nil
	}).Build()
	if err != nil {
		return nil, err
	}
	return minibatch.NewJob("helloJob").Step(s1, s2).Build()
}

func helloReader(cfg *config.Config, input string) (minibatch.Reader, error) {
	if input == "" {
		return minibatch.NewStringListReader(helloItems), nil
	}
	storage, name, err := storageFor(cfg.FTP, input)
	if err != nil {
		return nil, err
	}
	return minibatch.NewFileReader(file.FileDescriptor{
		FileStore: storage,
		FileName:  name,
		Type:      file.CSV,
	})
}

// storageFor pick the storage of location, ftp:// urls are served by an FTPFileSystem built from cfg.
// ftp:///path uses the configured host.
func storageFor(cfg config.FTPConfig, location string) (file.FileStorage, string, error) {
	if !strings.HasPrefix(location, "ftp://") {
		return &file.LocalFileSystem{}, location, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, "", errors.Wrapf(err, "invalid ftp location:%v", location)
	}
	host := u.Hostname()
	if host == "" {
		host = cfg.Host
	}
	if host == "" {
		return nil, "", errors.Errorf("no ftp host in %v and none configured", location)
	}
	fs := &file.FTPFileSystem{
		Host:        host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		ConnTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	if p := u.Port(); p != "" {
		if fs.Port, err = strconv.Atoi(p); err != nil {
			return nil, "", errors.Wrapf(err, "invalid ftp port of %v", location)
		}
	}
	if u.User != nil {
		fs.User = u.User.Username()
		if pwd, ok := u.User.Password(); ok {
			fs.Password = pwd
		}
	}
	return fs, u.Path, nil
}

// prefixItem csv records contribute their first column, empty records are skipped
func prefixItem(item interface{}, chunkCtx *minibatch.ChunkContext) (interface{}, error) {
	switch v := item.(type) {
	case string:
		return "my " + v, nil
	case []string:
		if len(v) == 0 || strings.TrimSpace(v[0]) == "" {
			return nil, nil
		}
		return "my " + v[0], nil
	default:
		return nil, errors.Errorf("unexpected item type:%T", item)
	}
}

func insertStatement(driver, table string) string {
	if driver == "postgres" {
		return fmt.Sprintf("INSERT INTO %s (item) VALUES ($1)", table)
	}
	return fmt.Sprintf("INSERT INTO %s (item) VALUES (?)", table)
}

type printWriter struct {
	out io.Writer
}

func (w *printWriter) Write(items []interface{}, chunkCtx *minibatch.ChunkContext) error {
	_, err := fmt.Fprintln(w.out, items)
	return err
}

// multiWriter hands every chunk to each writer in turn and forwards Open and Close to those that need it
type multiWriter struct {
	writers []minibatch.Writer
}

func (m *multiWriter) Open(execution *minibatch.StepExecution) error {
	for i, w := range m.writers {
		oc, ok := w.(minibatch.OpenCloser)
		if !ok {
			continue
		}
		if err := oc.Open(execution); err != nil {
			m.closeFirst(i, execution)
			return err
		}
	}
	return nil
}

func (m *multiWriter) closeFirst(n int, execution *minibatch.StepExecution) error {
	var first error
	for _, w := range m.writers[:n] {
		if oc, ok := w.(minibatch.OpenCloser); ok {
			if err := oc.Close(execution); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

func (m *multiWriter) Write(items []interface{}, chunkCtx *minibatch.ChunkContext) error {
	for _, w := range m.writers {
		if err := w.Write(items, chunkCtx); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiWriter) Close(execution *minibatch.StepExecution) error {
	return m.closeFirst(len(m.writers), execution)
}
