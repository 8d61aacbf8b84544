package minibatch

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/minibatch/minibatch/file"
	"github.com/minibatch/minibatch/status"
)

type trade struct {
	TradeNo string `json:"tradeNo"`
	Amount  string `json:"amount"`
}

func TestFileStep_CsvToJson(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "trades.csv")
	assert.Equal(t, nil, os.WriteFile(input, []byte("tradeNo,amount\nT1,10\nT2,0\nT3,2.5\n"), 0644))
	output := filepath.Join(dir, "trades.json")

	in := file.FileDescriptor{FileStore: &file.LocalFileSystem{}, FileName: input, Type: file.CSV, Header: true}
	out := file.FileDescriptor{FileStore: &file.LocalFileSystem{}, FileName: output, Type: file.JSON, Checksum: file.MD5}
	step, err := NewStep("convert").
		ReadFile(in).
		Processor(ProcessorFunc(func(item interface{}, chunkCtx *ChunkContext) (interface{}, error) {
			record := item.([]string)
			if record[1] == "0" {
				return nil, nil
			}
			return map[string]string{"tradeNo": record[0], "amount": record[1]}, nil
		})).
		WriteFile(out).
		ChunkSize(1).
		Build()
	execution := runSingleStep(t, step, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	se := execution.StepExecutions[0]
	assert.Equal(t, int64(3), se.ReadCount)
	assert.Equal(t, int64(1), se.FilterCount)
	assert.Equal(t, int64(2), se.WriteCount)
	for _, key := range []string{fileItemReaderHandleKey, fileItemReaderFileNameKey, fileItemWriterHandleKey, fileItemWriterFileNameKey} {
		assert.Equalf(t, false, se.StepContext.Exists(key), "key %v left in step context", key)
	}

	content, err := os.ReadFile(output)
	assert.Equal(t, nil, err)
	assert.Equal(t, "{\"amount\":\"10\",\"tradeNo\":\"T1\"}\n{\"amount\":\"2.5\",\"tradeNo\":\"T3\"}\n", string(content))
	ok, err := file.GetChecksumer(file.MD5).Verify(out)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ok)

	// read back through the json prototype
	writer := &chunkRecorder{}
	out.ItemPrototype = &trade{}
	back, err := NewStep("read-back").ReadFile(out).Writer(writer).Build()
	execution = runSingleStep(t, back, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, [][]interface{}{{&trade{"T1", "10"}, &trade{"T3", "2.5"}}}, writer.chunks)
}

func TestFileStep_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "data.csv")
	assert.Equal(t, nil, os.WriteFile(input, []byte("a\n"), 0644))
	in := file.FileDescriptor{FileStore: &file.LocalFileSystem{}, FileName: input, Type: file.CSV, Checksum: file.OKFlag}
	step, err := NewStep("verify").ReadFile(in).Writer(nopWriter).Build()
	execution := runSingleStep(t, step, err)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, true, IsChunkExecution(execution.FailError))
}

type failingAfterChunk struct{}

func (failingAfterChunk) BeforeChunk(chunkCtx *ChunkContext) error { return nil }
func (failingAfterChunk) AfterChunk(chunkCtx *ChunkContext) error  { return errors.New("audit unavailable") }
func (failingAfterChunk) OnError(chunkCtx *ChunkContext, err error) {}

type closeFailingReader struct {
	openCloseReader
}

func (r *closeFailingReader) Close(execution *StepExecution) error {
	r.closed++
	return errors.New("cursor lost")
}

func TestFileStep_NoChecksumWhenStepFails(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out.json")
	out := file.FileDescriptor{FileStore: &file.LocalFileSystem{}, FileName: output, Type: file.JSON, Checksum: file.OKFlag}

	step, err := NewStep("after-chunk-fails").Reader(NewListReader("a", "b")).WriteFile(out).Listener(failingAfterChunk{}).Build()
	execution := runSingleStep(t, step, err)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, int64(0), execution.StepExecutions[0].RollbackCount)
	_, statErr := os.Stat(output + ".ok")
	assert.Equal(t, true, os.IsNotExist(statErr))

	reader := &closeFailingReader{openCloseReader{items: intItems(2)}}
	step, err = NewStep("reader-close-fails").Reader(reader).WriteFile(out).Build()
	execution = runSingleStep(t, step, err)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, 1, reader.closed)
	_, statErr = os.Stat(output + ".ok")
	assert.Equal(t, true, os.IsNotExist(statErr))

	step, err = NewStep("succeeds").Reader(NewListReader("a", "b")).WriteFile(out).Build()
	execution = runSingleStep(t, step, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	_, statErr = os.Stat(output + ".ok")
	assert.Equal(t, nil, statErr)
}

func TestFileStep_InvalidDescriptor(t *testing.T) {
	_, err := NewStep("bad").ReadFile(file.FileDescriptor{FileStore: &file.LocalFileSystem{}, FileName: "x.xml", Type: "xml"}).Writer(nopWriter).Build()
	assert.Equal(t, true, IsInvalidConfiguration(err))
	_, err = NewStep("bad").Reader(NewListReader(1)).WriteFile(file.FileDescriptor{FileName: "x.csv", Type: file.CSV}).Build()
	assert.Equal(t, true, IsInvalidConfiguration(err))
	_, err = NewStep("bad").Reader(NewListReader(1)).WriteFile(file.FileDescriptor{FileStore: &file.LocalFileSystem{}, FileName: "x.csv", Type: file.CSV, Checksum: "CRC"}).Build()
	assert.Equal(t, true, IsInvalidConfiguration(err))
}

func TestCopyFileStep(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.csv")
	dst := filepath.Join(dir, "dst.csv")
	assert.Equal(t, nil, os.WriteFile(src, []byte("1,2,3\n"), 0644))
	fs := &file.LocalFileSystem{}
	step, err := NewStep("copy").CopyFile(file.FileMove{FromFileName: src, FromFileStore: fs, ToFileName: dst, ToFileStore: fs}).Build()
	execution := runSingleStep(t, step, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, int64(6), execution.StepExecutions[0].WriteCount)
	content, err := os.ReadFile(dst)
	assert.Equal(t, nil, err)
	assert.Equal(t, "1,2,3\n", string(content))

	step, err = NewStep("copy-missing").CopyFile(file.FileMove{FromFileName: filepath.Join(dir, "none"), FromFileStore: fs, ToFileName: dst, ToFileStore: fs}).Build()
	execution = runSingleStep(t, step, err)
	assert.Equal(t, status.FAILED, execution.JobStatus)
	assert.Equal(t, true, IsTaskExecution(execution.FailError))
}

type execCall struct {
	query string
	args  []interface{}
}

type fakeExecTx struct {
	calls []execCall
	err   error
}

func (tx *fakeExecTx) Exec(query string, args ...interface{}) (sql.Result, error) {
	if tx.err != nil {
		return nil, tx.err
	}
	tx.calls = append(tx.calls, execCall{query, args})
	return nil, nil
}

type execTxManager struct {
	tx *fakeExecTx
}

func (tm *execTxManager) BeginTx() (interface{}, error) { return tm.tx, nil }
func (tm *execTxManager) Commit(tx interface{}) error   { return nil }
func (tm *execTxManager) Rollback(tx interface{}) error { return nil }

func TestSQLWriter_UsesChunkTransaction(t *testing.T) {
	tx := &fakeExecTx{}
	writer := NewSQLWriter(nil, "INSERT INTO t (a, b) VALUES (?, ?)", func(item interface{}) ([]interface{}, error) {
		return []interface{}{item, item.(int) * 10}, nil
	})
	step, err := NewStep("sql").Reader(NewListReader(1, 2, 3)).Writer(writer).ChunkSize(2).Transaction(&execTxManager{tx: tx}).Build()
	execution := runSingleStep(t, step, err)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, 3, len(tx.calls))
	assert.Equal(t, []interface{}{3, 30}, tx.calls[2].args)
	assert.Equal(t, "INSERT INTO t (a, b) VALUES (?, ?)", tx.calls[0].query)
}

func TestSQLWriter_Errors(t *testing.T) {
	writer := NewSQLWriter(nil, "INSERT INTO t VALUES (?)", nil)
	step, err := NewStep("no-db").Reader(NewListReader(1)).Writer(writer).Build()
	execution := runSingleStep(t, step, err)
	assert.Equal(t, status.FAILED, execution.JobStatus)

	tx := &fakeExecTx{err: errors.New("duplicate key")}
	step, err = NewStep("dup").Reader(NewListReader(1)).Writer(writer).Transaction(&execTxManager{tx: tx}).Build()
	execution = runSingleStep(t, step, err)
	ce := chunkFailure(t, execution)
	assert.Equal(t, StageWrite, ce.Stage)
}

func TestSQLReader_NoDB(t *testing.T) {
	step, err := NewStep("no-db").Reader(NewSQLReader(nil, "SELECT 1")).Writer(nopWriter).Build()
	execution := runSingleStep(t, step, err)
	ce := chunkFailure(t, execution)
	assert.Equal(t, StageRead, ce.Stage)
}

func TestTransactionManager_RequiresNonNil(t *testing.T) {
	defer func() {
		assert.NotEqual(t, nil, recover())
	}()
	SetTransactionManager(nil)
}

func TestRunWithGlobalTransactionManager(t *testing.T) {
	tx := &fakeExecTx{}
	SetTransactionManager(&execTxManager{tx: tx})
	defer SetTransactionManager(noTxManager{})
	step, err := NewStep("global-tx").Reader(NewListReader("a")).Writer(NewSQLWriter(nil, "INSERT INTO t VALUES (?)", nil)).Build()
	assert.Equal(t, nil, err)
	job, _ := NewJob("global", step).Build()
	execution := Run(context.Background(), job)
	assert.Equal(t, status.COMPLETED, execution.JobStatus)
	assert.Equal(t, []interface{}{"a"}, tx.calls[0].args)
}
