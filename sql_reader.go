package minibatch

import (
	"database/sql"
)

const (
	sqlItemReaderRowsKey    = "minibatch.SQLItemReader.rows"
	sqlItemReaderColumnsKey = "minibatch.SQLItemReader.columns"
)

// sqlReader streams the rows of a query, every row becomes a map from column name to value
type sqlReader struct {
	db    *sql.DB
	query string
	args  []interface{}
}

// NewSQLReader a Reader over the result of query. The query runs when the step opens the reader,
// outside of the chunk transactions.
func NewSQLReader(db *sql.DB, query string, args ...interface{}) Reader {
	return &sqlReader{
		db:    db,
		query: query,
		args:  args,
	}
}

func (r *sqlReader) Open(execution *StepExecution) error {
	if r.db == nil {
		return NewBatchError(ErrCodeInvalidConfig, "no db specified for sql reader")
	}
	rows, err := r.db.Query(r.query, r.args...)
	if err != nil {
		return NewBatchError(ErrCodeDbFail, "query:%v failed", r.query, err)
	}
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return NewBatchError(ErrCodeDbFail, "get columns of query:%v failed", r.query, err)
	}
	execution.StepContext.Put(sqlItemReaderRowsKey, rows)
	execution.StepContext.Put(sqlItemReaderColumnsKey, columns)
	return nil
}

func (r *sqlReader) Read(chunkCtx *ChunkContext) (interface{}, error) {
	stepCtx := chunkCtx.StepExecution.StepContext
	rows, ok := stepCtx.Get(sqlItemReaderRowsKey).(*sql.Rows)
	if !ok {
		return nil, NewBatchError(ErrCodeGeneral, "sql reader is not opened")
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, NewBatchError(ErrCodeDbFail, "iterate rows of query:%v failed", r.query, err)
		}
		return nil, nil
	}
	columns := stepCtx.Get(sqlItemReaderColumnsKey).([]string)
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}
	if err := rows.Scan(pointers...); err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "scan row of query:%v failed", r.query, err)
	}
	item := make(map[string]interface{}, len(columns))
	for i, col := range columns {
		if b, ok := values[i].([]byte); ok {
			item[col] = string(b)
		} else {
			item[col] = values[i]
		}
	}
	return item, nil
}

func (r *sqlReader) Close(execution *StepExecution) error {
	rows, ok := execution.StepContext.Get(sqlItemReaderRowsKey).(*sql.Rows)
	execution.StepContext.Remove(sqlItemReaderRowsKey)
	execution.StepContext.Remove(sqlItemReaderColumnsKey)
	if !ok {
		return nil
	}
	if err := rows.Close(); err != nil {
		return NewBatchError(ErrCodeDbFail, "close rows of query:%v failed", r.query, err)
	}
	return nil
}
