package minibatch

import (
	"database/sql"
)

// sqlExecer the part of *sql.DB and *sql.Tx used to write items
type sqlExecer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// SQLArgsFunc maps an item to the arguments of the write statement
type SQLArgsFunc func(item interface{}) ([]interface{}, error)

type sqlWriter struct {
	db        sqlExecer
	statement string
	argsFunc  SQLArgsFunc
}

// NewSQLWriter a Writer executing statement once per item. When the chunk runs in a transaction
// started by a DefaultTxManager the statements join it, otherwise they run directly on db.
func NewSQLWriter(db *sql.DB, statement string, argsFunc SQLArgsFunc) Writer {
	w := &sqlWriter{
		statement: statement,
		argsFunc:  argsFunc,
	}
	if db != nil {
		w.db = db
	}
	return w
}

func (w *sqlWriter) Write(items []interface{}, chunkCtx *ChunkContext) error {
	execer := w.db
	if tx, ok := chunkCtx.Tx.(sqlExecer); ok && tx != nil {
		execer = tx
	}
	if execer == nil {
		return NewBatchError(ErrCodeInvalidConfig, "neither db nor transaction available for sql writer")
	}
	for _, item := range items {
		var args []interface{}
		if w.argsFunc != nil {
			var err error
			if args, err = w.argsFunc(item); err != nil {
				return NewBatchError(ErrCodeGeneral, "build args of statement:%v for item:%v failed", w.statement, item, err)
			}
		} else {
			args = []interface{}{item}
		}
		if _, err := execer.Exec(w.statement, args...); err != nil {
			return NewBatchError(ErrCodeDbFail, "execute statement:%v failed", w.statement, err)
		}
	}
	return nil
}
