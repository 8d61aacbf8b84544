package minibatch

import (
	"database/sql"
)

// TransactionManager used by chunk step to execute every chunk in a transaction
type TransactionManager interface {
	BeginTx() (tx interface{}, err error)
	Commit(tx interface{}) error
	Rollback(tx interface{}) error
}

// DefaultTxManager TransactionManager over a *sql.DB, the tx handed to readers and writers is a *sql.Tx
type DefaultTxManager struct {
	db *sql.DB
}

// NewTransactionManager create a TransactionManager instance
func NewTransactionManager(db *sql.DB) TransactionManager {
	return &DefaultTxManager{
		db: db,
	}
}

// BeginTx begin a transaction
func (tm *DefaultTxManager) BeginTx() (interface{}, error) {
	tx, err := tm.db.Begin()
	if err != nil {
		return nil, NewBatchError(ErrCodeDbFail, "start transaction failed", err)
	}
	return tx, nil
}

// Commit commit a transaction
func (tm *DefaultTxManager) Commit(tx interface{}) error {
	if err := tx.(*sql.Tx).Commit(); err != nil {
		return NewBatchError(ErrCodeDbFail, "transaction commit failed", err)
	}
	return nil
}

// Rollback rollback a transaction
func (tm *DefaultTxManager) Rollback(tx interface{}) error {
	if err := tx.(*sql.Tx).Rollback(); err != nil && err != sql.ErrTxDone {
		return NewBatchError(ErrCodeDbFail, "transaction rollback failed", err)
	}
	return nil
}

// noTxManager used when neither the step nor SetTransactionManager provides one
type noTxManager struct{}

func (noTxManager) BeginTx() (interface{}, error) { return nil, nil }
func (noTxManager) Commit(interface{}) error      { return nil }
func (noTxManager) Rollback(interface{}) error    { return nil }
