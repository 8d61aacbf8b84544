package minibatch

import (
	"os"

	"github.com/minibatch/minibatch/internal/logs"
)

// Logger the logging interface used by minibatch
type Logger = logs.Logger

//log
var logger Logger = logs.NewLogger(os.Stdout, logs.Info)

//SetLogger set a logger instance for minibatch
func SetLogger(l Logger) {
	logger = l
}

//NewLogger a leveled logger writing lines to w, level is one of debug, info, warn, error, off
func NewLogger(w interface{ WriteString(string) (int, error) }, level string) Logger {
	return logs.NewLogger(w, logs.ParseLevel(level))
}

//job pool
const (
	DefaultJobPoolSize = 10
)

var jobPool = newTaskPool(DefaultJobPoolSize)

//SetMaxRunningJobs set max number of jobs started by RunAsync that may run at the same time
func SetMaxRunningJobs(size int) {
	jobPool.SetMaxSize(size)
}

//transaction manager
var txManager TransactionManager = noTxManager{}

//SetTransactionManager register the TransactionManager used by chunk steps that are built without one
func SetTransactionManager(txMgr TransactionManager) {
	if txMgr == nil {
		panic("transaction manager must not be nil")
	}
	txManager = txMgr
}
