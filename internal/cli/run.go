package cli

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/minibatch/minibatch"
	"github.com/minibatch/minibatch/config"
	"github.com/minibatch/minibatch/status"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type runOptions struct {
	configPath string
	envFile    string
	chunkSize  int
	input      string
	output     string
	dbTable    string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hello job",
		Long: `Run the hello job: step1 reads items (item1..item5, or the first column of a csv file),
prefixes them with "my " and writes them chunk by chunk; step2 reports how many items step1 wrote.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHelloJob(cmd, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "yaml config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "env file loaded before reading MINIBATCH_* variables")
	flags.IntVar(&opts.chunkSize, "chunk-size", 0, "items per chunk, overrides the config")
	flags.StringVarP(&opts.input, "input", "i", "", "csv file to read, a local path or ftp://host[:port]/path")
	flags.StringVarP(&opts.output, "output", "o", "", "json lines file receiving the processed items")
	flags.StringVar(&opts.dbTable, "db-table", "", "table receiving the processed items, requires database config")
	return cmd
}

func runHelloJob(cmd *cobra.Command, opts *runOptions) error {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("chunk-size") {
		cfg.Batch.ChunkSize = opts.chunkSize
	}
	minibatch.SetLogger(minibatch.NewLogger(os.Stderr, cfg.Log.Level))
	minibatch.SetMaxRunningJobs(cfg.Batch.MaxRunningJobs)

	var db *sql.DB
	if opts.dbTable != "" {
		if db, err = openDB(cfg.Database); err != nil {
			return err
		}
		defer db.Close()
	}
	job, err := buildHelloJob(cfg, opts, db, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	result, err := minibatch.RunAsync(context.Background(), job).Get()
	if err != nil {
		return err
	}
	execution := result.(*minibatch.JobExecution)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "job:%v execution:%v status:%v\n", execution.JobName, execution.JobExecutionId, execution.JobStatus)
	for _, se := range execution.StepExecutions {
		fmt.Fprintf(out, "  step:%v status:%v read:%v filter:%v write:%v commit:%v rollback:%v\n",
			se.StepName, se.StepStatus, se.ReadCount, se.FilterCount, se.WriteCount, se.CommitCount, se.RollbackCount)
	}
	if execution.JobStatus != status.COMPLETED {
		return execution.FailError
	}
	return nil
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "" {
		return nil, errors.New("no database configured, set database.driver and database.dsn")
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "open %v database", cfg.Driver)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "connect %v database", cfg.Driver)
	}
	return db, nil
}
