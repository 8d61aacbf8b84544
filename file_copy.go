package minibatch

import (
	"context"

	"github.com/minibatch/minibatch/file"
)

// newFileCopyTask a task copying every file in one turn, the write count of the step is the number of bytes copied
func newFileCopyTask(filesToMove []file.FileMove) Task {
	moves := append([]file.FileMove(nil), filesToMove...)
	return func(contribution *StepContribution) (RepeatStatus, error) {
		for _, fm := range moves {
			n, err := file.Copy(fm)
			if err != nil {
				return Finished, NewBatchError(ErrCodeGeneral, "copy file: %v -> %v error", fm.FromFileName, fm.ToFileName, err)
			}
			contribution.IncrementWriteCount(n)
			logger.Debug(context.Background(), "file copied, stepName:%v, from:%v, to:%v, bytes:%v", contribution.StepExecution.StepName, fm.FromFileName, fm.ToFileName, n)
		}
		return Finished, nil
	}
}
