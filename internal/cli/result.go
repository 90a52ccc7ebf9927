package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewResultCmd создаёт группу команд для работы с результатами jobs.
func NewResultCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Read job results",
	}

	cmd.AddCommand(newResultGetCmd(env))

	return cmd
}

func newResultGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get JOB_ID",
		Short: "Fetch and consume the result of a job",
		Long: "Fetch the result of a finished job. The result is removed " +
			"from the store on read: a second get returns nothing.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			jobID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("parse job id %q: %w", args[0], err)
			}

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			result, err := ds.GetJobResult(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			if result == nil {
				out.Success(fmt.Sprintf("No result for job %s: not finished, already consumed or expired", jobID))
				return nil
			}

			errMsg := result.Error
			if errMsg == "" {
				errMsg = "-"
			}
			finished := result.FinishedAt
			out.Print(
				[]string{"JOB_ID", "OUTCOME", "FINISHED", "ERROR"},
				[][]string{{
					result.JobID.String(), string(result.Outcome),
					formatTime(&finished), errMsg,
				}},
				result,
			)
			return nil
		},
	}
}
