package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Tempus/internal/domain"
)

// NewJobCmd создаёт группу команд для управления jobs.
func NewJobCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Manage jobs",
	}

	cmd.AddCommand(
		newJobAddCmd(env),
		newJobListCmd(env),
	)

	return cmd
}

func newJobAddCmd(env *Env) *cobra.Command {
	var argPairs []string
	var tags []string
	var lockExpiration time.Duration

	cmd := &cobra.Command{
		Use:   "add TASK_ID",
		Short: "Enqueue a one-off job for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			jobArgs, err := parseArgs(argPairs)
			if err != nil {
				return err
			}

			job := &domain.Job{
				ID:                  uuid.New(),
				TaskID:              args[0],
				Args:                jobArgs,
				Tags:                tags,
				CreatedAt:           time.Now().UTC(),
				LockExpirationDelay: lockExpiration,
			}

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := ds.AddJob(cmd.Context(), job); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Job added: %s", job.ID))
			out.Print(
				[]string{"ID", "TASK_ID", "ARGS", "TAGS"},
				[][]string{{
					job.ID.String(), job.TaskID,
					formatArgs(job.Args), formatTags(job.Tags),
				}},
				job,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&argPairs, "arg", nil, "Job args as KEY=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Job tags (repeatable)")
	cmd.Flags().DurationVar(&lockExpiration, "lock-expiration", 0, "Custom lease duration (0 = store default)")

	return cmd
}

func newJobListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list [ID...]",
		Short: "List pending jobs, optionally filtered by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			// nil означает «все»: пустой ненулевой срез сузил бы выборку до нуля
			var ids []uuid.UUID
			for _, arg := range args {
				id, err := uuid.Parse(arg)
				if err != nil {
					return fmt.Errorf("parse job id %q: %w", arg, err)
				}
				ids = append(ids, id)
			}

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			jobs, err := ds.GetJobs(cmd.Context(), ids)
			if err != nil {
				return err
			}

			headers := []string{"ID", "TASK_ID", "SCHEDULE_ID", "CREATED", "ACQUIRED_BY", "TAGS"}
			rows := make([][]string, len(jobs))
			for i, j := range jobs {
				scheduleID := j.ScheduleID
				if scheduleID == "" {
					scheduleID = "-"
				}
				acquiredBy := j.AcquiredBy
				if acquiredBy == "" {
					acquiredBy = "-"
				}
				created := j.CreatedAt
				rows[i] = []string{
					j.ID.String(), j.TaskID, scheduleID,
					formatTime(&created), acquiredBy, formatTags(j.Tags),
				}
			}

			out.Print(headers, rows, jobs)
			return nil
		},
	}
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ",")
}
