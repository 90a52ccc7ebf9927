package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tempus/internal/domain"
)

// NewTaskCmd создаёт группу команд для управления tasks.
func NewTaskCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}

	cmd.AddCommand(
		newTaskAddCmd(env),
		newTaskListCmd(env),
		newTaskRemoveCmd(env),
	)

	return cmd
}

func newTaskAddCmd(env *Env) *cobra.Command {
	var executor string
	var maxRunning int
	var misfireGrace time.Duration

	cmd := &cobra.Command{
		Use:   "add ID",
		Short: "Add or update a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			task := &domain.Task{
				ID:       args[0],
				Executor: executor,
			}
			if maxRunning > 0 {
				task.MaxRunningJobs = &maxRunning
			}
			if cmd.Flags().Changed("misfire-grace") {
				task.MisfireGraceTime = &misfireGrace
			}

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := ds.AddTask(cmd.Context(), task); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task added: %s", task.ID))
			out.Print(
				[]string{"ID", "EXECUTOR", "MAX_RUNNING", "MISFIRE_GRACE"},
				[][]string{{
					task.ID, task.Executor,
					formatMaxRunning(task.MaxRunningJobs),
					formatDuration(task.MisfireGraceTime),
				}},
				task,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&executor, "executor", "", "Executor name on the worker side (required)")
	cmd.Flags().IntVar(&maxRunning, "max-running", 0, "Concurrency ceiling, 0 = unlimited")
	cmd.Flags().DurationVar(&misfireGrace, "misfire-grace", 0, "Max allowed fire lateness (e.g. 30s)")
	cmd.MarkFlagRequired("executor")

	return cmd
}

func newTaskListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			tasks, err := ds.GetTasks(cmd.Context())
			if err != nil {
				return err
			}

			headers := []string{"ID", "EXECUTOR", "RUNNING", "MAX_RUNNING", "MISFIRE_GRACE"}
			rows := make([][]string, len(tasks))
			for i, t := range tasks {
				rows[i] = []string{
					t.ID, t.Executor,
					strconv.Itoa(t.RunningJobs),
					formatMaxRunning(t.MaxRunningJobs),
					formatDuration(t.MisfireGraceTime),
				}
			}

			out.Print(headers, rows, tasks)
			return nil
		},
	}
}

func newTaskRemoveCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := ds.RemoveTask(cmd.Context(), args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task removed: %s", args[0]))
			return nil
		},
	}
}

func formatMaxRunning(max *int) string {
	if max == nil {
		return "unlimited"
	}
	return strconv.Itoa(*max)
}
