package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tempus/internal/domain"
	"github.com/shaiso/Tempus/internal/trigger"
)

// NewScheduleCmd создаёт группу команд для управления schedules.
func NewScheduleCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage schedules",
	}

	cmd.AddCommand(
		newScheduleAddCmd(env),
		newScheduleListCmd(env),
		newScheduleRemoveCmd(env),
	)

	return cmd
}

func newScheduleAddCmd(env *Env) *cobra.Command {
	var cronExpr string
	var every time.Duration
	var startStr, endStr string
	var argPairs []string
	var conflict string

	cmd := &cobra.Command{
		Use:   "add ID TASK_ID",
		Short: "Add a schedule for a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			trig, err := buildTrigger(cronExpr, every, startStr, endStr)
			if err != nil {
				return err
			}

			policy, err := domain.ParseConflictPolicy(conflict)
			if err != nil {
				return err
			}

			scheduleArgs, err := parseArgs(argPairs)
			if err != nil {
				return err
			}

			schedule := &domain.Schedule{
				ID:      args[0],
				TaskID:  args[1],
				Trigger: trig,
				Args:    scheduleArgs,
			}
			if next, ok := trig.Next(time.Now().UTC()); ok {
				schedule.NextFireTime = &next
			}

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := ds.AddSchedule(cmd.Context(), schedule, policy); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule added: %s", schedule.ID))
			out.Print(
				[]string{"ID", "TASK_ID", "NEXT_FIRE", "ARGS"},
				[][]string{{
					schedule.ID, schedule.TaskID,
					formatTime(schedule.NextFireTime),
					formatArgs(schedule.Args),
				}},
				schedule,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (e.g. '*/5 * * * *')")
	cmd.Flags().DurationVar(&every, "every", 0, "Fire interval (e.g. 30s, 5m)")
	cmd.Flags().StringVar(&startStr, "start", "", "First fire time for --every, RFC3339 (default: now)")
	cmd.Flags().StringVar(&endStr, "end", "", "Last allowed fire time, RFC3339")
	cmd.Flags().StringSliceVar(&argPairs, "arg", nil, "Job args as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&conflict, "conflict", "fail", "ID conflict policy: fail, replace or skip")
	cmd.MarkFlagsOneRequired("cron", "every")
	cmd.MarkFlagsMutuallyExclusive("cron", "every")

	return cmd
}

func newScheduleListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list [ID...]",
		Short: "List schedules, optionally filtered by ID",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			// nil означает «все»
			ids := args
			if len(ids) == 0 {
				ids = nil
			}

			schedules, err := ds.GetSchedules(cmd.Context(), ids)
			if err != nil {
				return err
			}

			headers := []string{"ID", "TASK_ID", "NEXT_FIRE", "LAST_FIRE", "ACQUIRED_BY"}
			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				acquiredBy := s.AcquiredBy
				if acquiredBy == "" {
					acquiredBy = "-"
				}
				rows[i] = []string{
					s.ID, s.TaskID,
					formatTime(s.NextFireTime),
					formatTime(s.LastFireTime),
					acquiredBy,
				}
			}

			out.Print(headers, rows, schedules)
			return nil
		},
	}
}

func newScheduleRemoveCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID...",
		Short: "Remove schedules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			ds, closeFn, err := env.Store(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := ds.RemoveSchedules(cmd.Context(), args); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedules removed: %d", len(args)))
			return nil
		},
	}
}

// buildTrigger собирает trigger из флагов команды schedule add.
func buildTrigger(cronExpr string, every time.Duration, startStr, endStr string) (domain.Trigger, error) {
	var end *time.Time
	if endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return nil, fmt.Errorf("parse --end: %w", err)
		}
		end = &t
	}

	if cronExpr != "" {
		return trigger.NewCron(cronExpr, end)
	}

	start := time.Now().UTC()
	if startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return nil, fmt.Errorf("parse --start: %w", err)
		}
		start = t
	}
	return trigger.NewInterval(start, every, end)
}
