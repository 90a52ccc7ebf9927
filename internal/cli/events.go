package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tempus/internal/mq"
)

// NewEventsCmd создаёт группу команд для наблюдения за событиями.
func NewEventsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Observe datastore events",
	}

	cmd.AddCommand(newEventsWatchCmd(env))

	return cmd
}

func newEventsWatchCmd(env *Env) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream events to stdout until interrupted",
		Long: "Stream events matching a routing key pattern, one JSON object " +
			"per line. Patterns follow AMQP topic syntax: 'job.*', 'schedule.#', " +
			"'#' for everything.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()
			ctx := cmd.Context()

			conn, err := env.MQ()
			if err != nil {
				return err
			}
			defer conn.Close()

			queue, err := mq.DeclareWatchQueue(ctx, conn, pattern)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Watching events matching %q, Ctrl+C to stop", pattern))

			consumer := mq.NewConsumer(conn, env.Logger, mq.ConsumerConfig{
				Queue: string(queue),
				Handler: func(ctx context.Context, d *mq.Delivery) error {
					line, err := json.Marshal(d.Event)
					if err != nil {
						return err
					}
					out.Line(string(line))
					return nil
				},
			})

			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "#", "Routing key pattern (AMQP topic syntax)")

	return cmd
}
