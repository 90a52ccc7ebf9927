// Tempus CLI — инструмент командной строки для управления tasks,
// schedules и jobs напрямую через датастор.
//
// Использование:
//
//	tempus [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	task      Управление tasks
//	schedule  Управление schedules
//	job       Управление jobs
//	result    Чтение результатов jobs
//	events    Наблюдение за событиями
//	db        Администрирование датастора
//
// Подключения настраиваются переменными окружения DB_URL и MQ_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Tempus/internal/cli"
	"github.com/shaiso/Tempus/internal/mq"
	"github.com/shaiso/Tempus/internal/store"
	"github.com/shaiso/Tempus/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "tempus",
		Short:         "Tempus CLI — distributed job scheduler tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	logger := telemetry.SetupLogger()
	env := &cli.Env{
		Store: func(ctx context.Context, fromScratch bool) (*store.DataStore, func(), error) {
			pool, err := store.NewPool(ctx)
			if err != nil {
				return nil, nil, err
			}
			ds := store.New(store.Config{
				Pool:             pool,
				Logger:           logger,
				StartFromScratch: fromScratch,
			})
			return ds, pool.Close, nil
		},
		MQ: func() (*mq.Connection, error) {
			return mq.NewConnection(mq.DefaultURL(), logger)
		},
		Output: func() *cli.Output { return cli.NewOutput(jsonOutput) },
		Logger: logger,
	}

	rootCmd.AddCommand(
		cli.NewTaskCmd(env),
		cli.NewScheduleCmd(env),
		cli.NewJobCmd(env),
		cli.NewResultCmd(env),
		cli.NewEventsCmd(env),
		cli.NewDBCmd(env),
	)

	// Ctrl+C корректно останавливает длительные команды (events watch)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
