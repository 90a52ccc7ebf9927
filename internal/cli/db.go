package cli

import (
	"github.com/spf13/cobra"
)

// NewDBCmd создаёт группу команд для администрирования датастора.
func NewDBCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Administer the datastore",
	}

	cmd.AddCommand(newDBInitCmd(env))

	return cmd
}

func newDBInitCmd(env *Env) *cobra.Command {
	var fromScratch bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the schema and indexes",
		Long: "Create tables and indexes if they do not exist. With " +
			"--from-scratch all existing rows are wiped first.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := env.Output()

			ds, closeFn, err := env.Store(cmd.Context(), fromScratch)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := ds.Initialize(cmd.Context()); err != nil {
				return err
			}

			out.Success("Datastore initialized")
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromScratch, "from-scratch", false, "Wipe all existing data first")

	return cmd
}
