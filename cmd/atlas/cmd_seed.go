package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaminalder/tictactoe-atlas/internal/catalog"
	"github.com/jaminalder/tictactoe-atlas/internal/generator"
	"github.com/jaminalder/tictactoe-atlas/internal/store"
)

func (c *cli) seedCmd() *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the catalog of canonical states to SQLite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("db") {
				c.cfg.DBPath = db
			}
			if c.cfg.DBPath == "" {
				return errors.New("seed needs --db or db_path in the config")
			}
			cat, err := catalog.Build(generator.New())
			if err != nil {
				return err
			}
			st, err := store.Open(c.cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.SeedStates(cmd.Context(), cat.Rows())
			if err != nil {
				return err
			}
			c.log.Debug("seeded", "states", n, "db", c.cfg.DBPath)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d states into %s\n", n, c.cfg.DBPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "SQLite database path")
	return cmd
}
