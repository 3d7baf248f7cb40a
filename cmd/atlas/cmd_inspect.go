package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jaminalder/tictactoe-atlas/internal/domain"
	"github.com/jaminalder/tictactoe-atlas/internal/generator"
	"github.com/jaminalder/tictactoe-atlas/internal/graph"
	"github.com/jaminalder/tictactoe-atlas/internal/solver"
)

func (c *cli) statsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print counts over all 19683 configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := generator.New().Statistics()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(st)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Describe one configuration given as nine digits 0-2",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := domain.ParseState(args[0])
			if err != nil {
				return err
			}
			gen := generator.New()
			describe(cmd.OutOrStdout(), s, gen.ClassSize(s.Canonical()))
			return nil
		},
	}
}

func describe(w io.Writer, s domain.State, classSize int) {
	fmt.Fprintln(w, s.ASCII())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "id:          %s (decimal %d)\n", s.ID(), s.DecimalID())
	fmt.Fprintf(w, "canonical:   %s (class of %d)\n", s.Canonical(), classSize)
	fmt.Fprintf(w, "turn count:  %d\n", s.TurnCount())
	fmt.Fprintf(w, "valid:       %t (x first: %t)\n", s.IsValid(), s.IsValidFirstPlayerX())
	fmt.Fprintf(w, "terminal:    %t\n", s.IsTerminal())
	fmt.Fprintf(w, "winners:     %s\n", winnersLabel(s))
	fmt.Fprintf(w, "next player: %s (x first: %s)\n", s.NextPlayer(), s.NextPlayerFirstPlayerX())
	if s.IsValidFirstPlayerX() {
		sv := solver.New()
		score, _ := sv.Score(s)
		best, _ := sv.BestMoves(s)
		fmt.Fprintf(w, "outcome:     %s\n", scoreLabel(score))
		if len(best) > 0 {
			fmt.Fprintf(w, "best moves:  %v\n", best)
		}
	}
}

func winnersLabel(s domain.State) string {
	ws := s.Winners()
	if len(ws) == 0 {
		return "none"
	}
	names := make([]string, len(ws))
	for i, c := range ws {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

func scoreLabel(score int) string {
	switch score {
	case solver.XWins:
		return "X wins"
	case solver.OWins:
		return "O wins"
	default:
		return "draw"
	}
}

func (c *cli) pathCmd() *cobra.Command {
	var canonical bool
	cmd := &cobra.Command{
		Use:   "path <id>",
		Short: "Print a move sequence from the empty board to a configuration",
		Long: "Print a move sequence from the empty board to a configuration, one\n" +
			"board per move. With --canonical the path runs over symmetry class\n" +
			"representatives, so consecutive boards may differ in orientation.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := domain.ParseState(args[0])
			if err != nil {
				return err
			}
			g, key := graph.BuildTree(false), s.ID()
			if canonical {
				g, key = graph.BuildTree(true), s.Canonical()
			}
			keys, err := g.PathTo(key)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, k := range keys {
				step := domain.MustParseState(k)
				fmt.Fprintf(out, "# %d %s\n%s\n\n", i, k, step.ASCII())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&canonical, "canonical", false, "walk canonical class representatives")
	return cmd
}
