package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func newPlotCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plot",
		Aliases: []string{"storyline"},
		Short:   "Manage the plots of a novel",
	}
	cmd.AddCommand(
		newPlotAddCmd(opts),
		newPlotListCmd(opts),
		newPlotLinkCmd(opts),
		newPlotDeleteCmd(opts),
	)
	return cmd
}

func newPlotAddCmd(opts *rootOptions) *cobra.Command {
	var kind, character, relation string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch kind {
			case types.PlotMain, types.PlotInternal, types.PlotSubplot, types.PlotRelation:
			default:
				return fmt.Errorf("unknown plot type %q", kind)
			}
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				p := types.NewPlot(args[0])
				p.Type = kind
				if p.CharacterID, err = optionalCharacter(n, character); err != nil {
					return err
				}
				if p.RelationCharacterID, err = optionalCharacter(n, relation); err != nil {
					return err
				}
				n.Plots = append(n.Plots, p)
				if err := s.manager.UpdateNovel(n); err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), p, func() error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Added plot %s %q\n", shortID(p.ID), p.Text)
					return err
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "type", types.PlotMain, "plot type: main, internal, subplot or relation")
	f.StringVar(&character, "character", "", "character owning the storyline")
	f.StringVar(&relation, "relation", "", "other side of a relation plot")
	return cmd
}

func newPlotListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List plots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), n.Plots, func() error {
					rows := make([][]any, 0, len(n.Plots))
					for _, p := range n.Plots {
						scenes := 0
						for _, sc := range n.Scenes {
							for _, v := range sc.PlotValues {
								if v.PlotID == p.ID {
									scenes++
									break
								}
							}
						}
						rows = append(rows, []any{shortID(p.ID), p.Text, p.Type, characterName(n, p.CharacterID), scenes})
					}
					return printTable(cmd.OutOrStdout(), []any{"ID", "TEXT", "TYPE", "CHARACTER", "SCENES"}, rows)
				})
			})
		},
	}
}

func newPlotLinkCmd(opts *rootOptions) *cobra.Command {
	var value int
	cmd := &cobra.Command{
		Use:   "link <plot> <scene>",
		Short: "Record how a scene advances a plot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				p, err := findPlot(n, args[0])
				if err != nil {
					return err
				}
				sc, err := findScene(n, args[1])
				if err != nil {
					return err
				}
				sc.RemovePlotValues(p.ID)
				sc.PlotValues = append(sc.PlotValues, types.ScenePlotValue{PlotID: p.ID, Value: value})
				if err := s.manager.UpdateScene(sc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Linked plot %q to scene %q\n", p.Text, sc.Title)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&value, "value", 1, "how strongly the scene advances the plot")
	return cmd
}

func newPlotDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <plot>",
		Short: "Delete a plot and unlink it from every scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				p, err := findPlot(n, args[0])
				if err != nil {
					return err
				}
				if err := s.service.DeletePlot(n, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted plot %s %q\n", shortID(p.ID), p.Text)
				return nil
			})
		},
	}
}
