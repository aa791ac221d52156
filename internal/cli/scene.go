package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func newSceneCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Manage the scenes of a novel",
	}
	cmd.AddCommand(
		newSceneAddCmd(opts),
		newSceneListCmd(opts),
		newSceneDeleteCmd(opts),
	)
	return cmd
}

func newSceneAddCmd(opts *rootOptions) *cobra.Command {
	var (
		synopsis, kind, pov string
		cast                []string
		words               int
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch kind {
			case types.SceneDefault, types.SceneAction, types.SceneReaction:
			default:
				return fmt.Errorf("unknown scene type %q", kind)
			}
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				sc := types.NewScene(args[0])
				sc.Synopsis, sc.Type, sc.WordCount = synopsis, kind, words
				if sc.PovID, err = optionalCharacter(n, pov); err != nil {
					return err
				}
				if sc.CharacterIDs, err = findCharacters(n, cast); err != nil {
					return err
				}
				if sc.PovID != uuid.Nil {
					sc.Agendas[0].CharacterID = sc.PovID
					if !sc.HasCharacter(sc.PovID) {
						sc.CharacterIDs = append(sc.CharacterIDs, sc.PovID)
					}
				}
				n.Scenes = append(n.Scenes, sc)
				if err := s.manager.InsertScene(n, sc); err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), sc, func() error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Added scene %s %q\n", shortID(sc.ID), sc.Title)
					return err
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&synopsis, "synopsis", "", "short synopsis")
	f.StringVar(&kind, "type", "", "scene type: action or reaction")
	f.StringVar(&pov, "pov", "", "point-of-view character")
	f.StringSliceVar(&cast, "cast", nil, "characters taking part")
	f.IntVar(&words, "words", 0, "word count")
	return cmd
}

func newSceneListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenes in manuscript order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), n.Scenes, func() error {
					rows := make([][]any, 0, len(n.Scenes))
					for i, sc := range n.Scenes {
						pov := "-"
						if c := n.Character(sc.PovID); c != nil {
							pov = c.Name
						}
						rows = append(rows, []any{i + 1, shortID(sc.ID), sc.Title, pov, len(sc.CharacterIDs), sc.WordCount})
					}
					return printTable(cmd.OutOrStdout(), []any{"#", "ID", "TITLE", "POV", "CAST", "WORDS"}, rows)
				})
			})
		},
	}
}

func newSceneDeleteCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <scene>",
		Short: "Delete a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				sc, err := findScene(n, args[0])
				if err != nil {
					return err
				}
				deleted, err := s.service.DeleteScene(n, sc, force)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted scene %s %q\n", shortID(sc.ID), sc.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation")
	return cmd
}
