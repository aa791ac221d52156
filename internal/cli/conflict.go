package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

var conflictTypes = []string{
	types.ConflictCharacter, types.ConflictSociety, types.ConflictNature,
	types.ConflictTechnology, types.ConflictSupernatural, types.ConflictSelf,
}

func newConflictCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflict",
		Short: "Manage the conflicts of a novel",
	}
	cmd.AddCommand(newConflictAddCmd(opts), newConflictListCmd(opts))
	return cmd
}

func validConflictType(t string) bool {
	for _, known := range conflictTypes {
		if t == known {
			return true
		}
	}
	return false
}

// agendaFor returns the scene agenda of the character, claiming an
// unassigned agenda or appending a new one when there is none.
func agendaFor(sc *types.Scene, characterID uuid.UUID) *types.SceneAgenda {
	var free *types.SceneAgenda
	for _, a := range sc.Agendas {
		if a.CharacterID == characterID {
			return a
		}
		if a.CharacterID == uuid.Nil && free == nil {
			free = a
		}
	}
	if free == nil {
		free = &types.SceneAgenda{}
		sc.Agendas = append(sc.Agendas, free)
	}
	free.CharacterID = characterID
	return free
}

func newConflictAddCmd(opts *rootOptions) *cobra.Command {
	var (
		character, against, kind, scene string
		intensity                       int
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a conflict, optionally tracking it in a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validConflictType(kind) {
				return fmt.Errorf("unknown conflict type %q (valid: %v)", kind, conflictTypes)
			}
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				owner, err := findCharacter(n, character)
				if err != nil {
					return err
				}
				opponent, err := optionalCharacter(n, against)
				if err != nil {
					return err
				}
				var sc *types.Scene
				if scene != "" {
					if sc, err = findScene(n, scene); err != nil {
						return err
					}
				}

				cf := &types.Conflict{ID: uuid.New(), Text: args[0], Type: kind, CharacterID: owner.ID, ConflictingCharacterID: opponent}
				n.Conflicts = append(n.Conflicts, cf)
				if err := s.manager.UpdateNovel(n); err != nil {
					return err
				}
				if sc != nil {
					a := agendaFor(sc, owner.ID)
					a.ConflictRefs = append(a.ConflictRefs, types.ConflictReference{ConflictID: cf.ID, Intensity: intensity})
					if !sc.HasCharacter(owner.ID) {
						sc.CharacterIDs = append(sc.CharacterIDs, owner.ID)
					}
					if err := s.manager.UpdateScene(sc); err != nil {
						return err
					}
				}
				return opts.emit(cmd.OutOrStdout(), cf, func() error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Added conflict %s %q\n", shortID(cf.ID), cf.Text)
					return err
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&character, "character", "", "character facing the conflict (required)")
	f.StringVar(&against, "against", "", "opposing character")
	f.StringVar(&kind, "type", types.ConflictCharacter, "conflict type")
	f.StringVar(&scene, "scene", "", "scene whose agenda tracks the conflict")
	f.IntVar(&intensity, "intensity", 1, "intensity in the scene")
	_ = cmd.MarkFlagRequired("character")
	return cmd
}

func newConflictListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List conflicts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), n.Conflicts, func() error {
					rows := make([][]any, 0, len(n.Conflicts))
					for _, cf := range n.Conflicts {
						rows = append(rows, []any{shortID(cf.ID), cf.Text, cf.Type, characterName(n, cf.CharacterID), characterName(n, cf.ConflictingCharacterID)})
					}
					return printTable(cmd.OutOrStdout(), []any{"ID", "TEXT", "TYPE", "CHARACTER", "AGAINST"}, rows)
				})
			})
		},
	}
}

func characterName(n *types.Novel, id uuid.UUID) string {
	if c := n.Character(id); c != nil {
		return c.Name
	}
	return "-"
}
