package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func newCharacterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "character",
		Aliases: []string{"char"},
		Short:   "Manage the characters of a novel",
	}
	cmd.AddCommand(
		newCharacterAddCmd(opts),
		newCharacterListCmd(opts),
		newCharacterAvatarCmd(opts),
		newCharacterDeleteCmd(opts),
	)
	return cmd
}

func newCharacterAddCmd(opts *rootOptions) *cobra.Command {
	var role, gender, summary, avatar string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				c := types.NewCharacter(args[0])
				c.Role, c.Gender, c.Summary = role, gender, summary
				if avatar != "" {
					if c.Avatar, err = os.ReadFile(avatar); err != nil {
						return fmt.Errorf("reading avatar: %w", err)
					}
				}
				n.Characters = append(n.Characters, c)
				if err := s.manager.InsertCharacter(n, c); err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), c, func() error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Added character %s %q\n", shortID(c.ID), c.Name)
					return err
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&role, "role", "", "role in the story (protagonist, antagonist, ...)")
	f.StringVar(&gender, "gender", "", "gender")
	f.StringVar(&summary, "summary", "", "one-line summary")
	f.StringVar(&avatar, "avatar", "", "path to an avatar image")
	return cmd
}

func newCharacterListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), n.Characters, func() error {
					rows := make([][]any, 0, len(n.Characters))
					for _, c := range n.Characters {
						avatar := "-"
						if len(c.Avatar) > 0 {
							avatar = fmt.Sprintf("%dB", len(c.Avatar))
						}
						rows = append(rows, []any{shortID(c.ID), c.Name, c.Role, avatar})
					}
					return printTable(cmd.OutOrStdout(), []any{"ID", "NAME", "ROLE", "AVATAR"}, rows)
				})
			})
		},
	}
}

func newCharacterAvatarCmd(opts *rootOptions) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "avatar <character> [image]",
		Short: "Set or clear a character's avatar",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove == (len(args) == 2) {
				return fmt.Errorf("give either an image path or --clear")
			}
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				c, err := findCharacter(n, args[0])
				if err != nil {
					return err
				}
				c.Avatar = nil
				if !remove {
					if c.Avatar, err = os.ReadFile(args[1]); err != nil {
						return fmt.Errorf("reading avatar: %w", err)
					}
				}
				if err := s.manager.UpdateCharacter(c, true); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated avatar of %q\n", c.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&remove, "clear", false, "remove the avatar")
	return cmd
}

func newCharacterDeleteCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <character>",
		Short: "Delete a character and every reference to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				c, err := findCharacter(n, args[0])
				if err != nil {
					return err
				}
				deleted, err := s.service.DeleteCharacter(n, c, force)
				if err != nil {
					return err
				}
				if !deleted {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted character %s %q\n", shortID(c.ID), c.Name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation")
	return cmd
}
