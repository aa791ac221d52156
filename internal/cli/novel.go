package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func newNovelCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "novel",
		Short: "Create, list, show, rename and delete novels",
	}
	cmd.AddCommand(
		newNovelCreateCmd(opts),
		newNovelListCmd(opts),
		newNovelShowCmd(opts),
		newNovelRenameCmd(opts),
		newNovelDeleteCmd(opts),
	)
	return cmd
}

func newNovelCreateCmd(opts *rootOptions) *cobra.Command {
	var subtitle string
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a novel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withSession(cmd, func(s *session) error {
				n := types.NewNovel(args[0])
				n.Subtitle = subtitle
				if err := s.manager.InsertNovel(n); err != nil {
					return err
				}
				return opts.emit(cmd.OutOrStdout(), n.Descriptor(), func() error {
					_, err := fmt.Fprintf(cmd.OutOrStdout(), "Created novel %s %q\n", shortID(n.ID), n.Title)
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "novel subtitle")
	return cmd
}

func newNovelListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the novels of the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withSession(cmd, func(s *session) error {
				list, err := s.store.Novels(s.ctx)
				if err != nil {
					return sysError(err)
				}
				return opts.emit(cmd.OutOrStdout(), list, func() error {
					rows := make([][]any, 0, len(list))
					for _, d := range list {
						rows = append(rows, []any{shortID(d.ID), d.Title, d.Subtitle})
					}
					return printTable(cmd.OutOrStdout(), []any{"ID", "TITLE", "SUBTITLE"}, rows)
				})
			})
		},
	}
}

// novelSummary is the text and JSON shape of "novel show".
type novelSummary struct {
	types.NovelDescriptor
	Characters int `json:"characters"`
	Scenes     int `json:"scenes"`
	Conflicts  int `json:"conflicts"`
	Plots      int `json:"plots"`
	Documents  int `json:"documents"`
	Diagrams   int `json:"diagrams"`
	Words      int `json:"words"`
}

func summarize(n *types.Novel) novelSummary {
	sum := novelSummary{
		NovelDescriptor: n.Descriptor(),
		Characters:      len(n.Characters),
		Scenes:          len(n.Scenes),
		Conflicts:       len(n.Conflicts),
		Plots:           len(n.Plots),
		Diagrams:        len(n.Diagrams),
	}
	for _, d := range n.Documents {
		d.Walk(func(*types.Document) { sum.Documents++ })
	}
	for _, sc := range n.Scenes {
		sum.Words += sc.WordCount
	}
	return sum
}

func newNovelShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show [novel]",
		Short: "Summarize a novel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.novel = args[0]
			}
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				sum := summarize(n)
				return opts.emit(cmd.OutOrStdout(), sum, func() error {
					w := cmd.OutOrStdout()
					fmt.Fprintf(w, "%s  %s\n", n.ID, n.Title)
					if n.Subtitle != "" {
						fmt.Fprintf(w, "  %s\n", n.Subtitle)
					}
					fmt.Fprintf(w, "characters: %d\nscenes: %d (%d words)\nconflicts: %d\nplots: %d\ndocuments: %d\ndiagrams: %d\n",
						sum.Characters, sum.Scenes, sum.Words, sum.Conflicts, sum.Plots, sum.Documents, sum.Diagrams)
					return nil
				})
			})
		},
	}
}

func newNovelRenameCmd(opts *rootOptions) *cobra.Command {
	var subtitle string
	cmd := &cobra.Command{
		Use:   "rename <novel> <title>",
		Short: "Change a novel's title and subtitle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.novel = args[0]
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				n.Title = args[1]
				if cmd.Flags().Changed("subtitle") {
					n.Subtitle = subtitle
				}
				if err := s.manager.UpdateProjectNovel(n.Descriptor()); err != nil {
					return err
				}
				if err := s.manager.UpdateNovel(n); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Renamed novel %s to %q\n", shortID(n.ID), n.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "new subtitle")
	return cmd
}

func newNovelDeleteCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <novel>",
		Short: "Delete a novel and everything in it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.novel = args[0]
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				message := fmt.Sprintf("Are you sure you want to delete the novel %q? This cannot be undone.", n.Title)
				if !force && !s.confirm(message, "Delete novel") {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
				if err := s.manager.DeleteNovel(n); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted novel %s %q\n", shortID(n.ID), n.Title)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation")
	return cmd
}
