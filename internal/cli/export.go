package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/plotbook/pkg/types"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a whole novel as YAML or JSON",
		Long:  "Export writes the selected novel with all its members. YAML output includes document contents.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unknown format %q: must be yaml or json", format)
			}
			return opts.withSession(cmd, func(s *session) error {
				n, err := s.novel()
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return sysError(err)
					}
					defer f.Close()
					w = f
				}
				if err := writeNovel(w, n, format); err != nil {
					return sysError(err)
				}
				s.logger.Debug("exported novel", "novel", n.ID, "format", format)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func writeNovel(w io.Writer, n *types.Novel, format string) error {
	if format == "json" {
		return printJSON(w, n)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
