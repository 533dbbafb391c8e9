package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"pdfmark/internal/model"
)

func newShowCmd(opts *options) *cobra.Command {
	var kindNames []string
	cmd := &cobra.Command{
		Use:   "show [doc id]",
		Short: "Print the markup of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := parseKinds(kindNames)
			if err != nil {
				return err
			}

			cli := opts.client()
			if _, err := cli.GetDocument(cmd.Context(), args[0]); err != nil {
				return err
			}

			var all []model.Markup
			for _, kind := range kinds {
				items, err := cli.ListMarkups(cmd.Context(), args[0], kind)
				if err != nil {
					return fmt.Errorf("list %s: %w", kind.Collection(), err)
				}
				for i := range items {
					if items[i].Kind == "" {
						items[i].Kind = kind
					}
				}
				all = append(all, items...)
			}

			return printResult(cmd, opts, all, func() table.Writer {
				tw := newTable()
				tw.AppendHeader(table.Row{"TYPE", "ID", "PAGE", "X", "Y", "W", "H", "VISIBLE", "TEXT"})
				for _, m := range all {
					tw.AppendRow(table.Row{
						m.Kind, m.ID, m.Page,
						fmt.Sprintf("%.3f", m.X), fmt.Sprintf("%.3f", m.Y),
						fmt.Sprintf("%.3f", m.W), fmt.Sprintf("%.3f", m.H),
						m.Visible, m.TextValue(),
					})
				}
				return tw
			})
		},
	}
	cmd.Flags().StringSliceVarP(&kindNames, "kind", "k", nil, "Only these kinds (annotation, highlight, comment)")
	return cmd
}
