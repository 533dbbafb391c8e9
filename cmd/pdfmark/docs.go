package main

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newDocsCmd(opts *options) *cobra.Command {
	var query string
	var limit int
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "List uploaded documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := opts.client().ListDocuments(cmd.Context(), query, limit)
			if err != nil {
				return err
			}
			return printResult(cmd, opts, docs, func() table.Writer {
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "NAME", "AUTHOR", "PAGES", "UPLOADED"})
				for _, d := range docs {
					tw.AppendRow(table.Row{d.ID, d.OriginalName, d.Author, d.PageCount, d.CreatedAt.Format(time.RFC3339)})
				}
				return tw
			})
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search name, author and message")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of documents")
	return cmd
}
