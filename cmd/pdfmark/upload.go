package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newUploadCmd(opts *options) *cobra.Command {
	var author, message string
	cmd := &cobra.Command{
		Use:   "upload [file]",
		Short: "Upload a PDF and print its document id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			doc, err := opts.client().Upload(cmd.Context(), filepath.Base(args[0]), f, author, message)
			if err != nil {
				return err
			}
			return printResult(cmd, opts, doc, func() table.Writer {
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "NAME", "URL"})
				tw.AppendRow(table.Row{doc.ID, doc.OriginalName, doc.SourceURL})
				return tw
			})
		},
	}
	cmd.Flags().StringVar(&author, "author", "", "Name of the uploader")
	cmd.Flags().StringVar(&message, "message", "", "Message shown to reviewers")
	return cmd
}
