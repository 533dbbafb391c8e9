package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"pdfmark/internal/client"
	"pdfmark/internal/model"
)

type options struct {
	server  string
	output  string
	timeout time.Duration
}

func (o *options) client() *client.Client {
	return client.New(o.server, client.WithTimeout(o.timeout))
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "pdfmark",
		Short:        "Upload PDFs and inspect their annotations, highlights and comments",
		SilenceUsage: true,
	}

	defaultServer := os.Getenv("PDFMARK_SERVER")
	if defaultServer == "" {
		defaultServer = "http://localhost:4000"
	}
	root.PersistentFlags().StringVar(&opts.server, "server", defaultServer, "Address of the pdfmark server")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "Output format: table (default) or json")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	root.AddCommand(
		newUploadCmd(opts),
		newDocsCmd(opts),
		newShowCmd(opts),
		newClearCmd(opts),
	)
	return root
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateFooter = false
	tw.Style().Options.SeparateHeader = false
	tw.Style().Options.SeparateRows = false
	return tw
}

// printResult writes v as JSON when asked to, and otherwise renders it with
// render.
func printResult(cmd *cobra.Command, opts *options, v any, render func() table.Writer) error {
	switch opts.output {
	case "", "table":
		cmd.Printf("%s\n", render().Render())
	case "json":
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(out))
	default:
		return fmt.Errorf("unknown output format: %s", opts.output)
	}
	return nil
}

func parseKinds(names []string) ([]model.Kind, error) {
	if len(names) == 0 {
		return model.Kinds, nil
	}
	kinds := make([]model.Kind, 0, len(names))
	for _, name := range names {
		kind, err := model.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
