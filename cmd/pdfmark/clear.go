package main

import (
	"errors"

	"github.com/spf13/cobra"
)

func newClearCmd(opts *options) *cobra.Command {
	var kindNames []string
	var all bool
	cmd := &cobra.Command{
		Use:   "clear [doc id]",
		Short: "Remove every markup of the given kinds from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(kindNames) == 0 && !all {
				return errors.New("pass --kind or --all")
			}
			kinds, err := parseKinds(kindNames)
			if err != nil {
				return err
			}

			cli := opts.client()
			for _, kind := range kinds {
				if err := cli.ReplaceMarkups(cmd.Context(), args[0], kind, nil); err != nil {
					return err
				}
				cmd.Printf("cleared %s\n", kind.Collection())
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&kindNames, "kind", "k", nil, "Kinds to clear (annotation, highlight, comment)")
	cmd.Flags().BoolVar(&all, "all", false, "Clear every kind")
	return cmd
}
