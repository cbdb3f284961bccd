package main

import (
	"strings"

	"github.com/spf13/cobra"

	chiTransport "github.com/kailas-cloud/polysearch/internal/transport/chi"
)

func newSearchCmd(env *string) *cobra.Command {
	var (
		limit int
		lang  string
	)
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Run a cross-lingual query and print the results as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *env, bootOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.query.Query(cmd.Context(), strings.Join(args, " "), limit, lang)
			if err != nil {
				return err //nolint:wrapcheck // pipeline errors carry their own context
			}
			return printJSON(cmd.OutOrStdout(), chiTransport.NewSearchResponse(res))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of results (non-positive means 5)")
	cmd.Flags().StringVar(&lang, "lang", "", "BCP 47 language of the query; detected when empty")
	return cmd
}
