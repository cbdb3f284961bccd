package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/polysearch/internal/config"
	"github.com/kailas-cloud/polysearch/internal/version"
)

func newRootCmd() *cobra.Command {
	env := config.GetEnv()

	root := &cobra.Command{
		Use:   "polysearch",
		Short: "Cross-lingual semantic document search",
		Long: `polysearch indexes .txt, .docx and .pdf documents with a multilingual embedding
model and answers queries written in any language.

Without a subcommand it runs the HTTP API, same as "polysearch serve".

Examples:
  # Run the API with config/local.yaml
  polysearch

  # Index files from disk
  polysearch ingest --source handbook docs/*.pdf

  # Query in French, results come from documents in any language
  polysearch search --limit 3 "Bonjour le monde"`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), env, false)
		},
	}
	root.SetVersionTemplate(versionLine() + "\n")
	root.PersistentFlags().StringVar(&env, "env", env, "configuration environment, reads config/<env>.yaml (defaults to $ENV or local)")

	root.AddCommand(
		newServeCmd(&env),
		newIngestCmd(&env),
		newSearchCmd(&env),
		newHealthCmd(&env),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionLine())
		},
	}
}

func versionLine() string {
	return fmt.Sprintf("polysearch %s (commit %s, built %s)", version.Version, version.Commit, version.Date)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
