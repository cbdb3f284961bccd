package main

import (
	"errors"

	"github.com/spf13/cobra"

	chiTransport "github.com/kailas-cloud/polysearch/internal/transport/chi"
	healthuc "github.com/kailas-cloud/polysearch/internal/usecase/health"
)

var errDegraded = errors.New("service degraded")

func newHealthCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report backend versions and collaborator health; exits non-zero when degraded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env, bootOptions{skipStartupChecks: true})
			if err != nil {
				return err
			}
			defer a.Close()

			report := a.health.Check(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), chiTransport.NewHealthResponse(report)); err != nil {
				return err
			}
			if report.Status != healthuc.Healthy {
				return errDegraded
			}
			return nil
		},
	}
}
