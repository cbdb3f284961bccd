package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/polysearch/internal/transport/chi"
)

func newIngestCmd(env *string) *cobra.Command {
	var (
		source   string
		recreate bool
	)
	cmd := &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Extract, embed and index files from disk",
		Long: `Runs each file through the same pipeline as POST /upload and prints one
JSON result per file. Every file is attempted; the command fails if any file failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *env, bootOptions{recreate: recreate})
			if err != nil {
				return err
			}
			defer a.Close()
			return ingestFiles(cmd.Context(), a, cmd.OutOrStdout(), args, source)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "payload source label (default \"uploaded\")")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the collection before ingesting")
	return cmd
}

type ingestLine struct {
	chiTransport.UploadResponse
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

func ingestFiles(ctx context.Context, a *app, out io.Writer, paths []string, source string) error {
	var errs []error
	for _, p := range paths {
		line := ingestLine{Path: p}
		if err := ingestFile(ctx, a, p, source, &line); err != nil {
			a.logger.Warn("ingest failed", zap.String("path", p), zap.Error(err))
			line.Status = "error"
			line.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
		if err := printJSON(out, line); err != nil {
			return err
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d files failed: %w", len(errs), len(paths), errors.Join(errs...))
	}
	return nil
}

func ingestFile(ctx context.Context, a *app, path, source string, line *ingestLine) error {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	rec, err := a.ingest.Ingest(ctx, filepath.Base(path), raw, source)
	if err != nil {
		return err //nolint:wrapcheck // pipeline errors carry their own context
	}
	p := rec.Payload()
	line.UploadResponse = chiTransport.UploadResponse{
		Status:          "success",
		ID:              rec.ID(),
		Filename:        p.Filename,
		Text:            p.Text,
		StorageLocation: p.StorageLocation,
	}
	return nil
}
