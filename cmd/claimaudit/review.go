package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"claimaudit/internal/app"
	"claimaudit/internal/ingest"
	"claimaudit/internal/platform/config"
	"claimaudit/internal/platform/logger"
	"claimaudit/internal/review/handler"
	"claimaudit/internal/review/models"
)

func newReviewCmd() *cobra.Command {
	var (
		policy     string
		fileNumber string
	)
	cmd := &cobra.Command{
		Use:   "review [flags] FILE...",
		Short: "Review a claim package and print the assessment as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policyText, err := readPolicy(policy)
			if err != nil {
				return err
			}
			files, err := readFiles(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg := config.FromEnv()
			log := logger.NewWithWriter(cmd.ErrOrStderr(), cfg.LogLevel)
			application, err := app.Build(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer application.Close()

			assessment, err := application.Service.Review(ctx, models.ReviewRequest{
				Package: ingest.DocumentPackage{FileNumber: fileNumber, Files: files},
				Policy:  policyText,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, handler.FromAssessment(assessment))
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "client rules: a file path, or the rules text itself")
	cmd.Flags().StringVar(&fileNumber, "file-number", "", "claim file number")
	_ = cmd.MarkFlagRequired("policy")
	_ = cmd.MarkFlagRequired("file-number")
	return cmd
}

// readPolicy treats the value as a path when such a file exists.
func readPolicy(value string) (string, error) {
	if value == "" {
		return "", errors.New("--policy is required")
	}
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		data, err := os.ReadFile(value)
		if err != nil {
			return "", fmt.Errorf("read policy: %w", err)
		}
		return string(data), nil
	}
	return value, nil
}

func readFiles(paths []string) ([]ingest.SourceFile, error) {
	files := make([]ingest.SourceFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		name := filepath.Base(p)
		files = append(files, ingest.NewSourceFile(name, mime.TypeByExtension(filepath.Ext(name)), data))
	}
	return files, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
