package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "claimaudit",
		Short:        "Audit insurance claim packages for compliance and fraud indicators",
		Version:      version,
		SilenceUsage: true,
	}
	root.AddCommand(newReviewCmd(), newMCPCmd(), newRulebookCmd())
	return root
}
