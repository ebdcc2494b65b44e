package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renewalsCmd = &cobra.Command{
	Use:   "renewals",
	Short: "Run one renewal reminder scan and exit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Sync()

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.renewals.RunRenewalScan(cmd.Context())
		if report != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d created=%d skipped=%d failed=%d\n",
				report.Scanned, report.Created, report.Skipped, report.Failed)
		}
		return err
	},
}
