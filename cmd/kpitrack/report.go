package main

import (
	"fmt"
	"os"

	"github.com/arnold/kpitrack-api/internal/models"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	reportUser   string
	reportMonth  string
	reportExport string
)

// reportCmd stores a monthly summary from the command line, as an admin.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and store one user's monthly summary",
	Example: `  kpitrack report --user 6f1c... --month 2024-05
  kpitrack report --user 6f1c... --month 2024-05 --export bao-cao.xlsx`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportUser, "user", "", "User ID the report is for")
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Month as YYYY-MM")
	reportCmd.Flags().StringVar(&reportExport, "export", "", "Also write the xlsx export to this path")
	_ = reportCmd.MarkFlagRequired("user")
	_ = reportCmd.MarkFlagRequired("month")
}

func runReport(cmd *cobra.Command, args []string) error {
	userID, err := uuid.Parse(reportUser)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	actor := models.Identity{UserID: userID, Role: models.RoleAdmin}

	summary, err := a.summaries.Store(ctx, actor, userID, reportMonth)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary.Content)

	if reportExport == "" {
		return nil
	}
	data, _, err := a.summaries.ExportByID(ctx, actor, summary.ID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(reportExport, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Export written to %s\n", reportExport)
	return nil
}
