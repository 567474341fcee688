package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"
	httpapi "github.com/raviakasapu/generative-planner-vision-sub000/internal/http"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"github.com/spf13/cobra"
)

func newExportCmd(configFile *string) *cobra.Command {
	var (
		userID  string
		columns string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's access-filtered planning grid to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cols []grid.ColumnConfig
			if columns != "" {
				if err := json.Unmarshal([]byte(columns), &cols); err != nil {
					return fmt.Errorf("invalid --columns: %w", err)
				}
			}
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, "planner-data-export")
			if err != nil {
				return err
			}
			defer a.Close()

			cols, rows, err := a.planning.ExportRows(cmd.Context(), service.GridRequest{UserID: userID, Columns: cols, Refresh: true})
			if err != nil {
				return err
			}
			data, err := httpapi.GeneratePlanningExport(cols, rows)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(rows), output)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User whose grants filter the rows (required)")
	cmd.Flags().StringVar(&columns, "columns", "", "Column configs as a JSON array (default: every dimension and measure)")
	cmd.Flags().StringVar(&output, "out", "planning.xlsx", "Output file")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
