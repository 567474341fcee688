package main

import (
	"fmt"
	"os"

	"github.com/raviakasapu/generative-planner-vision-sub000/common/database"

	"github.com/spf13/cobra"
)

func newMigrateCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <file.sql>",
		Short: "Apply a SQL file (e.g. db/schema.sql) to the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlContent, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read migration file: %w", err)
			}
			cfg, err := loadConfig(*configFile)
			if err != nil {
				return err
			}
			db, err := database.Connect(cmd.Context(), &cfg.Database, 0)
			if err != nil {
				return fmt.Errorf("cannot connect to database: %w", err)
			}
			defer db.Close()

			// 整个文件作为一次简单查询执行（函数体中的分号不拆分）
			if _, err := db.ExecContext(cmd.Context(), string(sqlContent)); err != nil {
				return fmt.Errorf("failed to apply %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s to %s\n", args[0], cfg.Database.Database)
			return nil
		},
	}
}
