// check-access prints a user's dimension grants and the allow-lists the grid
// applies for read and write.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/common/database"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/access"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/config"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"github.com/spf13/cobra"
)

func main() {
	var userID string
	cmd := &cobra.Command{
		Use:          "check-access --user <user_id>",
		Short:        "Print a user's grants and effective allow-lists",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), userID)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to inspect")
	_ = cmd.MarkFlagRequired("user")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, userID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	policy, err := access.ParsePolicy(cfg.Access.Policy)
	if err != nil {
		return err
	}
	var controlled []domain.DimensionType
	for _, name := range cfg.Access.Controlled {
		t, err := domain.ParseDimensionType(name)
		if err != nil {
			return fmt.Errorf("invalid controlled dimension: %w", err)
		}
		controlled = append(controlled, t)
	}

	db, err := database.Connect(ctx, &cfg.Database, 0)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	grants, err := repository.NewPostgresAccessGrantsRepository(db).ListGrantsByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to query grants: %w", err)
	}
	printReport(out, userID, grants, policy, controlled)
	return nil
}

func printReport(out io.Writer, userID string, grants []domain.AccessGrant, policy access.Policy, controlled []domain.DimensionType) {
	fmt.Fprintf(out, "=== Grants of %s (%d) ===\n", userID, len(grants))
	for _, g := range grants {
		fmt.Fprintf(out, "  %-10s %-36s %-5s %-8s\n", g.DimensionType, g.DimensionMemberID, g.AccessLevel, g.ApprovalStatus)
	}

	builder := access.NewBuilder(policy, controlled)
	for _, level := range []domain.AccessLevel{domain.AccessRead, domain.AccessWrite} {
		allow := builder.Build(grants, level)
		fmt.Fprintf(out, "\n=== Allow-list for %s (policy %s) ===\n", level, policy)
		for _, t := range builder.Controlled {
			switch {
			case !allow.Constrained(t):
				fmt.Fprintf(out, "  %-10s unrestricted\n", t)
			case allow.Empty(t):
				fmt.Fprintf(out, "  %-10s nothing visible (NULL keys only)\n", t)
			default:
				fmt.Fprintf(out, "  %-10s %s\n", t, strings.Join(allow.IDs(t), ", "))
			}
		}
	}
}
