package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/orgpulse/orgpulse/internal/config"
	"github.com/orgpulse/orgpulse/internal/domain"
	"github.com/orgpulse/orgpulse/internal/gateway"
	"github.com/orgpulse/orgpulse/internal/usecase"
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Aggregates a user's organization activity and outputs it as JSON",
	Long: `Aggregates activity (commits, pull requests, issues) for a specified GitHub
user across an organization's repositories within a date window, and outputs
the paginated result in JSON format.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		verbose, _ := cmd.InheritedFlags().GetBool("verbose")
		logger := newCLILogger(verbose)
		defer func() { _ = logger.Sync() }()

		org, _ := cmd.Flags().GetString("org")
		user, _ := cmd.Flags().GetString("user")
		fromStr, _ := cmd.Flags().GetString("from")
		toStr, _ := cmd.Flags().GetString("to")
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		from, err := parseDateFlag(fromStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --from value. Use RFC3339 or YYYY-MM-DD. Error: %v\n", err)
			os.Exit(1)
		}
		to, err := parseDateFlag(toStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --to value. Use RFC3339 or YYYY-MM-DD. Error: %v\n", err)
			os.Exit(1)
		}

		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		githubGateway, err := gateway.NewGitHubGateway(cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create GitHub gateway: %v\n", err)
			os.Exit(1)
		}
		aggregator := usecase.NewAggregator(githubGateway, logger)

		result, err := aggregator.UserOrgActivity(ctx, domain.ActivityQuery{
			Organization: org,
			Username:     user,
			From:         from,
			To:           to,
			Page:         page,
			PerPage:      perPage,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to aggregate activity: %v\n", err)
			os.Exit(1)
		}

		jsonData, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to marshal result to JSON: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(jsonData))
	},
}

// parseDateFlag accepts RFC3339 or a bare YYYY-MM-DD date.
func parseDateFlag(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().StringP("org", "o", "", "Target GitHub organization name (required)")
	activityCmd.Flags().StringP("user", "u", "", "Target GitHub user name (required)")
	activityCmd.Flags().String("from", "", "Window start (RFC3339 or YYYY-MM-DD, required)")
	activityCmd.Flags().String("to", "", "Window end (RFC3339 or YYYY-MM-DD, required)")
	activityCmd.Flags().Int("page", 1, "Page to return (shared across collections)")
	activityCmd.Flags().Int("per-page", domain.DefaultPerPage, "Records per page, 1-100")
	_ = activityCmd.MarkFlagRequired("org")
	_ = activityCmd.MarkFlagRequired("user")
	_ = activityCmd.MarkFlagRequired("from")
	_ = activityCmd.MarkFlagRequired("to")
}
