package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"NewsCurator/internal/app"
	"NewsCurator/internal/config"
	"NewsCurator/internal/logging"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

func newApp(cmd *cli.Command) (*app.Application, error) {
	cfg := config.Load(cmd.String("config"))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.New(cfg, logging.New(cfg.Logging.Level)), nil
}

func runCmd(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Run(ctx)
}

func quotaCmd(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	_, ledger, err := a.Quota()
	if err != nil {
		return err
	}
	fmt.Printf("period start:  %s\n", ledger.PeriodStart().Format(time.RFC3339))
	fmt.Printf("next reset:    %s\n", ledger.NextReset().Format(time.RFC3339))
	fmt.Printf("spent:         %d\n", ledger.SpentThisPeriod())
	fmt.Printf("remaining:     %d\n", ledger.Remaining())
	need := int(cmd.Int("need"))
	if !needSatisfied(ledger.Remaining(), need) {
		return cli.Exit(fmt.Sprintf("annotation budget too low: %d remaining, %d needed", ledger.Remaining(), need), 2)
	}
	return nil
}

// needSatisfied is the pre-flight gate for cron wrappers: quota --need N
// exits nonzero when fewer than N calls remain. A need below one still
// requires a nonzero budget.
func needSatisfied(remaining, need int) bool {
	if need < 1 {
		need = 1
	}
	return remaining >= need
}

func statusCmd(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	status, _, err := a.Quota()
	if err != nil {
		return err
	}
	count, updated, err := a.Corpus()
	if err != nil {
		return err
	}
	fmt.Printf("articles:      %d\n", count)
	if !updated.IsZero() {
		fmt.Printf("last updated:  %s\n", updated.Format(time.RFC3339))
	}
	fmt.Printf("api usage:     %d/%d (%d%%)\n",
		status.APIUsage.Used, status.APIUsage.Limit, status.APIUsage.Percentage)
	if status.LastRun.Timestamp != "" {
		fmt.Printf("last run:      %s (added %d, calls %d, success %t)\n",
			status.LastRun.Timestamp, status.LastRun.ArticlesAdded,
			status.LastRun.APICalls, status.LastRun.Success)
	}
	return nil
}

func blacklistCmd(ctx context.Context, cmd *cli.Command) error {
	url := cmd.Args().First()
	if url == "" {
		return fmt.Errorf("usage: blacklist <url>")
	}
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.Blacklist(url)
}

func manualCmd(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if id := cmd.String("delete"); id != "" {
		return a.Delete(id)
	}
	url := cmd.Args().First()
	if url == "" {
		return fmt.Errorf("usage: manual <url> | manual --delete <id>")
	}
	return a.ManualPost(ctx, url)
}

func purgeCmd(ctx context.Context, cmd *cli.Command) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.Purge()
	if err != nil {
		return err
	}
	fmt.Printf("purged %d article(s)\n", removed)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "newscurator",
		Usage: "Curated news pipeline for inclusive-education coverage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				Sources: cli.EnvVars("NEWS_CURATOR_CONFIG"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Execute one collection and annotation run",
				Action: runCmd,
			},
			{
				Name:  "quota",
				Usage: "Show the annotation budget for the current period",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "need", Value: 1, Usage: "Exit nonzero when fewer calls remain"},
				},
				Action: quotaCmd,
			},
			{
				Name:   "status",
				Usage:  "Show corpus and last-run status",
				Action: statusCmd,
			},
			{
				Name:      "blacklist",
				Usage:     "Permanently exclude a URL and remove it from the corpus",
				ArgsUsage: "<url>",
				Action:    blacklistCmd,
			},
			{
				Name:      "manual",
				Usage:     "Submit a URL as a manual article, or delete one by id",
				ArgsUsage: "<url>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "delete", Usage: "Delete the article with this id"},
				},
				Action: manualCmd,
			},
			{
				Name:   "purge",
				Usage:  "Re-apply exclusion rules and retention to the stored corpus",
				Action: purgeCmd,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
